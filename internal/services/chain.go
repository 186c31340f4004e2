package services

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/girasol-pay/deposit-listener/internal/gateway"
)

// ChainReader is the per-chain RPC surface the pipeline stages consume.
// Production uses *gateway.Client; tests substitute fakes.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
	TokenTransfersTo(ctx context.Context, addr string, fromBlock uint64) ([]gateway.TokenTransfer, error)
}
