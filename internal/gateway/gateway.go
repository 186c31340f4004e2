// Package gateway is the per-chain RPC client abstraction. One Client per
// supported chain, dialed once at startup.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/girasol-pay/deposit-listener/internal/chains"
)

// ErrReceiptNotFound is returned when a transaction has no receipt yet,
// either because it is unmined or because a reorg dropped it.
var ErrReceiptNotFound = errors.New("gateway: transaction receipt not found")

var transferEventID = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// TokenTransfer is one incoming ERC20 transfer observed on chain.
type TokenTransfer struct {
	TxHash      string
	To          string
	Token       string
	Value       *big.Int
	BlockNumber uint64
}

type Client struct {
	chainID string
	eth     *ethclient.Client
	tokens  []common.Address
}

// Dial connects to the chain's RPC endpoint and verifies the node is on
// the expected network.
func Dial(ctx context.Context, chainID, rpcURL string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("Dial: chain %s: %w", chainID, err)
	}

	newctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	remote, err := eth.ChainID(newctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("Dial: get chain id: %w", err)
	}
	if want := chains.NumericID(chainID); remote.Uint64() != want {
		eth.Close()
		return nil, fmt.Errorf("Dial: wrong network: got %d want %d", remote.Uint64(), want)
	}

	return &Client{chainID: chainID, eth: eth, tokens: chains.TokenWhitelist(chainID)}, nil
}

func (c *Client) ChainID() string { return c.chainID }

// Backend exposes the raw client for contract calls and tx submission.
func (c *Client) Backend() *ethclient.Client { return c.eth }

func (c *Client) Close() { c.eth.Close() }

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	newctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	return c.eth.BlockNumber(newctx)
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	newctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	receipt, err := c.eth.TransactionReceipt(newctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	if receipt == nil {
		return nil, ErrReceiptNotFound
	}
	return receipt, nil
}

// TokenTransfersTo returns all whitelisted-token transfers into one
// address from fromBlock onwards. Zero-value transfers are dropped.
func (c *Client) TokenTransfersTo(ctx context.Context, addr string, fromBlock uint64) ([]TokenTransfer, error) {
	newctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	recipient := common.HexToAddress(addr)
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: c.tokens,
		Topics: [][]common.Hash{
			{transferEventID},
			nil,
			{common.BytesToHash(recipient.Bytes())},
		},
	}

	logs, err := c.eth.FilterLogs(newctx, query)
	if err != nil {
		return nil, fmt.Errorf("TokenTransfersTo: filter logs: %w", err)
	}

	transfers := make([]TokenTransfer, 0, len(logs))
	for _, log := range logs {
		if transfer, ok := parseTransferLog(log); ok {
			transfers = append(transfers, transfer)
		}
	}
	return transfers, nil
}

func parseTransferLog(log types.Log) (TokenTransfer, bool) {
	if log.Removed || len(log.Topics) != 3 {
		return TokenTransfer{}, false
	}
	value := new(big.Int).SetBytes(log.Data)
	if value.Sign() == 0 {
		return TokenTransfer{}, false
	}
	to := common.BytesToAddress(log.Topics[2].Bytes())
	if to == (common.Address{}) {
		return TokenTransfer{}, false
	}
	return TokenTransfer{
		TxHash:      log.TxHash.Hex(),
		To:          strings.ToLower(to.Hex()),
		Token:       strings.ToLower(log.Address.Hex()),
		Value:       value,
		BlockNumber: log.BlockNumber,
	}, true
}
