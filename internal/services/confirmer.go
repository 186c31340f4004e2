package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/islishude/bigint"
	"github.com/sirupsen/logrus"

	"github.com/girasol-pay/deposit-listener/internal/gateway"
	"github.com/girasol-pay/deposit-listener/internal/repository"
)

type ConfirmerStore interface {
	UnconfirmedDeposits(ctx context.Context, chainID string) ([]*repository.Deposit, error)
	MarkConfirmed(ctx context.Context, txHash, chainID string, gasUsed bigint.Int) (int64, error)
}

// Confirmer promotes deposits to confirmed once their transaction has
// enough blocks on top of it.
type Confirmer struct {
	Store            ConfirmerStore
	Gateways         map[string]ChainReader
	ChainIDs         []string
	MinConfirmations uint64

	running atomic.Bool
}

const defaultMinConfirmations = 3

func (c *Confirmer) ConfirmDeposits(basectx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		logrus.Info("Deposit confirmer already running, skipping")
		return nil
	}
	defer c.running.Store(false)

	minConfirmations := c.MinConfirmations
	if minConfirmations == 0 {
		minConfirmations = defaultMinConfirmations
	}

	for _, chainID := range c.ChainIDs {
		if err := c.ConfirmChain(basectx, chainID, minConfirmations); err != nil {
			return fmt.Errorf("ConfirmDeposits: chain %s: %w", chainID, err)
		}
	}
	return nil
}

// ConfirmChain checks every unconfirmed deposit on one chain against the
// chain head read once at the start of the call. A per-deposit receipt
// failure only skips that deposit; the rest of the batch proceeds.
func (c *Confirmer) ConfirmChain(ctx context.Context, chainID string, minConfirmations uint64) error {
	chain, ok := c.Gateways[chainID]
	if !ok {
		return fmt.Errorf("ConfirmChain: no gateway for chain %s", chainID)
	}

	currentBlock, err := chain.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("ConfirmChain: block number: %w", err)
	}

	deposits, err := c.Store.UnconfirmedDeposits(ctx, chainID)
	if err != nil {
		return fmt.Errorf("ConfirmChain: %w", err)
	}
	logrus.Infof("Checking %d deposits for confirmations on chain %s", len(deposits), chainID)

	var confirmedCount int
	for _, dep := range deposits {
		receipt, err := chain.TransactionReceipt(ctx, dep.TxHash)
		if err != nil {
			if errors.Is(err, gateway.ErrReceiptNotFound) {
				logrus.Debugf("Tx %s not yet confirmed or reorged out", dep.TxHash)
			} else {
				logrus.Errorf("Error checking tx %s of address %s: %s", dep.TxHash, dep.DepositAddr, err)
			}
			continue
		}
		if receipt == nil || receipt.BlockNumber == nil {
			logrus.Debugf("Tx %s not yet confirmed or reorged out", dep.TxHash)
			continue
		}
		if receipt.GasUsed == 0 {
			logrus.Warnf("Tx %s has 0 gasUsed, possible failed TX", dep.TxHash)
			continue
		}

		minedAt := receipt.BlockNumber.Uint64()
		if minedAt > currentBlock {
			continue
		}
		// inclusive depth: a tx mined in the current block has 1 confirmation
		if confirmations := currentBlock - minedAt + 1; confirmations < minConfirmations {
			continue
		}

		gasUsed := bigint.FromBigInt(new(big.Int).SetUint64(receipt.GasUsed))
		rows, err := c.Store.MarkConfirmed(ctx, dep.TxHash, dep.ChainID, gasUsed)
		if err != nil {
			logrus.Errorf("Error confirming tx %s: %s", dep.TxHash, err)
			continue
		}
		if rows == 0 {
			logrus.Warnf("MarkConfirmed affected 0 rows for %s, already confirmed?", dep.TxHash)
			continue
		}

		logrus.Infof("Confirmed deposit %s at %s with gasUsed=%d", dep.TxHash, dep.DepositAddr, receipt.GasUsed)
		confirmedCount++
	}

	logrus.Infof("Marked %d deposits as confirmed for chain %s", confirmedCount, chainID)
	return nil
}
