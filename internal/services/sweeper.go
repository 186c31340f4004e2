package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/girasol-pay/deposit-listener/internal/repository"
)

type SweeperStore interface {
	SweepableDeposits(ctx context.Context, chainID string) ([]*repository.Deposit, error)
	MarkSwept(ctx context.Context, txHash, chainID string, settlementHash *string) (int64, error)
}

// ProxyRelay performs the two-phase on-chain sweep for one deposit and
// returns the execute-phase tx hash, or "" when the proxy balance was
// empty and no transaction was attempted.
type ProxyRelay interface {
	SweepDeposit(ctx context.Context, deposit *repository.Deposit) (string, error)
}

// Sweeper moves confirmed deposits out of proxy custody wallets into the
// master safe, one deposit at a time.
type Sweeper struct {
	Store    SweeperStore
	Relays   map[string]ProxyRelay
	ChainIDs []string

	running atomic.Bool
}

func (s *Sweeper) SweepDeposits(basectx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		logrus.Info("Token sweeper already running, skipping")
		return nil
	}
	defer s.running.Store(false)

	for _, chainID := range s.ChainIDs {
		if err := s.sweepChain(basectx, chainID); err != nil {
			return fmt.Errorf("SweepDeposits: chain %s: %w", chainID, err)
		}
	}
	return nil
}

func (s *Sweeper) sweepChain(ctx context.Context, chainID string) error {
	relay, ok := s.Relays[chainID]
	if !ok {
		return fmt.Errorf("sweepChain: no relay for chain %s", chainID)
	}

	deposits, err := s.Store.SweepableDeposits(ctx, chainID)
	if err != nil {
		return fmt.Errorf("sweepChain: %w", err)
	}

	var sweptCount int
	for _, dep := range deposits {
		// A failed sweep leaves the row unswept; the next pass retries it
		// from phase 1, which is safe because re-approving a hash is
		// idempotent on chain.
		hash, err := relay.SweepDeposit(ctx, dep)
		if err != nil {
			logrus.Errorf("Sweep failed for %s: %s", dep.TxHash, err)
			continue
		}

		var settlementHash *string
		if hash != "" {
			settlementHash = &hash
		}
		rows, err := s.Store.MarkSwept(ctx, dep.TxHash, dep.ChainID, settlementHash)
		if err != nil {
			logrus.Errorf("Sweep update failed for %s: %s", dep.TxHash, err)
			continue
		}
		if rows == 0 {
			logrus.Warnf("MarkSwept affected 0 rows for %s", dep.TxHash)
			continue
		}
		if hash != "" {
			sweptCount++
		}
	}

	logrus.Infof("Swept deposits: %d for chain %s", sweptCount, chainID)
	return nil
}
