package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/islishude/bigint"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/girasol-pay/deposit-listener/internal/chains"
	"github.com/girasol-pay/deposit-listener/internal/gateway"
	"github.com/girasol-pay/deposit-listener/internal/repository"
	"github.com/girasol-pay/deposit-listener/internal/utils"
)

type FetcherStore interface {
	WalletAddresses(ctx context.Context, chainID string) ([]string, error)
	NextSyncBlock(ctx context.Context, chainID string) (uint64, error)
	ExistingTxHashes(ctx context.Context, chainID string, hashes []string) (map[string]bool, error)
	InsertDeposits(ctx context.Context, deposits []*repository.Deposit) error
}

// Fetcher polls each chain for new incoming whitelisted-token transfers
// to watched addresses and records them as unconfirmed deposits.
type Fetcher struct {
	Store     FetcherStore
	Gateways  map[string]ChainReader
	ChainIDs  []string
	BatchSize int

	running atomic.Bool
}

const defaultBatchSize = 100

// SyncDeposits runs one fetch pass. Overlapping invocations on the same
// process collapse into a no-op; overlapping block ranges are harmless
// because insertion is preceded by the tx-hash existence check.
func (f *Fetcher) SyncDeposits(basectx context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		logrus.Info("Deposit fetcher already running, skipping")
		return nil
	}
	defer f.running.Store(false)

	var all []*repository.Deposit
	for _, chainID := range f.ChainIDs {
		deposits, err := f.syncChain(basectx, chainID)
		if err != nil {
			return fmt.Errorf("SyncDeposits: chain %s: %w", chainID, err)
		}
		all = append(all, deposits...)
	}

	if err := f.Store.InsertDeposits(basectx, all); err != nil {
		return fmt.Errorf("SyncDeposits: %w", err)
	}
	logrus.Infof("Total inserted %d new deposits", len(all))
	return nil
}

func (f *Fetcher) syncChain(ctx context.Context, chainID string) ([]*repository.Deposit, error) {
	chain, ok := f.Gateways[chainID]
	if !ok {
		return nil, fmt.Errorf("syncChain: no gateway for chain %s", chainID)
	}

	fromBlock, err := f.Store.NextSyncBlock(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("syncChain: %w", err)
	}
	addrs, err := f.Store.WalletAddresses(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("syncChain: %w", err)
	}

	batch := f.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	seen := make(map[string]bool)
	var newDeposits []*repository.Deposit
	for i := 0; i < len(addrs); i += batch {
		end := i + batch
		if end > len(addrs) {
			end = len(addrs)
		}
		chunk := addrs[i:end]
		logrus.Debugf("Syncing deposits after block %d for %d addresses on chain %s", fromBlock, len(chunk), chainID)

		transfers, err := f.fetchBatch(ctx, chain, chunk, fromBlock)
		if err != nil {
			return nil, fmt.Errorf("syncChain: %w", err)
		}
		logrus.Debugf("Transfers fetched: %d", len(transfers))
		if len(transfers) == 0 {
			continue
		}

		fresh, err := f.filterNew(ctx, chainID, transfers, seen)
		if err != nil {
			return nil, fmt.Errorf("syncChain: %w", err)
		}
		newDeposits = append(newDeposits, fresh...)
	}
	return newDeposits, nil
}

// fetchBatch queries transfers per address concurrently and waits for the
// whole batch before anything is filtered or inserted.
func (f *Fetcher) fetchBatch(ctx context.Context, chain ChainReader, addrs []string, fromBlock uint64) ([]gateway.TokenTransfer, error) {
	results := make([][]gateway.TokenTransfer, len(addrs))

	eg, egctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		i, addr := i, addr
		eg.Go(func() error {
			transfers, err := chain.TokenTransfersTo(egctx, strings.ToLower(addr), fromBlock)
			if err != nil {
				return fmt.Errorf("fetch transfers to %s: %w", addr, err)
			}
			results[i] = transfers
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var flat []gateway.TokenTransfer
	for _, transfers := range results {
		flat = append(flat, transfers...)
	}
	return flat, nil
}

func (f *Fetcher) filterNew(ctx context.Context, chainID string, transfers []gateway.TokenTransfer, seen map[string]bool) ([]*repository.Deposit, error) {
	hashes := make([]string, 0, len(transfers))
	for _, transfer := range transfers {
		hashes = append(hashes, transfer.TxHash)
	}

	existing, err := f.Store.ExistingTxHashes(ctx, chainID, hashes)
	if err != nil {
		return nil, err
	}

	var deposits []*repository.Deposit
	for _, transfer := range transfers {
		if transfer.To == "" || transfer.Value == nil {
			continue
		}
		if existing[transfer.TxHash] || seen[transfer.TxHash] {
			continue
		}
		seen[transfer.TxHash] = true

		decimals := chains.TokenDecimals(transfer.Token)
		deposits = append(deposits, &repository.Deposit{
			TxHash:       transfer.TxHash,
			ChainID:      chainID,
			DepositAddr:  strings.ToLower(transfer.To),
			AmountUSD:    utils.FromTokenUnits(transfer.Value, decimals),
			ERC20Address: transfer.Token,
			GasUsed:      bigint.FromBigInt(new(big.Int)),
			BlockNumber:  transfer.BlockNumber,
		})
	}
	return deposits, nil
}
