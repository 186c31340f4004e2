package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// WalletAddresses returns every watched deposit address on a chain.
func (l Ledger) WalletAddresses(ctx context.Context, chainID string) ([]string, error) {
	const query = "SELECT `deposit_addr` FROM `wallets` WHERE `chain_id`=?;"

	var addrs []string
	if err := l.db.SelectContext(ctx, &addrs, query, chainID); err != nil {
		return nil, fmt.Errorf("WalletAddresses: %w", err)
	}
	return addrs, nil
}

// NextSyncBlock is the first block the fetcher has not seen yet for a
// chain. Chains with no deposits start at block 0.
func (l Ledger) NextSyncBlock(ctx context.Context, chainID string) (uint64, error) {
	const query = "SELECT COALESCE(MAX(`block_number`)+1, 0) FROM `deposits` WHERE `chain_id`=?;"

	var next uint64
	if err := l.db.QueryRowxContext(ctx, query, chainID).Scan(&next); err != nil {
		return 0, fmt.Errorf("NextSyncBlock: %w", err)
	}
	return next, nil
}

// ExistingTxHashes reports which of the given tx hashes already have a
// deposit row on the chain. The fetcher uses it to keep inserts
// idempotent across overlapping block ranges.
func (l Ledger) ExistingTxHashes(ctx context.Context, chainID string, hashes []string) (map[string]bool, error) {
	if len(hashes) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := sqlx.In("SELECT `tx_hash` FROM `deposits` WHERE `chain_id`=? AND `tx_hash` IN (?);", chainID, hashes)
	if err != nil {
		return nil, fmt.Errorf("ExistingTxHashes: build query: %w", err)
	}

	var existing []string
	if err := l.db.SelectContext(ctx, &existing, l.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("ExistingTxHashes: %w", err)
	}

	set := make(map[string]bool, len(existing))
	for _, hash := range existing {
		set[hash] = true
	}
	return set, nil
}

// InsertDeposits writes newly observed deposits in one transaction.
func (l Ledger) InsertDeposits(ctx context.Context, deposits []*Deposit) (err error) {
	if len(deposits) == 0 {
		return nil
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertDeposits: begin tx %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rollbackError := tx.Rollback(); rollbackError != nil {
			logrus.Errorf("InsertDeposits: rollback: %s", rollbackError)
		}
	}()

	const query = "INSERT INTO `deposits` (`tx_hash`,`chain_id`,`deposit_addr`,`amount_usd`,`erc20_address`,`gas_used`,`block_number`,`confirmed`,`settled`,`swept`) VALUES (?,?,?,?,?,?,?,?,?,?);"
	for _, item := range deposits {
		args := []interface{}{item.TxHash, item.ChainID, item.DepositAddr, item.AmountUSD, item.ERC20Address, item.GasUsed, item.BlockNumber, item.Confirmed, item.Settled, item.Swept}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("InsertDeposits: insert deposit: %w", err)
		}
	}
	return tx.Commit()
}
