package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/islishude/bigint"
)

// UnconfirmedDeposits lists rows the confirmer still needs to check.
func (l Ledger) UnconfirmedDeposits(ctx context.Context, chainID string) ([]*Deposit, error) {
	const query = "SELECT `tx_hash`,`chain_id`,`deposit_addr`,`amount_usd`,`erc20_address`,`gas_used`,`block_number`,`confirmed`,`settled`,`settlement_hash`,`swept` FROM `deposits` WHERE `chain_id`=? AND `confirmed`=0 AND `swept`=0;"
	return l.selectDeposits(ctx, query, chainID)
}

// SweepableDeposits lists confirmed rows whose funds are still sitting in
// the proxy wallet.
func (l Ledger) SweepableDeposits(ctx context.Context, chainID string) ([]*Deposit, error) {
	const query = "SELECT `tx_hash`,`chain_id`,`deposit_addr`,`amount_usd`,`erc20_address`,`gas_used`,`block_number`,`confirmed`,`settled`,`settlement_hash`,`swept` FROM `deposits` WHERE `chain_id`=? AND `confirmed`=1 AND `swept`=0;"
	return l.selectDeposits(ctx, query, chainID)
}

func (l Ledger) selectDeposits(ctx context.Context, query string, args ...interface{}) ([]*Deposit, error) {
	rows, err := l.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selectDeposits: %w", err)
	}
	defer rows.Close()

	var deposits []*Deposit
	for rows.Next() {
		var dep Deposit
		if err := rows.StructScan(&dep); err != nil {
			return nil, fmt.Errorf("selectDeposits: scan: %w", err)
		}
		deposits = append(deposits, &dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("selectDeposits: %w", err)
	}
	return deposits, nil
}

// MarkConfirmed promotes a deposit to confirmed and records its gas used.
// The confirmed=0 predicate keeps the transition monotonic even when two
// processes race.
func (l Ledger) MarkConfirmed(ctx context.Context, txHash, chainID string, gasUsed bigint.Int) (int64, error) {
	const query = "UPDATE `deposits` SET `confirmed`=1,`gas_used`=? WHERE `tx_hash`=? AND `chain_id`=? AND `confirmed`=0;"
	res, err := l.db.ExecContext(ctx, query, gasUsed, txHash, chainID)
	if err != nil {
		return 0, fmt.Errorf("MarkConfirmed: %w", err)
	}
	return res.RowsAffected()
}

// MarkSwept records a sweep attempt outcome. settlementHash is nil when
// the proxy balance was already empty and nothing moved on chain.
func (l Ledger) MarkSwept(ctx context.Context, txHash, chainID string, settlementHash *string) (int64, error) {
	const query = "UPDATE `deposits` SET `swept`=1,`settlement_hash`=? WHERE `tx_hash`=? AND `chain_id`=? AND `swept`=0;"

	var hash sql.NullString
	if settlementHash != nil {
		hash = sql.NullString{String: *settlementHash, Valid: true}
	}
	res, err := l.db.ExecContext(ctx, query, hash, txHash, chainID)
	if err != nil {
		return 0, fmt.Errorf("MarkSwept: %w", err)
	}
	return res.RowsAffected()
}

// SettleableDeposits joins confirmed, unsettled deposits to their owning
// user. requireSwept additionally gates on swept=1; by default a deposit
// is eligible as soon as it is confirmed, even if the sweep has not landed.
func (l Ledger) SettleableDeposits(ctx context.Context, requireSwept bool) ([]*SettleableDeposit, error) {
	query := "SELECT d.`tx_hash`,d.`block_number`,d.`erc20_address`,d.`chain_id`,d.`settlement_hash`,u.`email`,u.`girasol_account_id`,d.`amount_usd`,d.`gas_used` " +
		"FROM `deposits` d " +
		"INNER JOIN `wallets` w ON d.`deposit_addr`=w.`deposit_addr` AND d.`chain_id`=w.`chain_id` " +
		"INNER JOIN `users` u ON w.`user_id`=u.`user_id` " +
		"WHERE d.`confirmed`=1 AND d.`settled`=0"
	if requireSwept {
		query += " AND d.`swept`=1"
	}
	query += ";"

	rows, err := l.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("SettleableDeposits: %w", err)
	}
	defer rows.Close()

	var deposits []*SettleableDeposit
	for rows.Next() {
		var dep SettleableDeposit
		if err := rows.StructScan(&dep); err != nil {
			return nil, fmt.Errorf("SettleableDeposits: scan: %w", err)
		}
		deposits = append(deposits, &dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SettleableDeposits: %w", err)
	}
	return deposits, nil
}

// MarkSettled is the terminal transition. settled=0 in the predicate makes
// settlement at-most-once under concurrent runs.
func (l Ledger) MarkSettled(ctx context.Context, txHash, chainID string) (int64, error) {
	const query = "UPDATE `deposits` SET `settled`=1 WHERE `tx_hash`=? AND `chain_id`=? AND `settled`=0;"
	res, err := l.db.ExecContext(ctx, query, txHash, chainID)
	if err != nil {
		return 0, fmt.Errorf("MarkSettled: %w", err)
	}
	return res.RowsAffected()
}
