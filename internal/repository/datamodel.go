package repository

import (
	"database/sql"

	"github.com/islishude/bigint"
	"github.com/shopspring/decimal"
)

// Deposit is one observed token transfer into a watched custody address.
// Natural key is (tx_hash, chain_id). The three status flags only ever
// move forward: confirmed, then swept, then settled.
type Deposit struct {
	TxHash         string          `db:"tx_hash"`
	ChainID        string          `db:"chain_id"`
	DepositAddr    string          `db:"deposit_addr"`
	AmountUSD      decimal.Decimal `db:"amount_usd"`
	ERC20Address   string          `db:"erc20_address"`
	GasUsed        bigint.Int      `db:"gas_used"`
	BlockNumber    uint64          `db:"block_number"`
	Confirmed      bool            `db:"confirmed"`
	Settled        bool            `db:"settled"`
	SettlementHash sql.NullString  `db:"settlement_hash"`
	Swept          bool            `db:"swept"`
}

// Wallet is one per-chain proxy custody address owned by one customer.
// Immutable after the proxy safe is deployed.
type Wallet struct {
	UserID      string `db:"user_id"`
	ChainID     string `db:"chain_id"`
	DepositAddr string `db:"deposit_addr"`
}

type User struct {
	UserID           string `db:"user_id"`
	GirasolAccountID string `db:"girasol_account_id"`
	Email            string `db:"email"`
}

// SettleableDeposit is the deposits→wallets→users join the sender posts to
// the settlement partner.
type SettleableDeposit struct {
	TxHash      string          `db:"tx_hash"`
	BlockNumber uint64          `db:"block_number"`
	ERC20       string          `db:"erc20_address"`
	ChainID     string          `db:"chain_id"`
	SweepHash   sql.NullString  `db:"settlement_hash"`
	Email       string          `db:"email"`
	AccountID   string          `db:"girasol_account_id"`
	AmountUSD   decimal.Decimal `db:"amount_usd"`
	GasUsed     bigint.Int      `db:"gas_used"`
}
