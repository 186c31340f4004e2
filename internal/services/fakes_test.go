package services

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/islishude/bigint"

	"github.com/girasol-pay/deposit-listener/internal/gateway"
	"github.com/girasol-pay/deposit-listener/internal/lirium"
	"github.com/girasol-pay/deposit-listener/internal/repository"
)

type ownerInfo struct {
	email   string
	account string
}

// fakeLedger mimics the conditional-update semantics of the real store:
// transitions only fire when the status predicate holds.
type fakeLedger struct {
	mu        sync.Mutex
	wallets   map[string][]string            // chain id -> watched addresses
	owners    map[string]ownerInfo           // deposit_addr|chain -> owning user
	deposits  map[string]*repository.Deposit // tx_hash|chain -> row
	insertErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		wallets:  make(map[string][]string),
		owners:   make(map[string]ownerInfo),
		deposits: make(map[string]*repository.Deposit),
	}
}

func depositKey(txHash, chainID string) string { return txHash + "|" + chainID }

func (l *fakeLedger) WalletAddresses(ctx context.Context, chainID string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallets[chainID], nil
}

func (l *fakeLedger) NextSyncBlock(ctx context.Context, chainID string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var next uint64
	for _, dep := range l.deposits {
		if dep.ChainID == chainID && dep.BlockNumber+1 > next {
			next = dep.BlockNumber + 1
		}
	}
	return next, nil
}

func (l *fakeLedger) ExistingTxHashes(ctx context.Context, chainID string, hashes []string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing := make(map[string]bool)
	for _, hash := range hashes {
		if _, ok := l.deposits[depositKey(hash, chainID)]; ok {
			existing[hash] = true
		}
	}
	return existing, nil
}

func (l *fakeLedger) InsertDeposits(ctx context.Context, deposits []*repository.Deposit) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.insertErr != nil {
		return l.insertErr
	}
	for _, dep := range deposits {
		l.deposits[depositKey(dep.TxHash, dep.ChainID)] = dep
	}
	return nil
}

func (l *fakeLedger) UnconfirmedDeposits(ctx context.Context, chainID string) ([]*repository.Deposit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*repository.Deposit
	for _, dep := range l.deposits {
		if dep.ChainID == chainID && !dep.Confirmed && !dep.Swept {
			out = append(out, dep)
		}
	}
	return out, nil
}

func (l *fakeLedger) MarkConfirmed(ctx context.Context, txHash, chainID string, gasUsed bigint.Int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	dep, ok := l.deposits[depositKey(txHash, chainID)]
	if !ok || dep.Confirmed {
		return 0, nil
	}
	dep.Confirmed = true
	dep.GasUsed = gasUsed
	return 1, nil
}

func (l *fakeLedger) SweepableDeposits(ctx context.Context, chainID string) ([]*repository.Deposit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*repository.Deposit
	for _, dep := range l.deposits {
		if dep.ChainID == chainID && dep.Confirmed && !dep.Swept {
			out = append(out, dep)
		}
	}
	return out, nil
}

func (l *fakeLedger) MarkSwept(ctx context.Context, txHash, chainID string, settlementHash *string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	dep, ok := l.deposits[depositKey(txHash, chainID)]
	if !ok || dep.Swept {
		return 0, nil
	}
	dep.Swept = true
	if settlementHash != nil {
		dep.SettlementHash.String = *settlementHash
		dep.SettlementHash.Valid = true
	}
	return 1, nil
}

func (l *fakeLedger) SettleableDeposits(ctx context.Context, requireSwept bool) ([]*repository.SettleableDeposit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*repository.SettleableDeposit
	for _, dep := range l.deposits {
		if !dep.Confirmed || dep.Settled {
			continue
		}
		if requireSwept && !dep.Swept {
			continue
		}
		owner, ok := l.owners[dep.DepositAddr+"|"+dep.ChainID]
		if !ok {
			continue
		}
		out = append(out, &repository.SettleableDeposit{
			TxHash:      dep.TxHash,
			BlockNumber: dep.BlockNumber,
			ERC20:       dep.ERC20Address,
			ChainID:     dep.ChainID,
			SweepHash:   dep.SettlementHash,
			Email:       owner.email,
			AccountID:   owner.account,
			AmountUSD:   dep.AmountUSD,
			GasUsed:     dep.GasUsed,
		})
	}
	return out, nil
}

func (l *fakeLedger) MarkSettled(ctx context.Context, txHash, chainID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	dep, ok := l.deposits[depositKey(txHash, chainID)]
	if !ok || dep.Settled {
		return 0, nil
	}
	dep.Settled = true
	return 1, nil
}

func (l *fakeLedger) deposit(txHash, chainID string) *repository.Deposit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deposits[depositKey(txHash, chainID)]
}

// fakeChain serves canned transfers and receipts. It does not apply the
// fromBlock cursor so tests can exercise the tx-hash dedup path; the
// cursor values passed in are recorded instead.
type fakeChain struct {
	mu          sync.Mutex
	blockNumber uint64
	transfers   map[string][]gateway.TokenTransfer // lowercased addr -> transfers
	transferErr error
	receipts    map[string]*types.Receipt
	receiptErrs map[string]error
	fromBlocks  []uint64
	block       chan struct{} // when set, TokenTransfersTo waits on it
}

func (c *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return c.blockNumber, nil
}

func (c *fakeChain) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if err, ok := c.receiptErrs[txHash]; ok {
		return nil, err
	}
	if receipt, ok := c.receipts[txHash]; ok {
		return receipt, nil
	}
	return nil, gateway.ErrReceiptNotFound
}

func (c *fakeChain) TokenTransfersTo(ctx context.Context, addr string, fromBlock uint64) ([]gateway.TokenTransfer, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transferErr != nil {
		return nil, c.transferErr
	}
	c.fromBlocks = append(c.fromBlocks, fromBlock)
	return c.transfers[addr], nil
}

type fakeRelay struct {
	mu     sync.Mutex
	hashes map[string]string // deposit tx hash -> sweep tx hash
	errs   map[string]error
	calls  []string
}

func (r *fakeRelay) SweepDeposit(ctx context.Context, deposit *repository.Deposit) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, deposit.TxHash)
	if err, ok := r.errs[deposit.TxHash]; ok {
		return "", err
	}
	return r.hashes[deposit.TxHash], nil
}

type fakePartner struct {
	mu     sync.Mutex
	resp   *lirium.DepositOrderResponse
	err    error
	orders []*lirium.DepositOrder
}

func (p *fakePartner) SendDeposit(ctx context.Context, order *lirium.DepositOrder) (*lirium.DepositOrderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders = append(p.orders, order)
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}
