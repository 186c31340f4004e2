// Package safeops moves deposited tokens out of per-customer proxy safes
// into the master custody safe. Each proxy is a 1-of-1 Gnosis Safe whose
// sole owner is the master safe, so a sweep is the multisig's native
// approve-then-execute protocol driven by the relayer key.
package safeops

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/girasol-pay/deposit-listener/internal/chains"
	"github.com/girasol-pay/deposit-listener/internal/goabi"
	"github.com/girasol-pay/deposit-listener/internal/repository"
	"github.com/girasol-pay/deposit-listener/internal/utils"
)

// Relay executes two-phase sweeps on one chain. The relayer EOA must be
// an owner of the master safe.
type Relay struct {
	ChainID      string
	Client       *ethclient.Client
	MasterSafe   common.Address
	Prvkey       *ecdsa.PrivateKey
	Account      common.Address
	Eip155Signer types.Signer
	WaitTimeout  time.Duration

	mu    sync.Mutex
	nonce uint64
}

// Initial loads the relayer's pending nonce. Must run before SweepDeposit.
func (r *Relay) Initial(basectx context.Context) (err error) {
	if r.Eip155Signer == nil {
		r.Eip155Signer = types.NewEIP155Signer(new(big.Int).SetUint64(chains.NumericID(r.ChainID)))
	}
	if r.WaitTimeout <= 0 {
		r.WaitTimeout = time.Minute * 3
	}

	newctx, cancel := context.WithTimeout(basectx, time.Second*5)
	defer cancel()
	r.nonce, err = r.Client.PendingNonceAt(newctx, r.Account)
	return
}

// SweepDeposit moves min(proxy balance, the deposit's attributed amount)
// of the deposit's token into the master safe. It returns the hash of the
// phase-2 execute transaction, or "" when the proxy balance was zero and
// nothing moved on chain.
func (r *Relay) SweepDeposit(ctx context.Context, deposit *repository.Deposit) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := common.HexToAddress(deposit.ERC20Address)
	proxy := common.HexToAddress(deposit.DepositAddr)
	erc20 := goabi.NewERC20(token, r.Client)

	callctx, cancel := context.WithTimeout(ctx, time.Second*10)
	callOpts := &bind.CallOpts{Context: callctx}
	balance, err := erc20.BalanceOf(callOpts, proxy)
	if err != nil {
		cancel()
		return "", fmt.Errorf("SweepDeposit: balance of %s: %w", proxy, err)
	}
	if balance.Sign() == 0 {
		cancel()
		logrus.Infof("Proxy %s balance is zero, nothing to sweep", proxy)
		return "", nil
	}

	sweepAmount := sweepBound(balance, deposit.AmountUSD, chains.TokenDecimals(deposit.ERC20Address))

	transferData, err := goabi.PackTransfer(r.MasterSafe, sweepAmount)
	if err != nil {
		cancel()
		return "", fmt.Errorf("SweepDeposit: pack transfer: %w", err)
	}

	proxySafe := goabi.NewGnosisSafe(proxy, r.Client)
	proxyNonce, err := proxySafe.Nonce(callOpts)
	if err != nil {
		cancel()
		return "", fmt.Errorf("SweepDeposit: proxy nonce: %w", err)
	}

	zero := big.NewInt(0)
	safeTxHash, err := proxySafe.GetTransactionHash(callOpts,
		token, zero, transferData, goabi.SafeOperationCall,
		zero, zero, zero, common.Address{}, common.Address{}, proxyNonce)
	if err != nil {
		cancel()
		return "", fmt.Errorf("SweepDeposit: safe tx hash: %w", err)
	}

	approved, err := proxySafe.HashApproved(callOpts, r.MasterSafe, safeTxHash)
	cancel()
	if err != nil {
		return "", fmt.Errorf("SweepDeposit: approved hashes: %w", err)
	}

	logrus.Infof("Sweeping %s units of %s from proxy %s [ Deposit %s ]",
		sweepAmount, token, proxy, deposit.TxHash)

	// Phase 1: the master safe approves the proxy safe tx hash on chain.
	// A sweep retried after a phase-2 failure finds the hash already
	// approved and goes straight to phase 2.
	if !approved {
		approveData, err := goabi.PackApproveHash(safeTxHash)
		if err != nil {
			return "", fmt.Errorf("SweepDeposit: pack approveHash: %w", err)
		}
		if _, err := r.execViaMasterSafe(ctx, proxy, approveData); err != nil {
			return "", fmt.Errorf("SweepDeposit: approve phase: %w", err)
		}
		logrus.Infof("Proxy %s approveHash mined [ Deposit %s ]", proxy, deposit.TxHash)
	}

	// Phase 2: execute the transfer on the proxy safe. The signature blob
	// points at the on-chain approval, no off-chain signature involved.
	execData, err := goabi.PackExecTransaction(
		token, zero, transferData, goabi.SafeOperationCall,
		zero, zero, zero, common.Address{}, common.Address{},
		PrevalidatedSignature(r.MasterSafe))
	if err != nil {
		return "", fmt.Errorf("SweepDeposit: pack execTransaction: %w", err)
	}

	execHash, err := r.execViaMasterSafe(ctx, proxy, execData)
	if err != nil {
		return "", fmt.Errorf("SweepDeposit: execute phase: %w", err)
	}

	logrus.Infof("Proxy %s sweep complete [ Tx %s ]", proxy, execHash)
	return execHash.Hex(), nil
}

// sweepBound caps a sweep at the lesser of the proxy's live token balance
// and the deposit's attributed amount in token units. The balance runs
// below the attributed amount when an earlier sweep already moved part of
// the funds out.
func sweepBound(balance *big.Int, amount decimal.Decimal, decimals uint8) *big.Int {
	return utils.MinBig(balance, utils.TokenUnits(amount, decimals))
}

// execViaMasterSafe routes a call through the master safe's own
// execTransaction, authorized by the relayer being msg.sender and a
// master-safe owner.
func (r *Relay) execViaMasterSafe(ctx context.Context, target common.Address, innerData []byte) (common.Hash, error) {
	zero := big.NewInt(0)
	outerData, err := goabi.PackExecTransaction(
		target, zero, innerData, goabi.SafeOperationCall,
		zero, zero, zero, common.Address{}, common.Address{},
		PrevalidatedSignature(r.Account))
	if err != nil {
		return common.Hash{}, fmt.Errorf("execViaMasterSafe: pack: %w", err)
	}

	tx, err := r.makeTx(ctx, r.MasterSafe, outerData)
	if err != nil {
		return common.Hash{}, err
	}

	if err := r.Client.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("execViaMasterSafe: send: %w", err)
	}
	r.nonce += 1

	receipt, err := r.waitMined(ctx, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("execViaMasterSafe: wait mined %s: %w", tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Hash{}, fmt.Errorf("execViaMasterSafe: tx %s reverted", tx.Hash())
	}
	return tx.Hash(), nil
}

func (r *Relay) makeTx(basectx context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	newctx, cancel := context.WithTimeout(basectx, time.Second*5)
	defer cancel()

	gasPrice, err := r.Client.SuggestGasPrice(newctx)
	if err != nil {
		return nil, fmt.Errorf("makeTx: gas price: %w", err)
	}

	gas, err := r.Client.EstimateGas(newctx,
		ethereum.CallMsg{From: r.Account, To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("makeTx: estimate gas: %w", err)
	}

	rawtx := &types.LegacyTx{
		Nonce:    r.nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Data:     data,
	}
	return types.SignNewTx(r.Prvkey, r.Eip155Signer, rawtx)
}

// waitMined blocks until the transaction is mined or the bounded wait
// expires; a sweep never hangs a pipeline pass indefinitely.
func (r *Relay) waitMined(basectx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	newctx, cancel := context.WithTimeout(basectx, r.WaitTimeout)
	defer cancel()
	return bind.WaitMined(newctx, r.Client, tx)
}
