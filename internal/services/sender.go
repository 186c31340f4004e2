package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/girasol-pay/deposit-listener/internal/lirium"
	"github.com/girasol-pay/deposit-listener/internal/repository"
)

type SenderStore interface {
	SettleableDeposits(ctx context.Context, requireSwept bool) ([]*repository.SettleableDeposit, error)
	MarkSettled(ctx context.Context, txHash, chainID string) (int64, error)
}

// SettlementSender is the slice of the partner client the sender needs.
type SettlementSender interface {
	SendDeposit(ctx context.Context, order *lirium.DepositOrder) (*lirium.DepositOrderResponse, error)
}

// Sender forwards confirmed deposits to the settlement partner and marks
// them settled on an acknowledged response. RequireSwept optionally gates
// eligibility on the sweep having landed.
type Sender struct {
	Store        SenderStore
	Partner      SettlementSender
	RequireSwept bool

	running atomic.Bool
}

func (s *Sender) SendConfirmedDeposits(basectx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		logrus.Info("Deposit sender already running, skipping")
		return nil
	}
	defer s.running.Store(false)

	deposits, err := s.Store.SettleableDeposits(basectx, s.RequireSwept)
	if err != nil {
		return fmt.Errorf("SendConfirmedDeposits: %w", err)
	}
	if len(deposits) == 0 {
		logrus.Info("No confirmed deposits to send")
		return nil
	}

	for _, dep := range deposits {
		s.processDeposit(basectx, dep)
	}
	return nil
}

// processDeposit never lets one deposit's failure escape the loop; the
// row stays unsettled and the next pass retries it.
func (s *Sender) processDeposit(ctx context.Context, dep *repository.SettleableDeposit) {
	resp, err := s.Partner.SendDeposit(ctx, buildDepositOrder(dep))
	if err != nil {
		var apiErr *lirium.APIError
		if errors.As(err, &apiErr) {
			logrus.Errorf("Error sending deposit %s: status %d body %s", dep.TxHash, apiErr.Status, apiErr.Body)
		} else {
			logrus.Errorf("Error sending deposit %s: %s", dep.TxHash, err)
		}
		return
	}
	if !resp.Created() {
		logrus.Warnf("Deposit %s failed validation: statusCode=%d error=%v message=%q",
			dep.TxHash, resp.StatusCode, resp.Error, resp.Message)
		return
	}

	rows, err := s.Store.MarkSettled(ctx, dep.TxHash, dep.ChainID)
	if err != nil {
		logrus.Errorf("Error settling deposit %s: %s", dep.TxHash, err)
		return
	}
	if rows == 0 {
		logrus.Warnf("MarkSettled affected 0 rows for %s, already settled?", dep.TxHash)
		return
	}
	logrus.Infof("Sent deposit %s on chain %s successfully", dep.TxHash, dep.ChainID)
}

func buildDepositOrder(dep *repository.SettleableDeposit) *lirium.DepositOrder {
	var sweepHash *string
	if dep.SweepHash.Valid {
		hash := dep.SweepHash.String
		sweepHash = &hash
	}
	return &lirium.DepositOrder{
		TxHash:       dep.TxHash,
		BlockNumber:  dep.BlockNumber,
		ERC20:        dep.ERC20,
		ChainID:      dep.ChainID,
		SweepHash:    sweepHash,
		Email:        dep.Email,
		Account:      dep.AccountID,
		Amount:       dep.AmountUSD.InexactFloat64(),
		GasFee:       dep.GasUsed.Readable(0),
		CurrencyCode: lirium.USDCurrencyCode,
		Merchant:     lirium.MerchantCode,
		PaymentType:  lirium.PaymentTypeTag,
	}
}
