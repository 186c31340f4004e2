package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/girasol-pay/deposit-listener/internal/chains"
	"github.com/girasol-pay/deposit-listener/internal/lirium"
)

func seedSettleable(ledger *fakeLedger, txHash string, swept bool) {
	seedDeposit(ledger, txHash, 100)
	dep := ledger.deposits[depositKey(txHash, chains.OpChainID)]
	dep.Confirmed = true
	if swept {
		dep.Swept = true
		dep.SettlementHash.String = "0xsweep1"
		dep.SettlementHash.Valid = true
	}
	ledger.owners[watchedAddr+"|"+chains.OpChainID] = ownerInfo{
		email:   "alice@example.com",
		account: "acct-1",
	}
}

func createdResponse() *lirium.DepositOrderResponse {
	return &lirium.DepositOrderResponse{StatusCode: 201, Error: false}
}

func TestSendConfirmedDepositsMarksSettled(t *testing.T) {
	ledger := newFakeLedger()
	seedSettleable(ledger, "0xaaa", true)

	partner := &fakePartner{resp: createdResponse()}
	sender := &Sender{Store: ledger, Partner: partner}
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))

	require.True(t, ledger.deposit("0xaaa", chains.OpChainID).Settled)
	require.Len(t, partner.orders, 1)

	order := partner.orders[0]
	require.Equal(t, "0xaaa", order.TxHash)
	require.Equal(t, chains.OpChainID, order.ChainID)
	require.Equal(t, "alice@example.com", order.Email)
	require.Equal(t, "acct-1", order.Account)
	require.Equal(t, float64(10), order.Amount)
	require.Equal(t, lirium.USDCurrencyCode, order.CurrencyCode)
	require.Equal(t, lirium.MerchantCode, order.Merchant)
	require.Equal(t, lirium.PaymentTypeTag, order.PaymentType)
	require.NotNil(t, order.SweepHash)
	require.Equal(t, "0xsweep1", *order.SweepHash)
}

func TestSendConfirmedDepositsSettledOnlyOnce(t *testing.T) {
	ledger := newFakeLedger()
	seedSettleable(ledger, "0xaaa", true)

	partner := &fakePartner{resp: createdResponse()}
	sender := &Sender{Store: ledger, Partner: partner}
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))

	require.Len(t, partner.orders, 1)
}

func TestSendConfirmedDepositsRejectedBodyLeavesUnsettled(t *testing.T) {
	ledger := newFakeLedger()
	seedSettleable(ledger, "0xaaa", true)

	// transport-level 201 but the partner flags the order invalid
	partner := &fakePartner{resp: &lirium.DepositOrderResponse{
		StatusCode: 400,
		Error:      true,
		Message:    "duplicate order",
	}}
	sender := &Sender{Store: ledger, Partner: partner}
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))

	require.False(t, ledger.deposit("0xaaa", chains.OpChainID).Settled)
}

func TestSendConfirmedDepositsAPIErrorLeavesUnsettled(t *testing.T) {
	ledger := newFakeLedger()
	seedSettleable(ledger, "0xaaa", true)

	partner := &fakePartner{err: &lirium.APIError{Status: 503, Body: "unavailable"}}
	sender := &Sender{Store: ledger, Partner: partner}
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))

	require.False(t, ledger.deposit("0xaaa", chains.OpChainID).Settled)
	require.Len(t, partner.orders, 1)
}

func TestSendConfirmedDepositsRequireSweptGate(t *testing.T) {
	ledger := newFakeLedger()
	seedSettleable(ledger, "0xaaa", false)

	partner := &fakePartner{resp: createdResponse()}
	sender := &Sender{Store: ledger, Partner: partner, RequireSwept: true}
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))
	require.Empty(t, partner.orders)

	sender.RequireSwept = false
	require.NoError(t, sender.SendConfirmedDeposits(context.Background()))
	require.Len(t, partner.orders, 1)

	require.Nil(t, partner.orders[0].SweepHash)
	require.True(t, ledger.deposit("0xaaa", chains.OpChainID).Settled)
}
