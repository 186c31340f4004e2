package gateway

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func transferLog(to common.Address, value *big.Int) types.Log {
	return types.Log{
		Address: common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
		Topics: []common.Hash{
			transferEventID,
			common.BytesToHash(common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		TxHash:      common.HexToHash("0xabc"),
		BlockNumber: 500,
	}
}

func TestParseTransferLog(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	transfer, ok := parseTransferLog(transferLog(to, big.NewInt(100_000_000)))
	require.True(t, ok)
	require.Equal(t, "0x2222222222222222222222222222222222222222", transfer.To)
	require.Equal(t, "0x0b2c639c533813f4aa9d7837caf62653d097ff85", transfer.Token)
	require.Equal(t, big.NewInt(100_000_000), transfer.Value)
	require.Equal(t, uint64(500), transfer.BlockNumber)
}

func TestParseTransferLogDropsZeroValue(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	_, ok := parseTransferLog(transferLog(to, big.NewInt(0)))
	require.False(t, ok)
}

func TestParseTransferLogDropsZeroRecipient(t *testing.T) {
	_, ok := parseTransferLog(transferLog(common.Address{}, big.NewInt(1)))
	require.False(t, ok)
}

func TestParseTransferLogDropsRemoved(t *testing.T) {
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	log := transferLog(to, big.NewInt(1))
	log.Removed = true
	_, ok := parseTransferLog(log)
	require.False(t, ok)
}

func TestParseTransferLogDropsNonTransferShape(t *testing.T) {
	log := transferLog(common.HexToAddress("0x22"), big.NewInt(1))
	log.Topics = log.Topics[:2]
	_, ok := parseTransferLog(log)
	require.False(t, ok)
}
