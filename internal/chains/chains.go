package chains

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Chain ids are kept as decimal strings because that is how the ledger
// stores them and how the settlement partner expects them.
const (
	EthChainID  = "1"
	OpChainID   = "10"
	CeloChainID = "42220"
)

var SupportedChainIDs = []string{OpChainID, EthChainID, CeloChainID}

const (
	USDTEth = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	USDCEth = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	USDTOp = "0x94b008aa00579c1307b0ef2c499ad98a8ce58e58"
	USDCOp = "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"

	USDTCelo = "0x48065fBbE25F71C9282dDf5e1Cd6d6a887483d5E"
	USDCCelo = "0x765DE816845861e75A25fCA122bb6898B8B1282A"
)

// NumericID maps a supported chain id string to its EIP-155 chain id,
// used to verify the dialed RPC node is on the expected network.
func NumericID(chainID string) uint64 {
	switch chainID {
	case EthChainID:
		return 1
	case OpChainID:
		return 10
	case CeloChainID:
		return 42220
	default:
		panic(fmt.Sprintf("invalid chain id %q", chainID))
	}
}

// TokenWhitelist returns the stablecoin contracts watched on a chain.
// Deposits in any other token are invisible to the pipeline.
func TokenWhitelist(chainID string) []common.Address {
	switch chainID {
	case EthChainID:
		return []common.Address{common.HexToAddress(USDTEth), common.HexToAddress(USDCEth)}
	case OpChainID:
		return []common.Address{common.HexToAddress(USDTOp), common.HexToAddress(USDCOp)}
	case CeloChainID:
		return []common.Address{common.HexToAddress(USDTCelo), common.HexToAddress(USDCCelo)}
	default:
		panic(fmt.Sprintf("invalid chain id %q", chainID))
	}
}

// TokenDecimals returns the decimal precision of a whitelisted token.
// Every whitelisted stablecoin uses 6 decimals on the supported chains.
func TokenDecimals(erc20Address string) uint8 {
	return 6
}

// SafeDeployment holds the canonical Safe v1.3.0 contract addresses used
// when a per-customer proxy wallet is deployed. The reconciliation
// pipeline only reads these for completeness checks; deployment itself
// happens in the wallet service.
type SafeDeployment struct {
	ProxyFactory    common.Address
	Singleton       common.Address
	FallbackHandler common.Address
}

func SafeDeploymentFor(chainID string) SafeDeployment {
	switch chainID {
	case EthChainID, OpChainID, CeloChainID:
		return SafeDeployment{
			ProxyFactory:    common.HexToAddress("0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2"),
			Singleton:       common.HexToAddress("0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552"),
			FallbackHandler: common.HexToAddress("0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4"),
		}
	default:
		panic(fmt.Sprintf("invalid chain id %q", chainID))
	}
}

// RPCEnvKey is the environment variable holding the RPC endpoint of a chain.
func RPCEnvKey(chainID string) string {
	return "RPC_URL_" + chainID
}
