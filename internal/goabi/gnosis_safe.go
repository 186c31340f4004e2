package goabi

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Enum.Operation values of the Safe contracts.
const (
	SafeOperationCall         uint8 = 0
	SafeOperationDelegateCall uint8 = 1
)

const gnosisSafeABIJSON = `[
	{"inputs":[],"name":"nonce","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"uint8","name":"operation","type":"uint8"},{"internalType":"uint256","name":"safeTxGas","type":"uint256"},{"internalType":"uint256","name":"baseGas","type":"uint256"},{"internalType":"uint256","name":"gasPrice","type":"uint256"},{"internalType":"address","name":"gasToken","type":"address"},{"internalType":"address","name":"refundReceiver","type":"address"},{"internalType":"uint256","name":"_nonce","type":"uint256"}],"name":"getTransactionHash","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"bytes32","name":"hashToApprove","type":"bytes32"}],"name":"approveHash","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"bytes32","name":"hash","type":"bytes32"}],"name":"approvedHashes","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"data","type":"bytes"},{"internalType":"uint8","name":"operation","type":"uint8"},{"internalType":"uint256","name":"safeTxGas","type":"uint256"},{"internalType":"uint256","name":"baseGas","type":"uint256"},{"internalType":"uint256","name":"gasPrice","type":"uint256"},{"internalType":"address","name":"gasToken","type":"address"},{"internalType":"address","name":"refundReceiver","type":"address"},{"internalType":"bytes","name":"signatures","type":"bytes"}],"name":"execTransaction","outputs":[{"internalType":"bool","name":"success","type":"bool"}],"stateMutability":"payable","type":"function"}
]`

var gnosisSafeABI = mustParseABI(gnosisSafeABIJSON)

type GnosisSafe struct {
	contract *bind.BoundContract
}

func NewGnosisSafe(address common.Address, backend bind.ContractBackend) *GnosisSafe {
	return &GnosisSafe{contract: bind.NewBoundContract(address, gnosisSafeABI, backend, backend, backend)}
}

func (s *GnosisSafe) Nonce(opts *bind.CallOpts) (*big.Int, error) {
	var out []interface{}
	if err := s.contract.Call(opts, &out, "nonce"); err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// GetTransactionHash asks the Safe itself for the EIP-712 hash of a
// transaction, so the off-chain side never reimplements the domain
// separator.
func (s *GnosisSafe) GetTransactionHash(opts *bind.CallOpts, to common.Address, value *big.Int, data []byte, operation uint8, safeTxGas, baseGas, gasPrice *big.Int, gasToken, refundReceiver common.Address, nonce *big.Int) ([32]byte, error) {
	var out []interface{}
	err := s.contract.Call(opts, &out, "getTransactionHash",
		to, value, data, operation, safeTxGas, baseGas, gasPrice, gasToken, refundReceiver, nonce)
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

// HashApproved reports whether an owner has already approved a Safe tx hash
// on-chain. Re-approving is harmless; this only saves one transaction when
// a sweep retries after a phase-2 failure.
func (s *GnosisSafe) HashApproved(opts *bind.CallOpts, owner common.Address, hash [32]byte) (bool, error) {
	var out []interface{}
	if err := s.contract.Call(opts, &out, "approvedHashes", owner, hash); err != nil {
		return false, err
	}
	approved := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	return approved.Sign() > 0, nil
}

func PackApproveHash(hash [32]byte) ([]byte, error) {
	return gnosisSafeABI.Pack("approveHash", hash)
}

func PackExecTransaction(to common.Address, value *big.Int, data []byte, operation uint8, safeTxGas, baseGas, gasPrice *big.Int, gasToken, refundReceiver common.Address, signatures []byte) ([]byte, error) {
	return gnosisSafeABI.Pack("execTransaction",
		to, value, data, operation, safeTxGas, baseGas, gasPrice, gasToken, refundReceiver, signatures)
}
