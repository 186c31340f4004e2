package safeops

import "github.com/ethereum/go-ethereum/common"

// PrevalidatedSignature builds the 65-byte Safe signature blob meaning
// "this owner approved the hash on-chain": r is the owner address
// left-padded to 32 bytes, s is zero, v is 1. For an EOA owner the Safe
// also accepts it when that owner is msg.sender.
func PrevalidatedSignature(owner common.Address) []byte {
	sig := make([]byte, 65)
	copy(sig[12:32], owner.Bytes())
	sig[64] = 1
	return sig
}
