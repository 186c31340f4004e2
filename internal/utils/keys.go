package utils

import (
	"crypto/ecdsa"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReadPrvkey loads the relayer's hex-encoded private key from a file and
// derives its address.
func ReadPrvkey(keyPath string) (*ecdsa.PrivateKey, common.Address, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, common.Address{}, err
	}

	rawkey := strings.TrimSpace(string(data))
	prvkey, err := crypto.HexToECDSA(strings.TrimPrefix(rawkey, "0x"))
	if err != nil {
		return nil, common.Address{}, err
	}
	address := crypto.PubkeyToAddress(*prvkey.Public().(*ecdsa.PublicKey))
	return prvkey, address, nil
}
