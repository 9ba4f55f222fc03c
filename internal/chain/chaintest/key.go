package chaintest

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
)

// Anvil's first dev account, only ever used against fakes.
const devKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func mustKey() *ecdsa.PrivateKey {
	key, err := crypto.HexToECDSA(devKeyHex)
	if err != nil {
		panic(err)
	}
	return key
}
