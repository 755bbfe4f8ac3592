package starknet

import (
	"fmt"
	"math/big"

	"golang.org/x/crypto/sha3"
)

// selectorMask truncates a keccak256 digest to 250 bits, which is how
// Starknet derives entrypoint selectors (sn_keccak).
var selectorMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// SelectorFromName returns the Starknet selector for an entrypoint name as a
// 0x-prefixed hex felt.
func SelectorFromName(name string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	digest := h.Sum(nil)

	n := new(big.Int).SetBytes(digest)
	n.And(n, selectorMask)

	return fmt.Sprintf("0x%s", n.Text(16))
}
