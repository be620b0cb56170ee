package coordinator

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/sha3"
)

// deriveAddress computes the Ethereum-style address of a wallet's aggregated
// public key: Keccak-256 of the uncompressed point's X||Y, last 20 bytes,
// 0x-prefixed.
func deriveAddress(compressedQ []byte) (string, error) {
	pub, err := btcec.ParsePubKey(compressedQ)
	if err != nil {
		return "", fmt.Errorf("coordinator: parse public key: %w", err)
	}
	uncompressed := pub.SerializeUncompressed() // 0x04 || X(32) || Y(32)

	hash := sha3.NewLegacyKeccak256()
	hash.Write(uncompressed[1:])
	sum := hash.Sum(nil)

	return "0x" + hex.EncodeToString(sum[len(sum)-20:]), nil
}
