package coordinator

import (
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/bnb-chain/tss-lib/v2/tss"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddressProducesHexAddress(t *testing.T) {
	curve := tss.S256()
	priv, x, y, err := elliptic.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)
	_ = priv

	compressed := elliptic.MarshalCompressed(curve, x, y)
	address, err := deriveAddress(compressed)
	require.NoError(t, err)
	require.True(t, len(address) == 42 && address[:2] == "0x")
}

func TestDeriveAddressRejectsInvalidKey(t *testing.T) {
	_, err := deriveAddress([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}
