package vault

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *LocalVault {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	v, err := NewLocalVault(t.TempDir(), key, time.Second)
	require.NoError(t, err)
	return v
}

func TestSealOpenRoundTrip(t *testing.T) {
	v := newTestVault(t)

	sealedID, err := v.Seal("wallet-1", 2, []byte("super secret scalar"))
	require.NoError(t, err)
	require.Equal(t, "wallet/wallet-1/share/2", sealedID)

	plaintext, err := v.Open(sealedID)
	require.NoError(t, err)
	require.Equal(t, []byte("super secret scalar"), plaintext)
}

func TestOpenDetectsTamper(t *testing.T) {
	v := newTestVault(t)

	sealedID, err := v.Seal("wallet-1", 1, []byte("share bytes"))
	require.NoError(t, err)

	// Corrupt the sealed blob on disk.
	path := v.pathFor(sealedID)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = v.Open(sealedID)
	require.Error(t, err)
}

func TestDestroyIsIdempotent(t *testing.T) {
	v := newTestVault(t)

	sealedID, err := v.Seal("wallet-2", 0, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, v.Destroy(sealedID))
	require.NoError(t, v.Destroy(sealedID)) // second call: no error

	_, err = v.Open(sealedID)
	require.Error(t, err)
}
