package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thresholdwallet/mpc-core/internal/vault"
)

func newTestVault(t *testing.T) vault.Vault {
	t.Helper()
	v, err := vault.NewLocalVault(t.TempDir(), make([]byte, 32), time.Second)
	require.NoError(t, err)
	return v
}

func TestGenerateSealLoadRoundTrip(t *testing.T) {
	v := newTestVault(t)

	id, err := Generate()
	require.NoError(t, err)

	sealedID, err := id.Seal(v, "identity/participant-1")
	require.NoError(t, err)

	loaded, err := Load(v, sealedID)
	require.NoError(t, err)

	require.Equal(t, id.PublicKey(), loaded.PublicKey())

	msg := []byte("round message")
	require.True(t, len(id.Sign(msg)) > 0)
	require.Equal(t, id.Sign(msg), loaded.Sign(msg))
}

func TestCloseZeroizesPrivateKey(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	id.Close()
	for _, b := range id.priv {
		require.Equal(t, byte(0), b)
	}

	id.Close() // idempotent
}
