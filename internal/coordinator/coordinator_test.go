package coordinator

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/bnb-chain/tss-lib/v2/tss"
	"github.com/stretchr/testify/require"

	"github.com/thresholdwallet/mpc-core/internal/config"
)

func TestSelectQuorumExcludesColdStorageByDefault(t *testing.T) {
	co := &Coordinator{
		threshold: 2,
		participants: []config.ParticipantRef{
			{Index: 1, Addr: "p1"},
			{Index: 2, Addr: "p2"},
			{Index: 3, Addr: "p3", ColdStorage: true},
		},
	}

	quorum := co.selectQuorum(false)
	require.ElementsMatch(t, []uint16{1, 2}, quorum)
}

func TestSelectQuorumIncludesColdStorageWhenElevated(t *testing.T) {
	co := &Coordinator{
		threshold: 2,
		participants: []config.ParticipantRef{
			{Index: 1, Addr: "p1", ColdStorage: true},
			{Index: 2, Addr: "p2"},
		},
	}

	quorum := co.selectQuorum(true)
	require.ElementsMatch(t, []uint16{1, 2}, quorum)
}

func TestVerifySignatureAcceptsValidSignature(t *testing.T) {
	curve := tss.S256()
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("hello"))
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	compressed := elliptic.MarshalCompressed(curve, priv.X, priv.Y)
	err = verifySignature(compressed, digest, r.Bytes(), s.Bytes())
	require.NoError(t, err)
}

func TestVerifySignatureRejectsWrongDigest(t *testing.T) {
	curve := tss.S256()
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("hello"))
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	require.NoError(t, err)

	wrongDigest := sha256.Sum256([]byte("goodbye"))
	compressed := elliptic.MarshalCompressed(curve, priv.X, priv.Y)
	err = verifySignature(compressed, wrongDigest, r.Bytes(), s.Bytes())
	require.Error(t, err)
}
