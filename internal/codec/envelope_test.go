package codec

import (
	"crypto/ed25519"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thresholdwallet/mpc-core/internal/model"
)

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

func (s ed25519Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.priv, message)
}

func newKeyPair(t *testing.T) (ed25519.PublicKey, ed25519Signer) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return pub, ed25519Signer{priv: priv}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pub, signer := newKeyPair(t)

	roomID := uuid.New()
	env := model.Envelope{
		RoomID:    roomID,
		Sender:    2,
		Recipient: model.BroadcastRecipient,
		Round:     3,
		Seq:       42,
		Payload:   []byte("round-3 commitment"),
	}

	frame, err := Encode(env, signer)
	require.NoError(t, err)

	decoded, err := Decode(frame, pub)
	require.NoError(t, err)

	require.Equal(t, env.RoomID, decoded.RoomID)
	require.Equal(t, env.Sender, decoded.Sender)
	require.Equal(t, env.Recipient, decoded.Recipient)
	require.Equal(t, env.Round, decoded.Round)
	require.Equal(t, env.Seq, decoded.Seq)
	require.Equal(t, env.Payload, decoded.Payload)
	require.True(t, decoded.IsBroadcast())
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	pub, signer := newKeyPair(t)
	otherPub, _ := newKeyPair(t)

	env := model.Envelope{RoomID: uuid.New(), Payload: []byte("x")}
	frame, err := Encode(env, signer)
	require.NoError(t, err)

	_, err = Decode(frame, otherPub)
	require.Error(t, err)

	_, err = Decode(frame, pub)
	require.NoError(t, err)
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	_, signer := newKeyPair(t)
	env := model.Envelope{RoomID: uuid.New(), Payload: []byte("hello world")}
	frame, err := Encode(env, signer)
	require.NoError(t, err)

	_, err = Decode(frame[:len(frame)-20], nil)
	require.Error(t, err)
}
