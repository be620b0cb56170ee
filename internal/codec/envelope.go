// Package codec implements fixed-header, length-delimited, signed envelope
// framing: a protocol message's wire representation is a header, a
// payload, and a detached signature over both, so the relay can
// authenticate a message without interpreting it.
package codec

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/thresholdwallet/mpc-core/internal/model"
)

// Version is the only envelope wire version this codec emits or accepts.
const Version uint8 = 1

// headerLen is version(1) + room_id(16) + sender(2) + recipient(2) +
// round(2) + seq(8) + payload_len(4), all big-endian.
const headerLen = 1 + 16 + 2 + 2 + 2 + 8 + 4

// Signer produces detached signatures over an envelope's header+payload
// using the long-term identity key; verification is done by Decode.
// internal/identity.Identity implements this.
type Signer interface {
	Sign(message []byte) []byte
}

// Encode serializes env's header and payload, signs them with signer, and
// returns the full wire frame (header || payload || signature).
func Encode(env model.Envelope, signer Signer) ([]byte, error) {
	header := encodeHeader(env)
	signable := append(append([]byte{}, header...), env.Payload...)
	sig := signer.Sign(signable)

	out := make([]byte, 0, len(signable)+len(sig))
	out = append(out, signable...)
	out = append(out, sig...)
	return out, nil
}

// Decode parses a wire frame produced by Encode and verifies its detached
// signature against pub. It returns an error on truncation, a bad
// signature length, or signature mismatch; when pub is nil the signature
// is not verified. The relay uses this to reject unauthenticated
// broadcasts before they are appended to a room's log.
func Decode(frame []byte, pub ed25519.PublicKey) (model.Envelope, error) {
	var env model.Envelope
	if len(frame) < headerLen {
		return env, fmt.Errorf("codec: frame too short: %d bytes", len(frame))
	}

	r := bytes.NewReader(frame)
	var version uint8
	_ = binary.Read(r, binary.BigEndian, &version)
	if version != Version {
		return env, fmt.Errorf("codec: unsupported envelope version %d", version)
	}
	env.Version = version

	if _, err := r.Read(env.RoomID[:]); err != nil {
		return env, fmt.Errorf("codec: short room id: %w", err)
	}
	_ = binary.Read(r, binary.BigEndian, &env.Sender)
	_ = binary.Read(r, binary.BigEndian, &env.Recipient)
	_ = binary.Read(r, binary.BigEndian, &env.Round)
	_ = binary.Read(r, binary.BigEndian, &env.Seq)

	var payloadLen uint32
	_ = binary.Read(r, binary.BigEndian, &payloadLen)

	remaining := frame[headerLen:]
	if uint32(len(remaining)) < payloadLen {
		return env, fmt.Errorf("codec: truncated payload: want %d, have %d", payloadLen, len(remaining))
	}
	env.Payload = append([]byte{}, remaining[:payloadLen]...)

	sig := remaining[payloadLen:]
	if len(sig) != ed25519.SignatureSize {
		return env, fmt.Errorf("codec: bad signature length %d", len(sig))
	}
	env.Signature = append([]byte{}, sig...)

	signable := frame[:headerLen+int(payloadLen)]
	if pub != nil && !ed25519.Verify(pub, signable, env.Signature) {
		return env, fmt.Errorf("codec: signature verification failed")
	}

	return env, nil
}

func encodeHeader(env model.Envelope) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(headerLen)
	_ = binary.Write(buf, binary.BigEndian, Version)
	buf.Write(env.RoomID[:])
	_ = binary.Write(buf, binary.BigEndian, env.Sender)
	_ = binary.Write(buf, binary.BigEndian, env.Recipient)
	_ = binary.Write(buf, binary.BigEndian, env.Round)
	_ = binary.Write(buf, binary.BigEndian, env.Seq)
	_ = binary.Write(buf, binary.BigEndian, uint32(len(env.Payload)))
	return buf.Bytes()
}
