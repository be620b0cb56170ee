package model

// BroadcastRecipient marks an envelope as addressed to every room member.
const BroadcastRecipient uint16 = 0

// Envelope is the authenticated wire unit of a protocol message, encoded
// and signed by internal/codec.
//
// RoomID is fixed at 16 bytes (a CeremonyId), Sender/Recipient/Round are
// u16, Seq is u64, and Payload is opaque to the relay. Signature is a
// detached ed25519 signature over the encoded header+payload, computed by
// the sender's long-term identity key.
type Envelope struct {
	Version   uint8
	RoomID    [16]byte
	Sender    uint16
	Recipient uint16 // BroadcastRecipient (0) means broadcast
	Round     uint16
	Seq       uint64
	Payload   []byte
	Signature []byte
}

// IsBroadcast reports whether the envelope targets every room member.
func (e Envelope) IsBroadcast() bool {
	return e.Recipient == BroadcastRecipient
}

// Addresses reports whether the envelope is addressed to idx, either
// directly or via broadcast.
func (e Envelope) Addresses(idx uint16) bool {
	return e.IsBroadcast() || e.Recipient == idx
}
