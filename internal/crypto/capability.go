// Package crypto hides the concrete threshold-ECDSA engine behind a small
// capability interface:
// the orchestration layer (internal/participant) only ever sees RunDKG and
// RunSign, never tss-lib's tss.Party/tss.Message types directly. Swapping in
// a different t-of-n ECDSA implementation (e.g. a literal CGGMP21 package)
// means writing a new Capability, not touching the ceremony state machine.
package crypto

import "context"

// OutboundMessage is one round message a local party produced, destined for
// its peers via the relay: to every peer when Broadcast is set, otherwise
// to each index in To.
type OutboundMessage struct {
	Round     uint16
	Broadcast bool
	To        []uint16
	Payload   []byte
}

// InboundMessage is one round message received from a peer via the relay,
// already validated and routed to the right ceremony by the participant's
// inbox.
type InboundMessage struct {
	From    uint16
	Round   uint16
	Payload []byte
}

// RoundTransport is how a Capability session exchanges round messages
// without knowing anything about the relay's HTTP/SSE surface.
type RoundTransport interface {
	Outbound(ctx context.Context, msg OutboundMessage) error
	Inbound(ctx context.Context) (InboundMessage, error)
}

// DKGResult is the terminal output of a successful distributed key
// generation: a joint public key and this participant's
// share of the secret, serialized and ready for the vault.
type DKGResult struct {
	PublicKey []byte
	Share     []byte
}

// SignResult is the terminal output of a successful signing ceremony: a
// standard ECDSA signature over the digest that was signed.
type SignResult struct {
	R, S []byte
	V    uint32
}

// Capability is the crypto engine's externally observable contract:
// DKG produces (Q, x_i); signing on a digest by a quorum
// produces (r, s) verifying under Q; any cheating yields an identified
// blame index surfaced as a model.ProtocolAbortError by the implementation.
type Capability interface {
	RunDKG(ctx context.Context, index uint16, n, t int, transport RoundTransport) (*DKGResult, error)
	RunSign(ctx context.Context, index uint16, quorum []uint16, share []byte, digest [32]byte, transport RoundTransport) (*SignResult, error)
}
