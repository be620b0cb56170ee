package participant

import (
	"context"
	"crypto/ed25519"
	"errors"

	"github.com/thresholdwallet/mpc-core/internal/crypto"
	"github.com/thresholdwallet/mpc-core/internal/identity"
	"github.com/thresholdwallet/mpc-core/internal/model"
	"github.com/thresholdwallet/mpc-core/internal/relay"
	"github.com/thresholdwallet/mpc-core/internal/vault"
)

// Ceremony runs one DKG or Sign execution to completion on behalf of this
// participant: it owns the relay subscription and the terminal vault write,
// moving through
// `Init → Round(1) → … → Terminal({Success, Aborted, TimedOut})`.
type Ceremony struct {
	desc       model.Descriptor
	cap        crypto.Capability
	relayHTTP  *relay.Client
	sealVault  vault.Vault
	self       *identity.Identity
	peerKeys   map[uint16]ed25519.PublicKey
}

// NewCeremony constructs a Ceremony ready to Run. peerKeys must contain the
// identity public key of every member of desc.Quorum (and the coordinator,
// if it also signs envelopes), used to authenticate inbound messages.
func NewCeremony(desc model.Descriptor, cap crypto.Capability, relayHTTP *relay.Client, sealVault vault.Vault, self *identity.Identity, peerKeys map[uint16]ed25519.PublicKey) *Ceremony {
	return &Ceremony{
		desc:      desc,
		cap:       cap,
		relayHTTP: relayHTTP,
		sealVault: sealVault,
		self:      self,
		peerKeys:  peerKeys,
	}
}

// RunDKG executes the key-generation ceremony and returns the joint public
// key and the id of this participant's freshly sealed share. The share
// bytes returned by the Capability are zeroized here right after the
// seal attempt, whether or not it succeeded.
func (c *Ceremony) RunDKG(ctx context.Context) (*model.Outcome, error) {
	ctx, cancel := context.WithDeadline(ctx, c.desc.Deadline)
	defer cancel()

	transport, err := newRelayTransport(ctx, c.relayHTTP, c.desc.CeremonyID, c.desc.Index, c.self, c.peerKeys, c.self.PublicKey())
	if err != nil {
		return nil, &model.RelayFailureError{Cause: err}
	}
	defer transport.close()

	result, err := c.cap.RunDKG(ctx, c.desc.Index, c.desc.N, c.desc.Threshold, transport)
	if err != nil {
		return abortOutcome(err), nil
	}

	sealedID, sealErr := c.sealVault.Seal(c.desc.WalletID.String(), c.desc.Index, result.Share)
	zeroize(result.Share)
	if sealErr != nil {
		return nil, &model.VaultFailureError{Op: "seal", Cause: sealErr}
	}

	return &model.Outcome{
		Success:   true,
		PublicKey: result.PublicKey,
		SealedID:  sealedID,
	}, nil
}

// RunSign executes the signing ceremony over desc.Digest and returns a
// recoverable ECDSA signature once the underlying Capability's quorum
// converges.
func (c *Ceremony) RunSign(ctx context.Context, share []byte) (*model.Outcome, error) {
	ctx, cancel := context.WithDeadline(ctx, c.desc.Deadline)
	defer cancel()

	transport, err := newRelayTransport(ctx, c.relayHTTP, c.desc.CeremonyID, c.desc.Index, c.self, c.peerKeys, c.self.PublicKey())
	if err != nil {
		return nil, &model.RelayFailureError{Cause: err}
	}
	defer transport.close()

	result, err := c.cap.RunSign(ctx, c.desc.Index, c.desc.Quorum, share, c.desc.Digest, transport)
	if err != nil {
		return abortOutcome(err), nil
	}

	return &model.Outcome{
		Success: true,
		R:       result.R,
		S:       result.S,
		V:       result.V,
	}, nil
}

func abortOutcome(err error) *model.Outcome {
	reason := &model.AbortReason{}
	switch e := err.(type) {
	case *model.ProtocolAbortError:
		reason.InvalidProof = e.Blame
	case *model.RoundTimeoutError:
		round := e.Round
		reason.RoundTimeout = &round
	case *model.RelayFailureError:
		reason.RelayFailure = true
	case *model.CancelledError:
		reason.Cancelled = true
	default:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			round := uint16(0)
			reason.RoundTimeout = &round
		case errors.Is(err, context.Canceled):
			reason.Cancelled = true
		default:
			reason.RelayFailure = true
		}
	}
	return &model.Outcome{Success: false, Abort: reason}
}

// zeroize overwrites a secret buffer in place before it is dropped, so a
// share never outlives the call that seals it in memory.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
