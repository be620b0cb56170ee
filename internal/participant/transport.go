package participant

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/thresholdwallet/mpc-core/internal/codec"
	"github.com/thresholdwallet/mpc-core/internal/crypto"
	"github.com/thresholdwallet/mpc-core/internal/model"
	"github.com/thresholdwallet/mpc-core/internal/relay"
)

// relayTransport bridges a Capability's RoundTransport contract onto a
// relay room: Outbound encodes and broadcasts one signed envelope per
// recipient (or a single broadcast envelope), Inbound drains a background
// subscription pump through an inbox keyed by (round, sender).
type relayTransport struct {
	client   *relay.Client
	roomID   uuid.UUID
	self     uint16
	signer   codec.Signer
	peers    map[uint16]ed25519.PublicKey
	seq      uint64
	in       *inbox
	cancel   context.CancelFunc
	pumpDone chan struct{}
}

// newRelayTransport subscribes to roomID from seq 0 and starts the
// background pump that decodes, authenticates, and routes envelopes into
// the inbox. peers maps every quorum member's index to its long-term
// identity key, used to verify envelope signatures before delivery.
func newRelayTransport(ctx context.Context, client *relay.Client, roomID uuid.UUID, self uint16, signer codec.Signer, peers map[uint16]ed25519.PublicKey, selfPub ed25519.PublicKey) (*relayTransport, error) {
	// The relay registers the caller's long-term identity key under its
	// coordinator-assigned index; the key itself is the "identity proof"
	// since the relay only ever uses it to verify envelope signatures,
	// never to authenticate the registration call.
	if _, err := client.IssueIndex(ctx, roomID.String(), []byte(selfPub), len(peers)+1, self); err != nil {
		return nil, errors.Wrap(err, "participant: register identity with relay")
	}

	pumpCtx, cancel := context.WithCancel(ctx)

	events, err := client.Subscribe(pumpCtx, roomID.String(), 0)
	if err != nil {
		cancel()
		return nil, errors.Wrap(err, "participant: subscribe to room")
	}

	t := &relayTransport{
		client:   client,
		roomID:   roomID,
		self:     self,
		signer:   signer,
		peers:    peers,
		in:       newInbox(),
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}

	go t.pump(pumpCtx, events)
	return t, nil
}

func (t *relayTransport) pump(ctx context.Context, events <-chan relay.Event) {
	defer close(t.pumpDone)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Lagged {
				t.in.close()
				return
			}
			env, err := codec.Decode(ev.Frame, nil)
			if err != nil {
				continue
			}
			if env.Sender == t.self {
				continue // drop our own broadcasts echoed back by the relay
			}
			if !env.Addresses(t.self) {
				continue
			}
			pub, known := t.peers[env.Sender]
			if !known {
				continue
			}
			if _, err := codec.Decode(ev.Frame, pub); err != nil {
				continue // signature did not verify; re-check here even though the relay already rejects unsigned frames
			}
			t.in.deliver(env.Round, env.Sender, env.Payload)
		}
	}
}

func (t *relayTransport) Outbound(ctx context.Context, msg crypto.OutboundMessage) error {
	recipients := []uint16{model.BroadcastRecipient}
	if !msg.Broadcast {
		recipients = msg.To
	}

	for _, to := range recipients {
		env := model.Envelope{
			Version:   codec.Version,
			RoomID:    t.roomUUIDBytes(),
			Sender:    t.self,
			Recipient: to,
			Round:     msg.Round,
			Seq:       t.nextSeq(),
			Payload:   msg.Payload,
		}
		frame, err := codec.Encode(env, t.signer)
		if err != nil {
			return fmt.Errorf("participant: encode envelope: %w", err)
		}
		if _, err := t.client.Broadcast(ctx, t.roomID.String(), frame); err != nil {
			return &model.RelayFailureError{Cause: err}
		}
	}
	return nil
}

func (t *relayTransport) Inbound(ctx context.Context) (crypto.InboundMessage, error) {
	from, payload, err := t.in.next(ctx)
	if err != nil {
		return crypto.InboundMessage{}, err
	}
	return crypto.InboundMessage{From: from, Payload: payload}, nil
}

func (t *relayTransport) nextSeq() uint64 {
	t.seq++
	return t.seq
}

func (t *relayTransport) roomUUIDBytes() [16]byte {
	var b [16]byte
	copy(b[:], t.roomID[:])
	return b
}

// close stops the background subscription pump. Safe to call more than
// once; subsequent calls are no-ops.
func (t *relayTransport) close() {
	t.cancel()
	<-t.pumpDone
}
