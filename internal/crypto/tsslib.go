package crypto

import (
	"context"
	"crypto/elliptic"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/bnb-chain/tss-lib/v2/common"
	"github.com/bnb-chain/tss-lib/v2/ecdsa/keygen"
	"github.com/bnb-chain/tss-lib/v2/ecdsa/signing"
	"github.com/bnb-chain/tss-lib/v2/tss"

	"github.com/thresholdwallet/mpc-core/internal/model"
)

// TSSCapability drives github.com/bnb-chain/tss-lib/v2's ECDSA keygen and
// signing LocalParty state machines, one LocalParty per participant process,
// relayed through a RoundTransport rather than simulated in a single process.
// It stands in for a literal CGGMP21 implementation (see DESIGN.md); the
// round/envelope mapping and identifiable-abort contract are the same.
type TSSCapability struct{}

// NewTSSCapability constructs the default Capability implementation.
func NewTSSCapability() *TSSCapability { return &TSSCapability{} }

func partyIDs(n int) tss.UnSortedPartyIDs {
	return partyIDsForKeys(sequentialKeys(n))
}

func sequentialKeys(n int) []uint16 {
	keys := make([]uint16, n)
	for i := range keys {
		keys[i] = uint16(i + 1)
	}
	return keys
}

// partyIDsForKeys builds a PartyID per key, keeping the key itself (not its
// position in the slice) as the PartyID's tss.Key. keygen save data is
// positional to the original n-wide keygen sort order, so a signing quorum
// that is not the literal prefix {1..t} must carry its members' real
// keygen-time keys into tss.NewParameters — not a freshly renumbered 1..len(quorum).
func partyIDsForKeys(keys []uint16) tss.UnSortedPartyIDs {
	ids := make(tss.UnSortedPartyIDs, len(keys))
	for i, k := range keys {
		ids[i] = tss.NewPartyID(fmt.Sprintf("%d", k), fmt.Sprintf("participant-%d", k), big.NewInt(int64(k)))
	}
	return ids
}

func (c *TSSCapability) RunDKG(ctx context.Context, index uint16, n, t int, transport RoundTransport) (*DKGResult, error) {
	sorted := tss.SortPartyIDs(partyIDs(n))
	var self *tss.PartyID
	for _, p := range sorted {
		if p.KeyInt().Int64() == int64(index) {
			self = p
		}
	}
	if self == nil {
		return nil, &model.InvalidInputError{Reason: fmt.Sprintf("index %d not in 1..%d", index, n)}
	}

	// tss-lib's threshold is the polynomial degree (threshold+1 parties
	// sign), so a t-of-n wallet is generated with threshold t-1, matching
	// RunSign's len(quorum)-1.
	params := tss.NewParameters(tss.S256(), tss.NewPeerContext(sorted), self, n, t-1)
	outCh := make(chan tss.Message, n)
	endCh := make(chan *keygen.LocalPartySaveData, 1)

	party := keygen.NewLocalParty(params, outCh, endCh)

	errCh := make(chan *tss.Error, 1)
	go func() {
		if err := party.Start(); err != nil {
			errCh <- err
		}
	}()

	save, err := pumpRounds(ctx, party, outCh, endCh, errCh, transport, sorted)
	if err != nil {
		return nil, err
	}

	shareBytes, err := json.Marshal(save)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal keygen save data: %w", err)
	}

	pub := save.ECDSAPub
	pubBytes := elliptic.MarshalCompressed(tss.S256(), pub.X(), pub.Y())

	return &DKGResult{PublicKey: pubBytes, Share: shareBytes}, nil
}

func (c *TSSCapability) RunSign(ctx context.Context, index uint16, quorum []uint16, shareBytes []byte, digest [32]byte, transport RoundTransport) (*SignResult, error) {
	var save keygen.LocalPartySaveData
	if err := json.Unmarshal(shareBytes, &save); err != nil {
		return nil, fmt.Errorf("crypto: unmarshal share: %w", err)
	}

	n := len(quorum)
	sorted := tss.SortPartyIDs(partyIDsForKeys(quorum))

	var self *tss.PartyID
	for _, p := range sorted {
		if uint16(p.KeyInt().Int64()) == index {
			self = p
		}
	}
	if self == nil {
		return nil, &model.InvalidInputError{Reason: "signing index not in quorum"}
	}

	params := tss.NewParameters(tss.S256(), tss.NewPeerContext(sorted), self, n, n-1)
	outCh := make(chan tss.Message, n*n)
	endCh := make(chan *common.SignatureData, 1)

	// save is positional to the full n-wide keygen sort order; subset it down
	// to this quorum's real keys before handing it to the signing party.
	subset := keygen.BuildLocalSaveDataSubset(save, sorted)

	msgToSign := new(big.Int).SetBytes(digest[:])
	party := signing.NewLocalParty(msgToSign, params, subset, outCh, endCh)

	errCh := make(chan *tss.Error, 1)
	go func() {
		if err := party.Start(); err != nil {
			errCh <- err
		}
	}()

	sig, err := pumpSignRounds(ctx, party, outCh, endCh, errCh, transport, sorted)
	if err != nil {
		return nil, err
	}

	return &SignResult{R: sig.R, S: sig.S, V: uint32(sig.SignatureRecovery[0])}, nil
}

// pumpRounds drives a keygen party to completion, translating its outbound
// tss.Message channel into RoundTransport.Outbound calls and feeding inbound
// RoundTransport messages back into the party via Update.
func pumpRounds(ctx context.Context, party tss.Party, outCh chan tss.Message, endCh chan *keygen.LocalPartySaveData, errCh chan *tss.Error, transport RoundTransport, sorted tss.SortedPartyIDs) (*keygen.LocalPartySaveData, error) {
	inboundDone := make(chan struct{})
	go feedInbound(ctx, party, transport, sorted, inboundDone)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case tssErr := <-errCh:
			return nil, translateTSSError(tssErr)
		case msg := <-outCh:
			if err := relayOutbound(ctx, msg, transport, sorted); err != nil {
				return nil, err
			}
		case save := <-endCh:
			return save, nil
		}
	}
}

func pumpSignRounds(ctx context.Context, party tss.Party, outCh chan tss.Message, endCh chan *common.SignatureData, errCh chan *tss.Error, transport RoundTransport, sorted tss.SortedPartyIDs) (*common.SignatureData, error) {
	inboundDone := make(chan struct{})
	go feedInbound(ctx, party, transport, sorted, inboundDone)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case tssErr := <-errCh:
			return nil, translateTSSError(tssErr)
		case msg := <-outCh:
			if err := relayOutbound(ctx, msg, transport, sorted); err != nil {
				return nil, err
			}
		case sig := <-endCh:
			return sig, nil
		}
	}
}

func relayOutbound(ctx context.Context, msg tss.Message, transport RoundTransport, sorted tss.SortedPartyIDs) error {
	bz, _, err := msg.WireBytes()
	if err != nil {
		return fmt.Errorf("crypto: wire bytes: %w", err)
	}
	round := roundNumber(msg)
	out := OutboundMessage{Round: round, Payload: bz}
	if msg.IsBroadcast() {
		out.Broadcast = true
	} else {
		for _, pID := range msg.GetTo() {
			out.To = append(out.To, uint16(pID.KeyInt().Int64()))
		}
	}
	return transport.Outbound(ctx, out)
}

func feedInbound(ctx context.Context, party tss.Party, transport RoundTransport, sorted tss.SortedPartyIDs, done chan<- struct{}) {
	defer close(done)
	for {
		in, err := transport.Inbound(ctx)
		if err != nil {
			return
		}
		from := partyIDByKey(sorted, in.From)
		if from == nil {
			continue
		}
		parsed, err := tss.ParseWireMessage(in.Payload, from, false)
		if err != nil {
			continue
		}
		if _, err := party.Update(parsed); err != nil {
			return
		}
	}
}

func partyIDByKey(sorted tss.SortedPartyIDs, key uint16) *tss.PartyID {
	for _, p := range sorted {
		if uint16(p.KeyInt().Int64()) == key {
			return p
		}
	}
	return nil
}

// roundNumber always returns 0: tss-lib's Message does not expose a round
// number directly, so every envelope is tagged round 0 and round ordering
// is left to tss-lib's own LocalParty.Update.
func roundNumber(msg tss.Message) uint16 {
	return 0
}

func translateTSSError(err *tss.Error) error {
	culprits := err.Culprits()
	if len(culprits) > 0 {
		idx := uint16(culprits[0].KeyInt().Int64())
		return &model.ProtocolAbortError{Blame: &idx, Reason: err.Error()}
	}
	return &model.ProtocolAbortError{Reason: err.Error()}
}
