// Package coordinator drives ceremonies end-to-end: it fans out
// StartDkg/StartSign RPCs directly to the selected quorum (whose members
// then exchange protocol rounds over the relay), and
// aggregates the terminal outcome into a catalog record or a verified
// signature.
package coordinator

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/thresholdwallet/mpc-core/internal/config"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/model"
)

// walletCatalog is the narrow persistence surface the Coordinator needs:
// *storage.Catalog implements it against postgres; tests substitute an
// in-memory fake.
type walletCatalog interface {
	SaveWallet(ctx context.Context, wallet model.Wallet) error
	GetWallet(ctx context.Context, walletID uuid.UUID) (*model.Wallet, error)
	DeleteWallet(ctx context.Context, walletID uuid.UUID) error
}

// Coordinator owns the participant roster and drives ceremonies against it
// via explicit unary RPC fan-out rather than a peer-elected coordinator.
type Coordinator struct {
	participants []config.ParticipantRef
	threshold    int
	relayBaseURL string
	peerKeys     map[uint16][]byte // ed25519 identity keys, by index
	catalog      walletCatalog
	deadline     time.Duration

	clientFor func(addr string) *ParticipantClient
}

// New constructs a Coordinator from the process configuration.
func New(cfg *config.Config, catalog walletCatalog) *Coordinator {
	peerKeys := make(map[uint16][]byte, len(cfg.Participants))
	return &Coordinator{
		participants: cfg.Participants,
		threshold:    cfg.Threshold,
		relayBaseURL: cfg.Relay.Endpoint,
		peerKeys:     peerKeys,
		catalog:      catalog,
		deadline:     cfg.CeremonyDeadline,
		clientFor:    func(addr string) *ParticipantClient { return NewParticipantClient(addr, nil) },
	}
}

// RegisterPeerKey records a participant's long-term identity public key,
// learned out-of-band at provisioning time.
func (co *Coordinator) RegisterPeerKey(index uint16, pub []byte) {
	co.peerKeys[index] = pub
}

// CreateWallet runs a full DKG ceremony across every configured participant:
// the quorum size equals n for DKG.
func (co *Coordinator) CreateWallet(ctx context.Context) (*model.Wallet, error) {
	ceremonyID := uuid.New()
	n := len(co.participants)
	quorum := make([]uint16, 0, n)
	for _, p := range co.participants {
		quorum = append(quorum, p.Index)
	}

	roomEndpoint := co.relayBaseURL
	deadline := time.Now().Add(co.deadline)

	walletID := uuid.UUID(ceremonyID) // wallet id == ceremony id; a wallet's rooms are scoped to the ceremony that created it

	outcomes, err := co.fanOut(ctx, quorum, func(gctx context.Context, p config.ParticipantRef) (*model.Outcome, error) {
		client := co.clientFor(p.Addr)
		return client.StartDkg(gctx, ceremonyID, walletID, p.Index, quorum, n, co.threshold, roomEndpoint, deadline, co.peerKeys)
	})
	if err != nil {
		co.cancelDkg(context.Background(), walletID, quorum)
		return nil, err
	}

	var jointKey []byte
	for idx, outcome := range outcomes {
		if !outcome.Success {
			co.cancelDkg(context.Background(), walletID, quorum)
			return nil, &model.ProtocolAbortError{Reason: fmt.Sprintf("participant %d aborted dkg", idx)}
		}
		if jointKey == nil {
			jointKey = outcome.PublicKey
		} else if !bytes.Equal(jointKey, outcome.PublicKey) {
			// every participant must return the same joint public key.
			co.cancelDkg(context.Background(), walletID, quorum)
			return nil, errors.New("coordinator: participants disagree on joint public key")
		}
	}

	address, err := deriveAddress(jointKey)
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: derive address")
	}

	wallet := model.NewWallet(walletID, co.threshold, n, jointKey, address)
	if err := co.catalog.SaveWallet(ctx, wallet); err != nil {
		return nil, errors.Wrap(err, "coordinator: persist wallet")
	}

	logger.Log.Infof("coordinator: wallet %s created, address %s", wallet.ID, wallet.Address)
	return &wallet, nil
}

// Sign runs a signing ceremony for digest over walletID. elevate opts the
// cold-storage participant into the quorum (see DESIGN.md's Open Question
// decision).
func (co *Coordinator) Sign(ctx context.Context, walletID uuid.UUID, digest [32]byte, elevate bool) (*model.Outcome, error) {
	wallet, err := co.catalog.GetWallet(ctx, walletID)
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: load wallet")
	}

	quorum := co.selectQuorum(elevate)
	if len(quorum) < wallet.Threshold {
		return nil, &model.InvalidInputError{Reason: "not enough live participants to meet threshold"}
	}

	ceremonyID := uuid.New()
	roomEndpoint := co.relayBaseURL
	deadline := time.Now().Add(co.deadline)

	outcomes, err := co.fanOut(ctx, quorum, func(gctx context.Context, p config.ParticipantRef) (*model.Outcome, error) {
		client := co.clientFor(p.Addr)
		return client.StartSign(gctx, ceremonyID, walletID, p.Index, quorum, digest, roomEndpoint, deadline, co.peerKeys)
	})
	if err != nil {
		return nil, err
	}

	var winner *model.Outcome
	for _, outcome := range outcomes {
		if outcome.Success {
			winner = outcome
			break
		}
	}
	if winner == nil {
		return &model.Outcome{Success: false, Abort: firstAbort(outcomes)}, nil
	}

	if err := verifySignature(wallet.Q, digest, winner.R, winner.S); err != nil {
		// mismatch against the wallet's joint public key is a hard abort.
		return nil, errors.Wrap(err, "coordinator: signature failed verification against wallet public key")
	}

	return winner, nil
}

// RetireWallet asks every configured participant to destroy its sealed
// share for walletID and removes the catalog record.
// Best-effort: a participant that cannot be reached is logged and skipped
// rather than failing the whole retirement, since DeleteShare is idempotent
// and can be retried independently.
func (co *Coordinator) RetireWallet(ctx context.Context, walletID uuid.UUID) {
	all := make([]uint16, 0, len(co.participants))
	for _, p := range co.participants {
		all = append(all, p.Index)
	}
	co.cancelDkg(ctx, walletID, all)

	if err := co.catalog.DeleteWallet(ctx, walletID); err != nil {
		logger.Log.Warnf("coordinator: delete catalog record for wallet %s failed: %v", walletID, err)
	}
}

// selectQuorum picks the first t configured participants, excluding cold
// storage unless elevate is set. It does not probe whether they are live.
func (co *Coordinator) selectQuorum(elevate bool) []uint16 {
	quorum := make([]uint16, 0, co.threshold)
	for _, p := range co.participants {
		if p.ColdStorage && !elevate {
			continue
		}
		quorum = append(quorum, p.Index)
		if len(quorum) == co.threshold {
			break
		}
	}
	return quorum
}

// fanOut dispatches fn to every participant in quorum concurrently, with
// parallelism equal to len(quorum), and collects each result into a map
// keyed by participant index.
func (co *Coordinator) fanOut(ctx context.Context, quorum []uint16, fn func(context.Context, config.ParticipantRef) (*model.Outcome, error)) (map[uint16]*model.Outcome, error) {
	group, gctx := errgroup.WithContext(ctx)
	results := make(map[uint16]*model.Outcome, len(quorum))
	var mu sync.Mutex

	for _, idx := range quorum {
		p, ok := co.lookup(idx)
		if !ok {
			return nil, &model.InvalidInputError{Reason: fmt.Sprintf("unknown participant index %d", idx)}
		}
		group.Go(func() error {
			outcome, err := fn(gctx, p)
			if err != nil {
				return err
			}
			mu.Lock()
			results[p.Index] = outcome
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "coordinator: ceremony fan-out")
	}
	return results, nil
}

func (co *Coordinator) lookup(index uint16) (config.ParticipantRef, bool) {
	for _, p := range co.participants {
		if p.Index == index {
			return p, true
		}
	}
	return config.ParticipantRef{}, false
}

// cancelDkg best-effort asks every quorum member to delete any partial
// sealed material after a failed DKG. Errors are logged, not surfaced:
// cleanup is advisory once the ceremony has already failed.
func (co *Coordinator) cancelDkg(ctx context.Context, walletID uuid.UUID, quorum []uint16) {
	for _, idx := range quorum {
		p, ok := co.lookup(idx)
		if !ok {
			continue
		}
		client := co.clientFor(p.Addr)
		if err := client.DeleteShare(ctx, walletID); err != nil {
			logger.Log.Warnf("coordinator: cleanup delete_share on participant %d failed: %v", idx, err)
		}
	}
}

func firstAbort(outcomes map[uint16]*model.Outcome) *model.AbortReason {
	for _, o := range outcomes {
		if !o.Success && o.Abort != nil {
			return o.Abort
		}
	}
	return &model.AbortReason{RelayFailure: true}
}

// verifySignature checks (r, s) against compressed public key q and digest.
func verifySignature(q []byte, digest [32]byte, r, s []byte) error {
	key, err := btcec.ParsePubKey(q)
	if err != nil {
		return fmt.Errorf("invalid compressed public key: %w", err)
	}
	pub := key.ToECDSA()

	if !ecdsa.Verify(pub, digest[:], new(big.Int).SetBytes(r), new(big.Int).SetBytes(s)) {
		return fmt.Errorf("signature does not verify against wallet public key")
	}
	return nil
}
