package coordinator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/thresholdwallet/mpc-core/internal/model"
)

// ParticipantClient is the coordinator-side HTTP client for a single
// participant's RPC surface: explicit unary JSON calls in place of a raw
// TCP frame exchange.
type ParticipantClient struct {
	baseURL string
	http    *http.Client
}

// NewParticipantClient constructs a client pointed at a participant node's
// base URL (e.g. "http://participant-1.internal:8091").
func NewParticipantClient(baseURL string, httpClient *http.Client) *ParticipantClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &ParticipantClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type peerKeyWire struct {
	Index uint16 `json:"index"`
	Key   []byte `json:"key"`
}

// StartDkg dispatches a start_dkg RPC and blocks until the participant
// returns a terminal model.Outcome.
func (c *ParticipantClient) StartDkg(ctx context.Context, ceremonyID, walletID uuid.UUID, index uint16, quorum []uint16, n, t int, roomEndpoint string, deadline time.Time, peerKeys map[uint16][]byte) (*model.Outcome, error) {
	body := struct {
		CeremonyID   uuid.UUID     `json:"ceremony_id"`
		WalletID     uuid.UUID     `json:"wallet_id"`
		Index        uint16        `json:"index"`
		Quorum       []uint16      `json:"quorum"`
		N            int           `json:"n"`
		Threshold    int           `json:"threshold"`
		RoomEndpoint string        `json:"room_endpoint"`
		Deadline     time.Time     `json:"deadline"`
		PeerKeys     []peerKeyWire `json:"peer_keys"`
	}{
		CeremonyID:   ceremonyID,
		WalletID:     walletID,
		Index:        index,
		Quorum:       quorum,
		N:            n,
		Threshold:    t,
		RoomEndpoint: roomEndpoint,
		Deadline:     deadline,
		PeerKeys:     wirePeerKeys(peerKeys),
	}
	return c.postOutcome(ctx, "/ceremonies/dkg", body)
}

// StartSign dispatches a start_sign RPC and blocks until the participant
// returns a terminal model.Outcome.
func (c *ParticipantClient) StartSign(ctx context.Context, ceremonyID, walletID uuid.UUID, index uint16, quorum []uint16, digest [32]byte, roomEndpoint string, deadline time.Time, peerKeys map[uint16][]byte) (*model.Outcome, error) {
	body := struct {
		CeremonyID   uuid.UUID     `json:"ceremony_id"`
		WalletID     uuid.UUID     `json:"wallet_id"`
		Index        uint16        `json:"index"`
		Quorum       []uint16      `json:"quorum"`
		Digest       [32]byte      `json:"digest"`
		RoomEndpoint string        `json:"room_endpoint"`
		Deadline     time.Time     `json:"deadline"`
		PeerKeys     []peerKeyWire `json:"peer_keys"`
	}{
		CeremonyID:   ceremonyID,
		WalletID:     walletID,
		Index:        index,
		Quorum:       quorum,
		Digest:       digest,
		RoomEndpoint: roomEndpoint,
		Deadline:     deadline,
		PeerKeys:     wirePeerKeys(peerKeys),
	}
	return c.postOutcome(ctx, "/ceremonies/sign", body)
}

// DeleteShare asks the participant to destroy its sealed share for
// walletID. Idempotent.
func (c *ParticipantClient) DeleteShare(ctx context.Context, walletID uuid.UUID) error {
	url := fmt.Sprintf("%s/wallets/%s/share", c.baseURL, walletID.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return errors.Wrap(err, "coordinator: build delete_share request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "coordinator: delete_share")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("coordinator: delete_share: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *ParticipantClient) postOutcome(ctx context.Context, path string, body any) (*model.Outcome, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: marshal request")
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coordinator: rpc")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("coordinator: rpc %s: unexpected status %d", path, resp.StatusCode)
	}

	var outcome model.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, errors.Wrap(err, "coordinator: decode outcome")
	}
	return &outcome, nil
}

func wirePeerKeys(peerKeys map[uint16][]byte) []peerKeyWire {
	out := make([]peerKeyWire, 0, len(peerKeys))
	for idx, key := range peerKeys {
		out = append(out, peerKeyWire{Index: idx, Key: key})
	}
	return out
}
