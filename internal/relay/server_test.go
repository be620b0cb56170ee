package relay

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thresholdwallet/mpc-core/internal/codec"
	"github.com/thresholdwallet/mpc-core/internal/model"
)

type testSigner struct{ priv ed25519.PrivateKey }

func (s testSigner) Sign(message []byte) []byte { return ed25519.Sign(s.priv, message) }

func TestHandleIssueIdxAssignsAndIsIdempotent(t *testing.T) {
	srv := NewServer(16, time.Minute, time.Second, 0)
	router := srv.Router()

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	body, _ := json.Marshal(issueIdxRequest{IdentityProof: pub, N: 3})
	req := httptest.NewRequest(http.MethodPost, "/rooms/room-a/issue_unique_idx", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp1 issueIdxResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp1))
	require.Equal(t, uint16(1), resp1.Index)

	req2 := httptest.NewRequest(http.MethodPost, "/rooms/room-a/issue_unique_idx", bytes.NewReader(body))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)

	var resp2 issueIdxResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &resp2))
	require.Equal(t, resp1.Index, resp2.Index)
}

func TestHandleIssueIdxRejectsUnauthenticated(t *testing.T) {
	srv := NewServer(16, time.Minute, time.Second, 0)
	router := srv.Router()

	body, _ := json.Marshal(issueIdxRequest{N: 3})
	req := httptest.NewRequest(http.MethodPost, "/rooms/room-a/issue_unique_idx", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleBroadcastRejectsUnregisteredSender(t *testing.T) {
	srv := NewServer(16, time.Minute, time.Second, 0)
	router := srv.Router()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_ = pub

	env := model.Envelope{RoomID: uuid.New(), Sender: 1, Recipient: model.BroadcastRecipient, Payload: []byte("hello")}
	frame, err := codec.Encode(env, testSigner{priv: priv})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rooms/room-a/broadcast", bytes.NewReader(frame))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleBroadcastAcceptsRegisteredSigner(t *testing.T) {
	srv := NewServer(16, time.Minute, time.Second, 0)
	router := srv.Router()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	idxBody, _ := json.Marshal(issueIdxRequest{IdentityProof: pub, N: 3})
	idxReq := httptest.NewRequest(http.MethodPost, "/rooms/room-b/issue_unique_idx", bytes.NewReader(idxBody))
	idxW := httptest.NewRecorder()
	router.ServeHTTP(idxW, idxReq)
	require.Equal(t, http.StatusOK, idxW.Code)
	var idxResp issueIdxResponse
	require.NoError(t, json.Unmarshal(idxW.Body.Bytes(), &idxResp))

	env := model.Envelope{RoomID: uuid.New(), Sender: idxResp.Index, Recipient: model.BroadcastRecipient, Payload: []byte("hello")}
	frame, err := codec.Encode(env, testSigner{priv: priv})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/rooms/room-b/broadcast", bytes.NewReader(frame))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
