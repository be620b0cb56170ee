// Package relay implements the room-scoped pub/sub message-relay substrate:
// issue_unique_idx, broadcast, and subscribe, exposed over an HTTP/SSE
// surface.
package relay

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thresholdwallet/mpc-core/internal/codec"
	"github.com/thresholdwallet/mpc-core/internal/logger"
)

// Server is the relay's HTTP-routed room registry. Rooms are created
// lazily on first subscribe/broadcast/issue_unique_idx and garbage
// collected after an inactivity TTL.
type Server struct {
	mu    sync.RWMutex
	rooms map[string]*room

	backlog         int
	ttl             time.Duration
	heartbeatEvery  time.Duration
	maxPayloadBytes int
}

// NewServer constructs a relay Server. backlog bounds each room's
// in-memory log; ttl is the inactivity window after which an abandoned
// room is garbage-collected; heartbeatEvery bounds the SSE keep-alive
// interval.
func NewServer(backlog int, ttl, heartbeatEvery time.Duration, maxPayloadBytes int) *Server {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if heartbeatEvery <= 0 || heartbeatEvery > 30*time.Second {
		heartbeatEvery = 15 * time.Second
	}
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = 1 << 20
	}
	s := &Server{
		rooms:           make(map[string]*room),
		backlog:         backlog,
		ttl:             ttl,
		heartbeatEvery:  heartbeatEvery,
		maxPayloadBytes: maxPayloadBytes,
	}
	go s.gcLoop()
	return s
}

func (s *Server) gcLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-s.ttl)
		s.mu.Lock()
		for id, r := range s.rooms {
			r.mu.RLock()
			stale := r.lastTouch.Before(cutoff)
			r.mu.RUnlock()
			if stale {
				delete(s.rooms, id)
				logger.Log.Infof("relay: garbage-collected idle room %s", id)
			}
		}
		s.mu.Unlock()
	}
}

func (s *Server) getOrCreate(roomID string) *room {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		return r
	}
	r = newRoom(s.backlog)
	s.rooms[roomID] = r
	return r
}

// Router builds the gin router exposing the three relay operations.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.POST("/rooms/:room_id/issue_unique_idx", s.handleIssueIdx)
	router.POST("/rooms/:room_id/broadcast", s.handleBroadcast)
	router.GET("/rooms/:room_id/subscribe", s.handleSubscribe)
	return router
}

type issueIdxRequest struct {
	IdentityProof []byte `json:"identity_proof"`
	N             int    `json:"n"`
	Index         uint16 `json:"index,omitempty"` // 0 = assign a fresh index
}

type issueIdxResponse struct {
	Index uint16 `json:"index"`
}

func (s *Server) handleIssueIdx(c *gin.Context) {
	roomID := c.Param("room_id")
	var req issueIdxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.IdentityProof) == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}

	r := s.getOrCreate(roomID)
	idx, err := r.issueUniqueIdx(req.IdentityProof, req.N, req.Index)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	logger.Log.Infof("relay: issued index %d for room %s", idx, roomID)
	c.JSON(http.StatusOK, issueIdxResponse{Index: idx})
}

func (s *Server) handleBroadcast(c *gin.Context) {
	roomID := c.Param("room_id")
	frame, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(frame) > s.maxPayloadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "PayloadTooLarge"})
		return
	}

	r := s.getOrCreate(roomID)

	// Authenticate against the sender's registered identity before
	// appending. The relay does not interpret the payload, only the
	// envelope's signature.
	env, err := codec.Decode(frame, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r.mu.RLock()
	pub, known := r.identities[env.Sender]
	r.mu.RUnlock()
	if !known {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return
	}
	if _, err := codec.Decode(frame, ed25519.PublicKey(pub)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad signature"})
		return
	}

	seq := r.publish(frame)
	c.JSON(http.StatusOK, gin.H{"seq": seq})
}

func (s *Server) handleSubscribe(c *gin.Context) {
	roomID := c.Param("room_id")
	from := parseFromSeq(c)

	r := s.getOrCreate(roomID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	heartbeat := time.NewTicker(s.heartbeatEvery)
	defer heartbeat.Stop()

	next := from
	for {
		entries, lowestRetained, notifyCh := r.snapshotFrom(next)
		if next < lowestRetained {
			fmt.Fprintf(c.Writer, "event: lagged\ndata: {}\n\n")
			flusher.Flush()
			return
		}
		for _, e := range entries {
			writeSSE(c.Writer, e.seq, e.frame)
			next = e.seq + 1
		}
		flusher.Flush()

		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			flusher.Flush()
		case <-notifyCh:
			// loop to pick up newly published entries
		}
	}
}

func writeSSE(w http.ResponseWriter, seq uint64, frame []byte) {
	encoded, _ := json.Marshal(frame)
	fmt.Fprintf(w, "id: %d\nevent: envelope\ndata: %s\n\n", seq, encoded)
}

func parseFromSeq(c *gin.Context) uint64 {
	q := c.Query("from")
	if q == "" {
		return 0
	}
	v, err := strconv.ParseUint(q, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
