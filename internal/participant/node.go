package participant

import (
	"crypto/ed25519"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thresholdwallet/mpc-core/internal/crypto"
	"github.com/thresholdwallet/mpc-core/internal/identity"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/model"
	"github.com/thresholdwallet/mpc-core/internal/relay"
	"github.com/thresholdwallet/mpc-core/internal/vault"
)

// Node is the participant process's RPC surface: StartDkg, StartSign,
// DeleteShare. Each call blocks for the ceremony's full duration and returns
// a terminal model.Outcome — round-by-round streaming lives on the relay,
// not on this RPC.
type Node struct {
	self      *identity.Identity
	index     uint16
	cap       crypto.Capability
	sealVault vault.Vault
	registry  *Registry
}

// NewNode constructs a participant Node for the given self index.
func NewNode(self *identity.Identity, index uint16, cap crypto.Capability, sealVault vault.Vault) *Node {
	return &Node{
		self:      self,
		index:     index,
		cap:       cap,
		sealVault: sealVault,
		registry:  NewRegistry(),
	}
}

// Router builds the gin router exposing this node's RPC surface.
func (n *Node) Router() *gin.Engine {
	router := gin.Default()
	router.POST("/ceremonies/dkg", n.handleStartDkg)
	router.POST("/ceremonies/sign", n.handleStartSign)
	router.DELETE("/wallets/:wallet_id/share", n.handleDeleteShare)
	return router
}

type peerKey struct {
	Index uint16 `json:"index"`
	Key   []byte `json:"key"`
}

type startDkgRequest struct {
	CeremonyID   uuid.UUID `json:"ceremony_id"`
	Index        uint16    `json:"index"`
	Quorum       []uint16  `json:"quorum"`
	N            int       `json:"n"`
	Threshold    int       `json:"threshold"`
	RoomEndpoint string    `json:"room_endpoint"`
	Deadline     time.Time `json:"deadline"`
	WalletID     uuid.UUID `json:"wallet_id"`
	PeerKeys     []peerKey `json:"peer_keys"`
}

func (n *Node) handleStartDkg(c *gin.Context) {
	var req startDkgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Index != n.index {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index does not match this node"})
		return
	}

	desc := model.Descriptor{
		CeremonyID:   req.CeremonyID,
		Kind:         model.KindDKG,
		WalletID:     req.WalletID,
		Index:        req.Index,
		Quorum:       req.Quorum,
		N:            req.N,
		Threshold:    req.Threshold,
		RoomEndpoint: req.RoomEndpoint,
		Deadline:     req.Deadline,
	}

	ctx := n.registry.Start(c.Request.Context(), req.CeremonyID, model.KindDKG)
	defer n.registry.Finish(req.CeremonyID)

	relayClient := relay.NewClient(req.RoomEndpoint, nil)
	ceremony := NewCeremony(desc, n.cap, relayClient, n.sealVault, n.self, decodePeerKeys(req.PeerKeys))

	outcome, err := ceremony.RunDKG(ctx)
	if err != nil {
		logger.Log.Errorf("participant: dkg %s failed: %v", req.CeremonyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type startSignRequest struct {
	CeremonyID   uuid.UUID `json:"ceremony_id"`
	WalletID     uuid.UUID `json:"wallet_id"`
	Index        uint16    `json:"index"`
	Quorum       []uint16  `json:"quorum"`
	Digest       [32]byte  `json:"digest"`
	RoomEndpoint string    `json:"room_endpoint"`
	Deadline     time.Time `json:"deadline"`
	PeerKeys     []peerKey `json:"peer_keys"`
}

func (n *Node) handleStartSign(c *gin.Context) {
	var req startSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Index != n.index {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index does not match this node"})
		return
	}

	sealedID := vault.ShareSealedID(req.WalletID.String(), req.Index)
	share, err := n.sealVault.Open(sealedID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": (&model.VaultFailureError{Op: "open", Cause: err}).Error()})
		return
	}
	defer zeroize(share)

	desc := model.Descriptor{
		CeremonyID:   req.CeremonyID,
		Kind:         model.KindSign,
		WalletID:     req.WalletID,
		Index:        req.Index,
		Quorum:       req.Quorum,
		Digest:       req.Digest,
		RoomEndpoint: req.RoomEndpoint,
		Deadline:     req.Deadline,
	}

	ctx := n.registry.Start(c.Request.Context(), req.CeremonyID, model.KindSign)
	defer n.registry.Finish(req.CeremonyID)

	relayClient := relay.NewClient(req.RoomEndpoint, nil)
	ceremony := NewCeremony(desc, n.cap, relayClient, n.sealVault, n.self, decodePeerKeys(req.PeerKeys))

	outcome, err := ceremony.RunSign(ctx, share)
	if err != nil {
		logger.Log.Errorf("participant: sign %s failed: %v", req.CeremonyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (n *Node) handleDeleteShare(c *gin.Context) {
	walletID := c.Param("wallet_id")
	sealedID := vault.ShareSealedID(walletID, n.index)

	if err := n.sealVault.Destroy(sealedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": (&model.VaultFailureError{Op: "destroy", Cause: err}).Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func decodePeerKeys(keys []peerKey) map[uint16]ed25519.PublicKey {
	out := make(map[uint16]ed25519.PublicKey, len(keys))
	for _, k := range keys {
		out[k.Index] = ed25519.PublicKey(k.Key)
	}
	return out
}
