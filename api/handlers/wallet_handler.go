// Package handlers implements the Coordinator's external wallet HTTP
// surface: create a wallet via DKG, request a signature, and retire a
// wallet by deleting its shares across the quorum.
package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thresholdwallet/mpc-core/internal/coordinator"
	"github.com/thresholdwallet/mpc-core/internal/logger"
)

// WalletHandler binds the external API routes to a Coordinator.
type WalletHandler struct {
	co *coordinator.Coordinator
}

// NewWalletHandler constructs a WalletHandler over co.
func NewWalletHandler(co *coordinator.Coordinator) *WalletHandler {
	return &WalletHandler{co: co}
}

// CreateWallet handles POST /wallets: runs a DKG ceremony across every
// configured participant and returns the resulting wallet record.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	wallet, err := h.co.CreateWallet(c.Request.Context())
	if err != nil {
		logger.Log.Errorf("api: create wallet: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, wallet)
}

type signRequest struct {
	Digest  string `json:"digest" binding:"required"` // hex-encoded, 32 bytes
	Elevate bool   `json:"elevate"`
}

// Sign handles POST /wallets/:wallet_id/sign: runs a signing ceremony over
// the supplied digest and returns the aggregated, verified signature.
func (h *WalletHandler) Sign(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet_id"})
		return
	}

	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	digestBytes, err := hex.DecodeString(req.Digest)
	if err != nil || len(digestBytes) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "digest must be 32 hex-encoded bytes"})
		return
	}
	var digest [32]byte
	copy(digest[:], digestBytes)

	outcome, err := h.co.Sign(c.Request.Context(), walletID, digest, req.Elevate)
	if err != nil {
		logger.Log.Errorf("api: sign wallet %s: %v", walletID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !outcome.Success {
		c.JSON(http.StatusConflict, gin.H{"abort": outcome.Abort})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// DeleteWallet handles DELETE /wallets/:wallet_id: asks every participant
// to destroy its sealed share for the wallet.
func (h *WalletHandler) DeleteWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("wallet_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet_id"})
		return
	}

	h.co.RetireWallet(c.Request.Context(), walletID)
	c.Status(http.StatusNoContent)
}

// Health handles GET /health.
func (h *WalletHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
