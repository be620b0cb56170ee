// Package api wires the Coordinator's external HTTP surface with a flat
// gin.Default route table.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/thresholdwallet/mpc-core/api/handlers"
	"github.com/thresholdwallet/mpc-core/internal/coordinator"
)

// SetupRouter builds the gin engine exposing wallet create/sign/delete and
// a health check, backed by co.
func SetupRouter(co *coordinator.Coordinator) *gin.Engine {
	router := gin.Default()
	h := handlers.NewWalletHandler(co)

	router.GET("/health", h.Health)

	wallets := router.Group("/wallets")
	{
		wallets.POST("", h.CreateWallet)
		wallets.POST("/:wallet_id/sign", h.Sign)
		wallets.DELETE("/:wallet_id", h.DeleteWallet)
	}

	return router
}
