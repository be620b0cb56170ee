// Command participant runs a single MPC participant node:
// it serves the StartDkg/StartSign/DeleteShare RPC surface for one fixed
// index in the quorum.
package main

import (
	"encoding/hex"
	"flag"

	"github.com/thresholdwallet/mpc-core/internal/config"
	"github.com/thresholdwallet/mpc-core/internal/crypto"
	"github.com/thresholdwallet/mpc-core/internal/identity"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/participant"
	"github.com/thresholdwallet/mpc-core/internal/vault"
)

func main() {
	configPath := flag.String("config", "config.json", "path to JSON configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	if err := logger.InitLogger(cfg.Logger); err != nil {
		panic(err)
	}

	masterKey, err := hex.DecodeString(cfg.Vault.MasterKeyHex)
	if err != nil {
		logger.Log.Fatalf("participant: decode vault master key: %v", err)
	}
	sealVault, err := vault.NewLocalVault(cfg.Vault.BaseDir, masterKey, cfg.Vault.OpTimeout)
	if err != nil {
		logger.Log.Fatalf("participant: init vault: %v", err)
	}

	self, err := identity.Load(sealVault, cfg.Identity.SealedKeyPath)
	if err != nil {
		logger.Log.Fatalf("participant: load identity: %v", err)
	}
	defer self.Close()

	cap := crypto.NewTSSCapability()
	node := participant.NewNode(self, cfg.SelfIndex, cap, sealVault)

	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8091"
	}
	logger.Log.Infof("participant: index %d listening on %s", cfg.SelfIndex, addr)
	if err := node.Router().Run(addr); err != nil {
		logger.Log.Fatalf("participant: %v", err)
	}
}
