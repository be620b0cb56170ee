// Command coordinator runs the wallet-facing orchestration process: it
// exposes the external create/sign/delete wallet API and drives ceremonies
// across the configured participant roster.
package main

import (
	"encoding/hex"
	"flag"

	"github.com/thresholdwallet/mpc-core/api"
	"github.com/thresholdwallet/mpc-core/internal/config"
	"github.com/thresholdwallet/mpc-core/internal/coordinator"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/storage"
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

	catalog, err := storage.NewCatalog(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("coordinator: init catalog: %v", err)
	}

	co := coordinator.New(cfg, catalog)
	for _, p := range cfg.Participants {
		if p.IdentityKeyHex == "" {
			continue
		}
		key, err := hex.DecodeString(p.IdentityKeyHex)
		if err != nil {
			logger.Log.Fatalf("coordinator: decode identity key for participant %d: %v", p.Index, err)
		}
		co.RegisterPeerKey(p.Index, key)
	}

	router := api.SetupRouter(co)

	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	logger.Log.Infof("coordinator: listening on %s", addr)
	if err := router.Run(addr); err != nil {
		logger.Log.Fatalf("coordinator: %v", err)
	}
}
