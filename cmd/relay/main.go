// Command relay runs the SSE-based message-relay substrate.
package main

import (
	"flag"

	"github.com/thresholdwallet/mpc-core/internal/config"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/relay"
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

	srv := relay.NewServer(cfg.Relay.RoomBacklog, cfg.Relay.RoomTTL, cfg.Relay.HeartbeatEvery, cfg.Relay.MaxPayloadBytes)

	addr := cfg.Relay.ListenAddr
	if addr == "" {
		addr = ":8090"
	}
	logger.Log.Infof("relay: listening on %s", addr)
	if err := srv.Router().Run(addr); err != nil {
		logger.Log.Fatalf("relay: %v", err)
	}
}
