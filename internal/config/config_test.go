package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigParsesAllSections(t *testing.T) {
	cfg := Config{
		ListenAddr: ":8080",
		Relay: RelayConfig{
			Endpoint:        "http://relay.internal:8090",
			ListenAddr:      ":8090",
			HeartbeatEvery:  15 * time.Second,
			RoomBacklog:     4096,
			RoomTTL:         10 * time.Minute,
			MaxPayloadBytes: 1 << 20,
		},
		Vault: VaultConfig{
			BaseDir:      "/var/lib/mpc-core/vault",
			MasterKeyHex: "00",
			OpTimeout:    5 * time.Second,
		},
		Identity: IdentityConfig{SealedKeyPath: "identity/participant-1"},
		Database: DBConfig{Type: "postgres", Host: "db", Port: 5432},
		Logger:   LoggerConfig{Level: "info", Format: "json"},
		Participants: []ParticipantRef{
			{Index: 1, Addr: "http://p1:8091"},
			{Index: 2, Addr: "http://p2:8091"},
			{Index: 3, Addr: "http://p3:8091", ColdStorage: true},
		},
		Threshold:        2,
		SelfIndex:        1,
		CeremonyDeadline: time.Minute,
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	encoded, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, cfg.ListenAddr, loaded.ListenAddr)
	require.Equal(t, cfg.Relay.Endpoint, loaded.Relay.Endpoint)
	require.Equal(t, cfg.Threshold, loaded.Threshold)
	require.Len(t, loaded.Participants, 3)
	require.True(t, loaded.Participants[2].ColdStorage)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	require.Error(t, err)
}
