// Package config loads the JSON configuration shared by the relay,
// participant, and coordinator processes.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// DBConfig holds the catalog database connection parameters.
type DBConfig struct {
	Type     string `json:"type"`
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
	TimeZone string `json:"timezone"`
}

// LoggerConfig holds the logging configuration.
type LoggerConfig struct {
	Level      string `json:"level"` // e.g., "debug", "info", "warn", "error"
	Format     string `json:"format"`
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// RelayConfig describes how to reach, or how to run, the message-relay
// substrate.
type RelayConfig struct {
	Endpoint        string        `json:"endpoint"`
	ListenAddr      string        `json:"listen_addr"`
	HeartbeatEvery  time.Duration `json:"heartbeat_every"`
	RoomBacklog     int           `json:"room_backlog"`
	RoomTTL         time.Duration `json:"room_ttl"`
	MaxPayloadBytes int           `json:"max_payload_bytes"`
	BroadcastRetries int          `json:"broadcast_retries"`
}

// VaultConfig configures the sealed-share storage backend.
type VaultConfig struct {
	BaseDir      string        `json:"base_dir"`
	MasterKeyHex string        `json:"master_key_hex"`
	OpTimeout    time.Duration `json:"op_timeout"`
}

// IdentityConfig locates the process's long-term signing key.
type IdentityConfig struct {
	SealedKeyPath string `json:"sealed_key_path"`
}

// ParticipantRef is a remote participant's RPC address and its fixed index.
type ParticipantRef struct {
	Index          uint16 `json:"index"`
	Addr           string `json:"addr"`
	ColdStorage    bool   `json:"cold_storage"`
	IdentityKeyHex string `json:"identity_key_hex"` // hex-encoded ed25519 public key
}

// Config holds the application's configuration values. Every process
// (relay, participant, coordinator) loads the same file and reads only the
// sections relevant to its role.
type Config struct {
	ListenAddr       string           `json:"listen_addr"`
	Relay            RelayConfig      `json:"relay"`
	Vault            VaultConfig      `json:"vault"`
	Identity         IdentityConfig   `json:"identity"`
	Database         DBConfig         `json:"database"`
	Logger           LoggerConfig     `json:"logger"`
	Participants     []ParticipantRef `json:"participants"`
	Threshold        int              `json:"threshold"`
	SelfIndex        uint16           `json:"self_index"`
	CeremonyDeadline time.Duration    `json:"ceremony_deadline"`
}

// LoadConfig reads the configuration from a file and returns a Config struct.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	cfg := &Config{}
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
