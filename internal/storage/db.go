// Package storage persists the public, non-secret view of a wallet that the
// coordinator needs to answer Sign requests: gorm over a postgres driver,
// with AutoMigrate run at startup.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/thresholdwallet/mpc-core/internal/config"
	"github.com/thresholdwallet/mpc-core/internal/logger"
	"github.com/thresholdwallet/mpc-core/internal/model"
)

// CatalogEntry is the gorm-mapped row for one wallet's public record:
// WalletId, Q, address, t, n, created_at.
type CatalogEntry struct {
	WalletID  uuid.UUID `gorm:"type:uuid;primary_key"`
	Curve     string    `gorm:"type:varchar(32)"`
	Q         []byte
	Address   string `gorm:"type:varchar(64);index"`
	Threshold int
	N         int
	CreatedAt int64
}

// Catalog wraps a gorm.DB with the narrow read/write surface the
// coordinator needs: persist a wallet on DKG success, look one up by id
// before dispatching a sign ceremony.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog opens a postgres connection per cfg and auto-migrates the
// catalog schema.
func NewCatalog(cfg config.DBConfig) (*Catalog, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "storage: connect to database")
	}
	logger.Log.Info("storage: database connection established")

	if err := db.AutoMigrate(&CatalogEntry{}); err != nil {
		return nil, errors.Wrap(err, "storage: auto-migrate schema")
	}
	logger.Log.Info("storage: schema migrated")

	return &Catalog{db: db}, nil
}

// SaveWallet persists a newly created wallet's public record.
func (c *Catalog) SaveWallet(ctx context.Context, wallet model.Wallet) error {
	entry := CatalogEntry{
		WalletID:  wallet.ID,
		Curve:     string(wallet.Curve),
		Q:         wallet.Q,
		Address:   wallet.Address,
		Threshold: wallet.Threshold,
		N:         wallet.N,
		CreatedAt: wallet.CreatedAt.Unix(),
	}
	return c.db.WithContext(ctx).Create(&entry).Error
}

// GetWallet loads a wallet's public record by id.
func (c *Catalog) GetWallet(ctx context.Context, walletID uuid.UUID) (*model.Wallet, error) {
	var entry CatalogEntry
	if err := c.db.WithContext(ctx).First(&entry, "wallet_id = ?", walletID).Error; err != nil {
		return nil, err
	}
	wallet := model.NewWallet(entry.WalletID, entry.Threshold, entry.N, entry.Q, entry.Address)
	wallet.Curve = model.Curve(entry.Curve)
	wallet.CreatedAt = time.Unix(entry.CreatedAt, 0)
	return &wallet, nil
}

// DeleteWallet removes a wallet's catalog record.
func (c *Catalog) DeleteWallet(ctx context.Context, walletID uuid.UUID) error {
	return c.db.WithContext(ctx).Delete(&CatalogEntry{}, "wallet_id = ?", walletID).Error
}
