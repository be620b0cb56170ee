// Package model defines the shared value types of the MPC core: wallets,
// key shares, ceremonies, rooms, and protocol envelopes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Curve identifies the elliptic curve a wallet's key is defined over. The
// core only ever produces secp256k1 keys; the type exists so a future
// multi-chain abstraction has somewhere to grow without touching callers;
// only secp256k1 is wired up today.
type Curve string

// Secp256k1 is the only curve this core supports.
const Secp256k1 Curve = "secp256k1"

// WalletId uniquely identifies a wallet.
type WalletId = uuid.UUID

// Wallet is the public, immutable-after-DKG record of a threshold key.
// It never holds secret material; `Q` is the aggregated public key.
type Wallet struct {
	ID          WalletId  `json:"id"`
	Curve       Curve     `json:"curve"`
	Threshold   int       `json:"threshold"`
	N           int       `json:"n"`
	Q           []byte    `json:"q"` // compressed public key point
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewWallet constructs a Wallet from the terminal output of a successful
// DKG ceremony.
func NewWallet(id WalletId, t, n int, q []byte, address string) Wallet {
	return Wallet{
		ID:        id,
		Curve:     Secp256k1,
		Threshold: t,
		N:         n,
		Q:         q,
		Address:   address,
		CreatedAt: time.Now(),
	}
}
