// Package identity manages the process-wide long-term identity key
// injected into the wire codec as a signer capability. It is the only
// component that ever reads the raw private key.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/thresholdwallet/mpc-core/internal/vault"
)

// Identity holds a participant's or relay's long-term ed25519 keypair.
type Identity struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// Generate creates a fresh identity. Used to provision a new participant;
// production deployments seal the result into the vault immediately.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate: %w", err)
	}
	return &Identity{pub: pub, priv: priv}, nil
}

// Load opens the sealed identity blob under sealedID from v and reconstructs
// the keypair. Tear-down of the returned Identity zeroizes the private key.
func Load(v vault.Vault, sealedID string) (*Identity, error) {
	plaintext, err := v.Open(sealedID)
	if err != nil {
		return nil, fmt.Errorf("identity: load: %w", err)
	}
	defer zeroize(plaintext)

	if len(plaintext) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("identity: sealed blob has wrong size %d", len(plaintext))
	}
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(priv, plaintext)

	return &Identity{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Seal stores id's private key into v with sealID as the namespacing label
// and index 0, returning the sealed handle a future Load call needs.
func (id *Identity) Seal(v vault.Vault, sealID string) (string, error) {
	return v.Seal(sealID, 0, id.priv)
}

// PublicKey returns the identity's public verification key.
func (id *Identity) PublicKey() ed25519.PublicKey {
	return id.pub
}

// Sign implements codec.Signer.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.priv, message)
}

// Close zeroizes the private key material. Safe to call multiple times.
func (id *Identity) Close() {
	zeroize(id.priv)
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
