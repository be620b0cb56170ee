// Package vault implements sealed secret storage: seal/open/destroy over an
// authenticated symmetric cipher, standing in locally for an external vault
// service. The participant process never holds the sealing key itself —
// only this package does.
package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Vault is the capability surface the participant and identity layers
// depend on.
type Vault interface {
	// Seal encrypts plaintext under the vault's master key and returns a
	// sealed identifier. For key shares, sealedID follows the layout
	// wallet/{walletID}/share/{index} ; for other purposes
	// (e.g. the identity key) walletID is just a namespacing label.
	Seal(walletID string, index uint16, plaintext []byte) (sealedID string, err error)
	// Open decrypts and authenticates the blob under sealedID. Ciphertext
	// integrity failure is a hard abort.
	Open(sealedID string) ([]byte, error)
	// Destroy removes the blob under sealedID. Idempotent.
	Destroy(sealedID string) error
}

// LocalVault is a filesystem-backed Vault sealing blobs with AES-256-GCM.
// It exists to exercise the vault contract end-to-end in this repo; a real
// deployment points participants at an external vault collaborator instead.
type LocalVault struct {
	baseDir   string
	aead      cipher.AEAD
	opTimeout time.Duration
}

// NewLocalVault constructs a LocalVault rooted at baseDir, sealing with
// masterKey (must be 32 bytes, AES-256).
func NewLocalVault(baseDir string, masterKey []byte, opTimeout time.Duration) (*LocalVault, error) {
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, errors.Wrap(err, "vault: new cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "vault: new gcm")
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "vault: mkdir base dir")
	}
	return &LocalVault{baseDir: baseDir, aead: aead, opTimeout: opTimeout}, nil
}

// ShareSealedID returns the canonical sealed-id for a wallet's i-th share
func ShareSealedID(walletID string, index uint16) string {
	return fmt.Sprintf("wallet/%s/share/%d", walletID, index)
}

func (v *LocalVault) Seal(walletID string, index uint16, plaintext []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), v.opTimeout)
	defer cancel()

	sealedID := ShareSealedID(walletID, index)
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "vault: nonce")
	}

	ciphertext := v.aead.Seal(nonce, nonce, plaintext, []byte(sealedID))

	if err := v.writeWithDeadline(ctx, sealedID, ciphertext); err != nil {
		return "", &sealFailure{op: "seal", cause: err}
	}
	return sealedID, nil
}

func (v *LocalVault) Open(sealedID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), v.opTimeout)
	defer cancel()

	blob, err := v.readWithDeadline(ctx, sealedID)
	if err != nil {
		return nil, &sealFailure{op: "open", cause: err}
	}

	nonceSize := v.aead.NonceSize()
	if len(blob) < nonceSize {
		return nil, &sealFailure{op: "open", cause: errors.New("sealed blob too short")}
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, []byte(sealedID))
	if err != nil {
		return nil, &sealFailure{op: "open", cause: errors.Wrap(err, "authentication failed")}
	}
	return plaintext, nil
}

func (v *LocalVault) Destroy(sealedID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.opTimeout)
	defer cancel()

	if err := v.removeWithDeadline(ctx, sealedID); err != nil {
		return &sealFailure{op: "destroy", cause: err}
	}
	return nil
}

func (v *LocalVault) pathFor(sealedID string) string {
	return filepath.Join(v.baseDir, hex.EncodeToString([]byte(sealedID)))
}

func (v *LocalVault) writeWithDeadline(ctx context.Context, sealedID string, data []byte) error {
	done := make(chan error, 1)
	go func() {
		done <- os.WriteFile(v.pathFor(sealedID), data, 0o600)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (v *LocalVault) readWithDeadline(ctx context.Context, sealedID string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(v.pathFor(sealedID))
		done <- result{data: data, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.data, r.err
	}
}

func (v *LocalVault) removeWithDeadline(ctx context.Context, sealedID string) error {
	done := make(chan error, 1)
	go func() {
		err := os.Remove(v.pathFor(sealedID))
		if os.IsNotExist(err) {
			err = nil // Destroy is idempotent.
		}
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

type sealFailure struct {
	op    string
	cause error
}

func (f *sealFailure) Error() string {
	return fmt.Sprintf("vault %s: %v", f.op, f.cause)
}

func (f *sealFailure) Unwrap() error { return f.cause }
