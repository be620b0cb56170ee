package model

// KeyShare is the per-participant, per-wallet private key-share state.
// No ceremony code path builds one: the participant seals the Capability's
// serialized share bytes directly (vault layout wallet/{WalletID}/share/{Index}).
type KeyShare struct {
	WalletID WalletId `json:"wallet_id"`
	Index    uint16   `json:"index"`
	// Secret holds the serialized threshold-ECDSA save data (secret scalar
	// plus auxiliary public data: commitments, Paillier keys, zk params)
	// sufficient to sign without further setup. Only populated transiently;
	// zeroized by the caller once sealed.
	Secret []byte `json:"-"`
	// SealedID is the vault-assigned handle under which Secret is stored,
	// at key layout wallet/{WalletID}/share/{Index}.
	SealedID string `json:"sealed_id"`
	// Version allows a future reshare/rotation ceremony to supersede this
	// share; nothing currently advances it.
	Version int `json:"version"`
}

// Zeroize overwrites the secret scalar bytes in place. It must be called on
// every ceremony exit path: success (after sealing), abort, timeout, and
// panic recovery.
func (s *KeyShare) Zeroize() {
	for i := range s.Secret {
		s.Secret[i] = 0
	}
	s.Secret = nil
}
