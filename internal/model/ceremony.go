package model

import "time"

// CeremonyKind distinguishes the two protocol variants that share a round/
// envelope contract.
type CeremonyKind string

const (
	KindDKG  CeremonyKind = "dkg"
	KindSign CeremonyKind = "sign"
)

// CeremonyId identifies a single end-to-end execution of DKG or signing.
// It doubles as the RoomId of the room hosting it.
type CeremonyId = WalletId

// AbortReason enumerates why a ceremony's state machine reached
// Terminal(Aborted) instead of Terminal(Success).
type AbortReason struct {
	InvalidProof            *uint16 `json:"invalid_proof,omitempty"`             // blame index
	InconsistentCommitment  *uint16 `json:"inconsistent_commitment,omitempty"`   // blame index
	RoundTimeout            *uint16 `json:"round_timeout,omitempty"`             // round number
	RelayFailure            bool    `json:"relay_failure,omitempty"`
	Cancelled               bool    `json:"cancelled,omitempty"`
}

// Outcome is the terminal state of a ceremony's state machine
// (Init -> Round(1) -> ... -> Terminal).
type Outcome struct {
	Success bool
	Abort   *AbortReason

	// DKG terminal fields.
	PublicKey []byte
	SealedID  string

	// Sign terminal fields.
	R, S []byte
	V    uint32
}

// Descriptor is the session descriptor the coordinator hands each selected
// participant.
type Descriptor struct {
	CeremonyID CeremonyId
	Kind       CeremonyKind
	WalletID   WalletId // Sign only
	Index      uint16
	Quorum     []uint16
	N          int
	Threshold  int
	Digest     [32]byte // Sign only
	RoomEndpoint string
	Deadline   time.Time
}
