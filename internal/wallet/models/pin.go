package models

import "time"

// PinRetryState is the wallet's advisory copy of the provider's retry counter.
type PinRetryState struct {
	AttemptsLeftInRound int  `json:"attempts_left_in_round"`
	IsFinalRound        bool `json:"is_final_round"`
	Blocked             bool `json:"blocked"`
}

// PinValidationResult is the outcome of the local PIN format check.
type PinValidationResult string

const (
	PinOk                 PinValidationResult = "ok"
	PinNonDigits          PinValidationResult = "non_digits"
	PinInvalidLength      PinValidationResult = "invalid_length"
	PinTooFewUniqueDigits PinValidationResult = "too_few_unique_digits"
	PinAscendingDigits    PinValidationResult = "ascending_digits"
	PinDescendingDigits   PinValidationResult = "descending_digits"
)

// Registration is what the wallet keeps after registering with the account server.
type Registration struct {
	WalletID string `json:"wallet_id"`
	// Salt seeds PIN key derivation. Rotated by a PIN change.
	Salt []byte `json:"salt"`
	// ProviderKey is the PEM encoded key that signs instruction results.
	ProviderKey []byte `json:"provider_key"`
	// Sequence is the last instruction sequence number used.
	Sequence     uint64    `json:"sequence"`
	RegisteredAt time.Time `json:"registered_at"`
	// BiometricUnlock mirrors the user's setting.
	BiometricUnlock bool `json:"biometric_unlock"`
	// PendingChangePin is set between ChangePinStart and ChangePinCommit.
	PendingChangePin *PendingChangePin `json:"pending_change_pin,omitempty"`
	// Blocked is terminal until the wallet is reset.
	Blocked bool `json:"blocked"`
}

// Clone returns a deep copy.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	out := *r
	out.Salt = append([]byte(nil), r.Salt...)
	out.ProviderKey = append([]byte(nil), r.ProviderKey...)
	if r.PendingChangePin != nil {
		out.PendingChangePin = &PendingChangePin{NewSalt: append([]byte(nil), r.PendingChangePin.NewSalt...)}
	}
	return &out
}

// PendingChangePin records an interrupted PIN change.
type PendingChangePin struct {
	NewSalt []byte `json:"new_salt"`
}
