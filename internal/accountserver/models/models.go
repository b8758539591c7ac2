package models

import (
	"bytes"
	"time"
)

// Account is the provider-side record of one registered wallet.
type Account struct {
	WalletID            string     `json:"wallet_id"`
	PinPublicKey        []byte     `json:"pin_public_key"`
	PendingPinPublicKey []byte     `json:"pending_pin_public_key,omitempty"`
	BiometricPublicKey  []byte     `json:"biometric_public_key,omitempty"`
	FailedAttempts      int        `json:"failed_attempts"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
	Blocked             bool       `json:"blocked"`
	LastSequence        uint64     `json:"last_sequence"`
	Challenge           *Challenge `json:"challenge,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Challenge is a one-time nonce bound to an instruction and sequence number.
type Challenge struct {
	Value       []byte    `json:"value"`
	Instruction string    `json:"instruction"`
	Sequence    uint64    `json:"sequence"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Matches reports whether the presented challenge is this one and still valid.
func (c *Challenge) Matches(value []byte, instruction string, sequence uint64, now time.Time) bool {
	return c != nil &&
		bytes.Equal(c.Value, value) &&
		c.Instruction == instruction &&
		c.Sequence == sequence &&
		now.Before(c.ExpiresAt)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.PinPublicKey = bytes.Clone(a.PinPublicKey)
	out.PendingPinPublicKey = bytes.Clone(a.PendingPinPublicKey)
	out.BiometricPublicKey = bytes.Clone(a.BiometricPublicKey)
	if a.LastFailureAt != nil {
		t := *a.LastFailureAt
		out.LastFailureAt = &t
	}
	if a.Challenge != nil {
		c := *a.Challenge
		c.Value = bytes.Clone(a.Challenge.Value)
		out.Challenge = &c
	}
	return &out
}
