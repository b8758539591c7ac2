// Package domain provides type-safe identifiers so a session id can never be passed where an event id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "walletcore/pkg/domain-errors"
)

type (
	WalletID  uuid.UUID
	SessionID uuid.UUID
	EventID   uuid.UUID
)

func NewWalletID() WalletID   { return WalletID(uuid.New()) }
func NewSessionID() SessionID { return SessionID(uuid.New()) }
func NewEventID() EventID     { return EventID(uuid.New()) }

// Parse functions are used at trust boundaries.

func ParseWalletID(s string) (WalletID, error) {
	id, err := parseUUID(s, "wallet ID")
	return WalletID(id), err
}

func ParseSessionID(s string) (SessionID, error) {
	id, err := parseUUID(s, "session ID")
	return SessionID(id), err
}

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func (id WalletID) String() string  { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string   { return uuid.UUID(id).String() }

func (id WalletID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id EventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *EventID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" cannot be nil")
	}
	return id, nil
}
