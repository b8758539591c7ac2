package instruction

import (
	"errors"
	"fmt"

	dErrors "walletcore/pkg/domain-errors"
)

type ErrorKind string

const (
	KindIncorrectPin ErrorKind = "incorrect_pin"
	KindTimeout      ErrorKind = "timeout"
	KindBlocked      ErrorKind = "blocked"
)

// Error is the structured detail of a failed instruction. Gated operations
// return it wrapped in a domain error with code instruction or blocked.
type Error struct {
	Kind                ErrorKind `json:"kind"`
	AttemptsLeftInRound int       `json:"attempts_left_in_round,omitempty"`
	IsFinalRound        bool      `json:"is_final_round,omitempty"`
	TimeoutMillis       int64     `json:"timeout_millis,omitempty"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIncorrectPin:
		return fmt.Sprintf("incorrect pin, %d attempts left in round", e.AttemptsLeftInRound)
	case KindTimeout:
		return fmt.Sprintf("pin timeout, retry in %dms", e.TimeoutMillis)
	}
	return string(e.Kind)
}

// ErrorDetail is rendered as the detail of an HTTP error response.
func (e *Error) ErrorDetail() any {
	return e
}

// AsError extracts the instruction detail from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func incorrectPin(attemptsLeft int, finalRound bool) error {
	return &dErrors.Error{
		Code:    dErrors.CodeInstruction,
		Message: "incorrect pin",
		Err:     &Error{Kind: KindIncorrectPin, AttemptsLeftInRound: attemptsLeft, IsFinalRound: finalRound},
	}
}

func pinTimeout(millis int64) error {
	return &dErrors.Error{
		Code:    dErrors.CodeInstruction,
		Message: "pin timeout",
		Err:     &Error{Kind: KindTimeout, TimeoutMillis: millis},
	}
}

// BlockedError is returned by every gated operation once the wallet is blocked.
func BlockedError() error {
	return &dErrors.Error{
		Code:    dErrors.CodeBlocked,
		Message: "wallet is blocked",
		Err:     &Error{Kind: KindBlocked},
	}
}
