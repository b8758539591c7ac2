// Package pin holds the PIN format rules and the PIN key: the Ed25519 key pair
// derived from a PIN and the registration salt that proves PIN possession to
// the account server.
package pin

import (
	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

const (
	Length          = 6
	minUniqueDigits = 2
)

// Validate applies every PIN rule, format first.
func Validate(pin string) models.PinValidationResult {
	if r := checkFormat(pin); r != models.PinOk {
		return r
	}
	var seen [10]bool
	unique := 0
	for i := 0; i < len(pin); i++ {
		d := pin[i] - '0'
		if !seen[d] {
			seen[d] = true
			unique++
		}
	}
	if unique < minUniqueDigits {
		return models.PinTooFewUniqueDigits
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	switch {
	case ascending:
		return models.PinAscendingDigits
	case descending:
		return models.PinDescendingDigits
	}
	return models.PinOk
}

// CheckFormat rejects PINs that can never be correct. Gated operations call it
// before contacting the account server so a malformed PIN costs no attempt.
func CheckFormat(pin string) error {
	switch checkFormat(pin) {
	case models.PinInvalidLength:
		return dErrors.New(dErrors.CodeValidation, "pin must be 6 digits")
	case models.PinNonDigits:
		return dErrors.New(dErrors.CodeValidation, "pin must contain digits only")
	}
	return nil
}

func checkFormat(pin string) models.PinValidationResult {
	if len(pin) != Length {
		return models.PinInvalidLength
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return models.PinNonDigits
		}
	}
	return models.PinOk
}
