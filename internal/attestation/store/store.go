// Package store holds the attestations ("cards") the wallet owns, keyed by
// attestation identity.
package store

import (
	"cmp"
	"fmt"
	"slices"

	"walletcore/internal/wallet/models"
	"walletcore/pkg/platform/sentinel"
)

func keyOf(a models.Attestation) (string, error) {
	key := a.Identity.Key()
	if key == "" {
		return "", fmt.Errorf("attestation %q has no fixed identity: %w", a.AttestationType, sentinel.ErrInvalidInput)
	}
	return key, nil
}

// sortAttestations orders by attestation type, then identity.
func sortAttestations(list []models.Attestation) {
	slices.SortFunc(list, func(a, b models.Attestation) int {
		return cmp.Or(
			cmp.Compare(a.AttestationType, b.AttestationType),
			cmp.Compare(a.Identity.ID, b.Identity.ID),
		)
	})
}

func typesOf(list []models.Attestation) []string {
	types := make([]string, 0, len(list))
	for _, a := range list {
		if !slices.Contains(types, a.AttestationType) {
			types = append(types, a.AttestationType)
		}
	}
	return types
}
