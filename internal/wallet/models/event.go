package models

import (
	"slices"
	"time"

	id "walletcore/pkg/domain"
)

type EventType string

const (
	EventTypeIssuance   EventType = "issuance"
	EventTypeDisclosure EventType = "disclosure"
)

type DisclosureStatus string

const (
	DisclosureStatusSuccess   DisclosureStatus = "success"
	DisclosureStatusCancelled DisclosureStatus = "cancelled"
	DisclosureStatusError     DisclosureStatus = "error"
)

// DisclosureType separates a login (only the PID identifier is requested) from a regular disclosure.
type DisclosureType string

const (
	DisclosureTypeLogin   DisclosureType = "login"
	DisclosureTypeRegular DisclosureType = "regular"
)

// WalletEvent is one immutable history entry. Exactly one of Issuance and
// Disclosure is set, matching Type.
type WalletEvent struct {
	ID         id.EventID       `json:"id"`
	Type       EventType        `json:"type"`
	DateTime   time.Time        `json:"date_time"`
	Issuance   *IssuanceEvent   `json:"issuance,omitempty"`
	Disclosure *DisclosureEvent `json:"disclosure,omitempty"`
}

type IssuanceEvent struct {
	Attestation Attestation `json:"attestation"`
}

type DisclosureEvent struct {
	RelyingParty       Organization     `json:"relying_party"`
	Purpose            LocalizedStrings `json:"purpose"`
	SharedAttestations []Attestation    `json:"shared_attestations,omitempty"`
	RequestPolicy      RequestPolicy    `json:"request_policy"`
	Status             DisclosureStatus `json:"status"`
	DisclosureType     DisclosureType   `json:"disclosure_type"`
}

func NewIssuanceEvent(at time.Time, attestation Attestation) WalletEvent {
	return WalletEvent{
		ID:       id.NewEventID(),
		Type:     EventTypeIssuance,
		DateTime: at,
		Issuance: &IssuanceEvent{Attestation: attestation},
	}
}

func NewDisclosureEvent(at time.Time, ev DisclosureEvent) WalletEvent {
	return WalletEvent{
		ID:         id.NewEventID(),
		Type:       EventTypeDisclosure,
		DateTime:   at,
		Disclosure: &ev,
	}
}

// AttestationTypes returns the attestation types the event references, in order.
func (e WalletEvent) AttestationTypes() []string {
	switch {
	case e.Issuance != nil:
		return []string{e.Issuance.Attestation.AttestationType}
	case e.Disclosure != nil:
		types := make([]string, 0, len(e.Disclosure.SharedAttestations))
		for _, a := range e.Disclosure.SharedAttestations {
			if !slices.Contains(types, a.AttestationType) {
				types = append(types, a.AttestationType)
			}
		}
		return types
	default:
		return nil
	}
}

// References reports whether the event concerns attestationType.
func (e WalletEvent) References(attestationType string) bool {
	return slices.Contains(e.AttestationTypes(), attestationType)
}

// IsSuccessfulDisclosureTo reports whether e records a completed disclosure to rp.
func (e WalletEvent) IsSuccessfulDisclosureTo(rp Organization) bool {
	return e.Disclosure != nil &&
		e.Disclosure.Status == DisclosureStatusSuccess &&
		e.Disclosure.RelyingParty.SameParty(rp)
}
