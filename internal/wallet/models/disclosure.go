package models

import "time"

// RequestPolicy is what the relying party declares about the data it receives.
type RequestPolicy struct {
	DataStorageDuration        time.Duration `json:"data_storage_duration,omitempty"`
	DataSharedWithThirdParties bool          `json:"data_shared_with_third_parties"`
	DataDeletionPossible       bool          `json:"data_deletion_possible"`
	PolicyURL                  string        `json:"policy_url,omitempty"`
}

// SessionType describes how the disclosure was started.
type SessionType string

const (
	SessionTypeSameDevice  SessionType = "same_device"
	SessionTypeCrossDevice SessionType = "cross_device"
)

// SessionTypeFor maps the QR code flag onto the session type.
func SessionTypeFor(isQRCode bool) SessionType {
	if isQRCode {
		return SessionTypeCrossDevice
	}
	return SessionTypeSameDevice
}

// RequestedAttestation is one attestation type (and its attributes) a relying party asks for.
type RequestedAttestation struct {
	AttestationType string   `json:"attestation_type"`
	AttributeKeys   []string `json:"attribute_keys"`
}

// DisclosureRequest is the relying party's request as resolved by the verifier client.
type DisclosureRequest struct {
	RelyingParty         Organization           `json:"relying_party"`
	Policy               RequestPolicy          `json:"policy"`
	Purpose              LocalizedStrings       `json:"purpose"`
	RequestOriginBaseURL string                 `json:"request_origin_base_url"`
	Requested            []RequestedAttestation `json:"requested"`
	// SessionToken identifies the session at the verifier.
	SessionToken string `json:"session_token,omitempty"`
}

// RequestedTypes lists the requested attestation types in request order.
func (r DisclosureRequest) RequestedTypes() []string {
	types := make([]string, 0, len(r.Requested))
	for _, ra := range r.Requested {
		types = append(types, ra.AttestationType)
	}
	return types
}

type StartDisclosureKind string

const (
	StartDisclosureRequest           StartDisclosureKind = "request"
	StartDisclosureAttributesMissing StartDisclosureKind = "request_attributes_missing"
)

// StartDisclosureResult is either a satisfiable Request or RequestAttributesMissing.
type StartDisclosureResult struct {
	Kind                             StartDisclosureKind `json:"kind"`
	RelyingParty                     Organization        `json:"relying_party"`
	Policy                           RequestPolicy       `json:"policy"`
	RequestedAttestations            []Attestation       `json:"requested_attestations,omitempty"`
	MissingAttributes                []string            `json:"missing_attributes,omitempty"`
	SharedDataWithRelyingPartyBefore bool                `json:"shared_data_with_relying_party_before"`
	SessionType                      SessionType         `json:"session_type"`
	RequestPurpose                   LocalizedStrings    `json:"request_purpose"`
	RequestOriginBaseURL             string              `json:"request_origin_base_url"`
	RequestType                      DisclosureType      `json:"request_type"`
}

// DisclosureOutcome is what the verifier returns after a successful disclosure.
type DisclosureOutcome struct {
	ReturnURL string `json:"return_url,omitempty"`
	// IssuanceOffer is set when the relying party offers attestations in return.
	IssuanceOffer *IssuanceOffer `json:"issuance_offer,omitempty"`
}

// AcceptDisclosureResult is returned by accept_disclosure.
type AcceptDisclosureResult struct {
	ReturnURL string `json:"return_url,omitempty"`
	// HasIssuanceOffer tells the caller to continue with continue_disclosure_based_issuance.
	HasIssuanceOffer bool          `json:"has_issuance_offer"`
	OfferedPreviews  []Attestation `json:"offered_previews,omitempty"`
}

// IdentifyURIResult classifies an inbound URI.
type IdentifyURIResult string

const (
	URIPidIssuance             IdentifyURIResult = "pid_issuance"
	URIDisclosure              IdentifyURIResult = "disclosure"
	URIDisclosureBasedIssuance IdentifyURIResult = "disclosure_based_issuance"
)
