package models

// IssuanceOffer is a set of attestation previews an issuer is prepared to sign.
// Token is opaque protocol state echoed back to the issuer on accept.
type IssuanceOffer struct {
	Token    string        `json:"token"`
	Previews []Attestation `json:"previews"`
}

// AuthorizationRedirect is the external authorization step of PID issuance.
type AuthorizationRedirect struct {
	URL   string `json:"url"`
	State string `json:"state"`
}
