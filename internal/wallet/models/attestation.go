package models

// The PID and the attribute that identifies its holder. A disclosure request
// asking only for the identifier is a login.
const (
	PidAttestationType     = "urn:eudi:pid:nl:1"
	PidIdentifierAttribute = "bsn"
)

// IdentityKind distinguishes stored attestations from ones that only exist for a preview.
type IdentityKind string

const (
	IdentityFixed     IdentityKind = "fixed"
	IdentityEphemeral IdentityKind = "ephemeral"
)

// AttestationIdentity is the stable key of an owned attestation.
type AttestationIdentity struct {
	Kind IdentityKind `json:"kind"`
	ID   string       `json:"id,omitempty"`
}

func FixedIdentity(id string) AttestationIdentity {
	return AttestationIdentity{Kind: IdentityFixed, ID: id}
}

// Key returns the store key, empty for ephemeral identities.
func (i AttestationIdentity) Key() string {
	if i.Kind != IdentityFixed {
		return ""
	}
	return i.ID
}

// Attestation is a verifiable credential ("card") held by the wallet.
type Attestation struct {
	Identity        AttestationIdentity    `json:"identity"`
	AttestationType string                 `json:"attestation_type"`
	DisplayMetadata []DisplayMetadata      `json:"display_metadata"`
	Issuer          Organization           `json:"issuer"`
	Attributes      []AttestationAttribute `json:"attributes"`
}

// DisplayMetadata is one locale's rendering information.
type DisplayMetadata struct {
	Lang        string             `json:"lang"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Summary     string             `json:"summary,omitempty"`
	Rendering   *RenderingMetadata `json:"rendering,omitempty"`
}

type RenderingMetadata struct {
	Logo            *Image `json:"logo,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	SvgTemplates    bool   `json:"svg_templates,omitempty"`
}

type Image struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
	AltText  string `json:"alt_text,omitempty"`
}

type ClaimLabel struct {
	Lang        string `json:"lang"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type AttestationAttribute struct {
	Key    string         `json:"key"`
	Labels []ClaimLabel   `json:"labels"`
	Value  AttributeValue `json:"value"`
	SvgID  string         `json:"svg_id,omitempty"`
}

type ValueKind string

const (
	ValueString  ValueKind = "string"
	ValueBoolean ValueKind = "boolean"
	ValueNumber  ValueKind = "number"
	ValueDate    ValueKind = "date"
)

// AttributeValue is a tagged union; only the field matching Kind is meaningful.
type AttributeValue struct {
	Kind   ValueKind `json:"kind"`
	String string    `json:"string,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
	Number int64     `json:"number,omitempty"`
	Date   string    `json:"date,omitempty"`
}

func StringValue(v string) AttributeValue { return AttributeValue{Kind: ValueString, String: v} }
func BoolValue(v bool) AttributeValue     { return AttributeValue{Kind: ValueBoolean, Bool: v} }
func NumberValue(v int64) AttributeValue  { return AttributeValue{Kind: ValueNumber, Number: v} }

// DateValue takes an ISO 8601 calendar date.
func DateValue(v string) AttributeValue { return AttributeValue{Kind: ValueDate, Date: v} }

// AttributeKeys lists the attribute keys in order.
func (a Attestation) AttributeKeys() []string {
	keys := make([]string, 0, len(a.Attributes))
	for _, attr := range a.Attributes {
		keys = append(keys, attr.Key)
	}
	return keys
}
