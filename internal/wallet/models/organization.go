package models

type LocalizedString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type LocalizedStrings []LocalizedString

// Get returns the value for lang, falling back to the first entry.
func (l LocalizedStrings) Get(lang string) string {
	for _, s := range l {
		if s.Lang == lang {
			return s.Value
		}
	}
	if len(l) > 0 {
		return l[0].Value
	}
	return ""
}

// Organization describes an issuer or relying party.
type Organization struct {
	LegalName          LocalizedStrings `json:"legal_name"`
	DisplayName        LocalizedStrings `json:"display_name"`
	Description        LocalizedStrings `json:"description,omitempty"`
	Image              *Image           `json:"image,omitempty"`
	WebURL             string           `json:"web_url,omitempty"`
	PrivacyPolicyURL   string           `json:"privacy_policy_url,omitempty"`
	RegistrationNumber string           `json:"registration_number,omitempty"`
	City               LocalizedStrings `json:"city,omitempty"`
	Category           LocalizedStrings `json:"category,omitempty"`
	Department         LocalizedStrings `json:"department,omitempty"`
	CountryCode        string           `json:"country_code,omitempty"`
}

// SameParty reports whether o and other are the same organization,
// matched on legal name and registration number.
func (o Organization) SameParty(other Organization) bool {
	if o.RegistrationNumber != other.RegistrationNumber || len(o.LegalName) != len(other.LegalName) {
		return false
	}
	for i := range o.LegalName {
		if o.LegalName[i] != other.LegalName[i] {
			return false
		}
	}
	return true
}
