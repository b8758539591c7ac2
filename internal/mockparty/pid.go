package mockparty

import "walletcore/internal/wallet/models"

// RvIG is the issuer of the reference PID.
var RvIG = models.Organization{
	LegalName:          models.LocalizedStrings{{Lang: "nl", Value: "Rijksdienst voor Identiteitsgegevens"}, {Lang: "en", Value: "Identity Data Service"}},
	DisplayName:        models.LocalizedStrings{{Lang: "nl", Value: "RvIG"}, {Lang: "en", Value: "RvIG"}},
	WebURL:             "https://www.rvig.nl",
	RegistrationNumber: "27373207",
	CountryCode:        "nl",
}

// PidAttestation builds a PID for the holder identified by bsn.
func PidAttestation(bsn, givenName, familyName string) models.Attestation {
	return models.Attestation{
		AttestationType: models.PidAttestationType,
		DisplayMetadata: []models.DisplayMetadata{
			{Lang: "nl", Name: "Persoonsgegevens", Summary: givenName},
			{Lang: "en", Name: "Personal data", Summary: givenName},
		},
		Issuer: RvIG,
		Attributes: []models.AttestationAttribute{
			attribute(models.PidIdentifierAttribute, "BSN", "BSN", models.StringValue(bsn)),
			attribute("given_name", "Voornamen", "Given names", models.StringValue(givenName)),
			attribute("family_name", "Achternaam", "Family name", models.StringValue(familyName)),
			attribute("birth_date", "Geboortedatum", "Birth date", models.DateValue("1997-05-10")),
			attribute("age_over_18", "18 jaar of ouder", "Over 18", models.BoolValue(true)),
		},
	}
}

func attribute(key, nl, en string, value models.AttributeValue) models.AttestationAttribute {
	return models.AttestationAttribute{
		Key:    key,
		Labels: []models.ClaimLabel{{Lang: "nl", Label: nl}, {Lang: "en", Label: en}},
		Value:  value,
	}
}
