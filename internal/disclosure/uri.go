package disclosure

import (
	"net/url"
	"strings"

	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

// Universal link paths below the configured base.
const (
	PathPidIssuance             = "return-from-digid"
	PathDisclosureBasedIssuance = "disclosure_based_issuance"
	PathDisclosure              = "disclosure"
)

// disclosureSchemes start a disclosure without a universal link.
var disclosureSchemes = []string{"openid4vp", "haip", "eudi-openid4vp"}

// IdentifyURI classifies an inbound URI. Issuance callbacks and disclosure
// requests can share a scheme, so the universal link path decides.
func IdentifyURI(uri, universalLinkBase string) (models.IdentifyURIResult, error) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" {
		return "", dErrors.New(dErrors.CodeValidation, "uri is malformed")
	}

	if rest, ok := strings.CutPrefix(uri, universalLinkBase); ok && universalLinkBase != "" {
		switch {
		case strings.HasPrefix(rest, PathPidIssuance):
			return models.URIPidIssuance, nil
		case strings.HasPrefix(rest, PathDisclosureBasedIssuance):
			return models.URIDisclosureBasedIssuance, nil
		case strings.HasPrefix(rest, PathDisclosure):
			return models.URIDisclosure, nil
		}
	}

	for _, scheme := range disclosureSchemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			return models.URIDisclosure, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "uri is not a wallet uri")
}
