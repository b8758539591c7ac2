package httptransport

import (
	"net/http"

	"walletcore/pkg/platform/httputil"
	s "walletcore/pkg/string"
	"walletcore/pkg/validation"
)

type PinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

type ChangePinRequest struct {
	OldPin string `json:"old_pin" validate:"required"`
	NewPin string `json:"new_pin" validate:"required"`
}

type BiometricUnlockRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type URIRequest struct {
	URI string `json:"uri" validate:"required"`
}

type StartDisclosureRequest struct {
	URI      string `json:"uri" validate:"required"`
	IsQRCode bool   `json:"is_qr_code"`
}

// PINs are taken verbatim; URIs pasted or scanned by the UI may carry whitespace.
type sanitizer interface {
	sanitize()
}

func (r *URIRequest) sanitize()             { s.TrimStrings(&r.URI) }
func (r *StartDisclosureRequest) sanitize() { s.TrimStrings(&r.URI) }

// decodeRequest reads and validates the JSON body. On failure the error
// response is already written.
func decodeRequest[T any](h *Handler, w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[T](ctx, w, r, h.logger)
	if !ok {
		return nil, false
	}
	if sn, ok := any(req).(sanitizer); ok {
		sn.sanitize()
	}
	if err := validation.Validate(req); err != nil {
		h.writeError(ctx, w, r, err)
		return nil, false
	}
	return req, true
}
