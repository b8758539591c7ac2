package httptransport

import (
	"context"
	"net/http"

	"walletcore/internal/lock"
	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/httputil"
	"walletcore/pkg/requestcontext"
)

type InitializedResponse struct {
	Initialized bool `json:"initialized"`
}

type RegistrationResponse struct {
	Registered bool `json:"registered"`
}

type PinValidationResponse struct {
	Result models.PinValidationResult `json:"result"`
}

type LockStateResponse struct {
	State  lock.State `json:"state"`
	Locked bool       `json:"locked"`
}

type BiometricUnlockResponse struct {
	Enabled bool `json:"enabled"`
}

type RedirectURIResponse struct {
	RedirectURI string `json:"redirect_uri"`
}

type AttestationsResponse struct {
	Attestations []models.Attestation `json:"attestations"`
}

type SessionStateResponse struct {
	Active    bool  `json:"active"`
	PidActive *bool `json:"pid_active,omitempty"`
}

type IdentifyURIResponse struct {
	Kind models.IdentifyURIResult `json:"kind"`
}

type ReturnURLResponse struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type HistoryResponse struct {
	Events []models.WalletEvent `json:"events"`
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError logs the failed operation and writes the mapped error response.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	if h.logger != nil {
		attrs := []any{
			"path", r.URL.Path,
			"code", string(code),
			"error", err,
			"correlation_id", requestcontext.CorrelationID(ctx),
		}
		if code == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "wallet operation failed", attrs...)
		} else {
			h.logger.InfoContext(ctx, "wallet operation rejected", attrs...)
		}
	}
	httputil.WriteError(w, err)
}
