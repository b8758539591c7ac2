package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "walletcore/pkg/domain-errors"
)

// Detailed is implemented by errors that carry structured data the caller must render,
// such as remaining PIN attempts or a timeout duration.
type Detailed interface {
	ErrorDetail() any
}

// ErrorResponse is the JSON body of every failed operation.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Detail      any    `json:"detail,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into an HTTP status and JSON body.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if !errors.As(err, &domainErr) {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: string(dErrors.CodeInternal)})
		return
	}
	resp := ErrorResponse{Error: string(domainErr.Code), Description: domainErr.Message}
	var detailed Detailed
	if errors.As(err, &detailed) {
		resp.Detail = detailed.ErrorDetail()
	}
	WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), resp)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeSessionState:
		return http.StatusConflict
	case dErrors.CodeInstruction:
		return http.StatusForbidden
	case dErrors.CodeBlocked:
		return http.StatusLocked
	case dErrors.CodeLocked, dErrors.CodeNotRegistered:
		return http.StatusPreconditionFailed
	case dErrors.CodeNetwork, dErrors.CodeProtocol:
		return http.StatusBadGateway
	case dErrors.CodeVersionBlocked:
		return http.StatusUpgradeRequired
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
