package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"walletcore/pkg/platform/httputil"
)

func (h *Handler) handleIssuanceState(w http.ResponseWriter, _ *http.Request) {
	pid := h.wallet.HasActivePidIssuanceSession()
	httputil.WriteJSON(w, http.StatusOK, SessionStateResponse{
		Active:    h.wallet.HasActiveIssuanceSession(),
		PidActive: &pid,
	})
}

func (h *Handler) handleCreatePidIssuanceRedirectURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uri, err := h.wallet.CreatePidIssuanceRedirectURI(ctx)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RedirectURIResponse{RedirectURI: uri})
}

func (h *Handler) handleContinuePidIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[URIRequest](h, w, r)
	if !ok {
		return
	}
	previews, err := h.wallet.ContinuePidIssuance(ctx, req.URI)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AttestationsResponse{Attestations: previews})
}

func (h *Handler) handleAcceptPidIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	issued, err := h.wallet.AcceptPidIssuance(ctx, req.Pin)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AttestationsResponse{Attestations: issued})
}

func (h *Handler) handleContinueDisclosureBasedIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	issued, err := h.wallet.ContinueDisclosureBasedIssuance(ctx, req.Pin)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AttestationsResponse{Attestations: issued})
}

func (h *Handler) handleCancelIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.CancelIssuance(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleCancelPidIssuance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.CancelPidIssuance(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleIdentifyURI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[URIRequest](h, w, r)
	if !ok {
		return
	}
	kind, err := h.wallet.IdentifyURI(ctx, req.URI)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IdentifyURIResponse{Kind: kind})
}

func (h *Handler) handleDisclosureState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, SessionStateResponse{Active: h.wallet.HasActiveDisclosureSession()})
}

func (h *Handler) handleStartDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[StartDisclosureRequest](h, w, r)
	if !ok {
		return
	}
	result, err := h.wallet.StartDisclosure(ctx, req.URI, req.IsQRCode)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAcceptDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	result, err := h.wallet.AcceptDisclosure(ctx, req.Pin)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCancelDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	returnURL, err := h.wallet.CancelDisclosure(ctx)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ReturnURLResponse{ReturnURL: returnURL})
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.wallet.GetHistory(ctx)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Events: events})
}

func (h *Handler) handleGetHistoryForCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	events, err := h.wallet.GetHistoryForCard(ctx, chi.URLParam(r, "attestationType"))
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{Events: events})
}
