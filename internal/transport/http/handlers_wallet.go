package httptransport

import (
	"net/http"

	"walletcore/internal/lock"
	"walletcore/pkg/platform/httputil"
)

func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.Init(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleIsInitialized(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, InitializedResponse{Initialized: h.wallet.IsInitialized()})
}

func (h *Handler) handleHasRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	registered, err := h.wallet.HasRegistration(ctx)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RegistrationResponse{Registered: registered})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.Register(ctx, req.Pin); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.ResetWallet(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.UnlockWallet(ctx, req.Pin); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleUnlockWithBiometrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.UnlockWalletWithBiometrics(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.wallet.LockWallet(ctx); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleLockState(w http.ResponseWriter, _ *http.Request) {
	state := h.wallet.LockState()
	httputil.WriteJSON(w, http.StatusOK, LockStateResponse{State: state, Locked: state != lock.StateUnlocked})
}

func (h *Handler) handleIsBiometricUnlockEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	enabled, err := h.wallet.IsBiometricUnlockEnabled(ctx)
	if err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BiometricUnlockResponse{Enabled: enabled})
}

func (h *Handler) handleSetBiometricUnlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[BiometricUnlockRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.SetBiometricUnlock(ctx, *req.Enabled); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BiometricUnlockResponse{Enabled: *req.Enabled})
}

func (h *Handler) handleAppBackgrounded(w http.ResponseWriter, r *http.Request) {
	h.wallet.AppBackgrounded(r.Context())
	noContent(w)
}

func (h *Handler) handleAppForegrounded(w http.ResponseWriter, r *http.Request) {
	h.wallet.AppForegrounded(r.Context())
	h.handleLockState(w, r)
}

func (h *Handler) handleIsValidPin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PinValidationResponse{Result: h.wallet.IsValidPin(req.Pin)})
}

func (h *Handler) handleCheckPin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.CheckPin(ctx, req.Pin); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleChangePin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[ChangePinRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.ChangePin(ctx, req.OldPin, req.NewPin); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handleContinueChangePin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := decodeRequest[PinRequest](h, w, r)
	if !ok {
		return
	}
	if err := h.wallet.ContinueChangePin(ctx, req.Pin); err != nil {
		h.writeError(ctx, w, r, err)
		return
	}
	noContent(w)
}

func (h *Handler) handlePinRetryState(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.wallet.PinRetryState())
}
