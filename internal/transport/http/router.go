package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"walletcore/pkg/platform/httputil"
	"walletcore/pkg/platform/middleware/request"
)

// operationTimeout bounds one request/response operation. It must exceed
// the slowest issuer or verifier round trip.
const operationTimeout = 60 * time.Second

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	metrics  *request.Metrics
	gatherer prometheus.Gatherer
}

// WithRequestMetrics records per-operation latency.
func WithRequestMetrics(m *request.Metrics) RouterOption {
	return func(c *routerConfig) {
		c.metrics = m
	}
}

// WithMetricsEndpoint serves the collectors of g on /metrics.
func WithMetricsEndpoint(g prometheus.Gatherer) RouterOption {
	return func(c *routerConfig) {
		c.gatherer = g
	}
}

// NewRouter wires every wallet operation and stream endpoint.
func NewRouter(h *Handler, logger *slog.Logger, opts ...RouterOption) http.Handler {
	cfg := &routerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.CorrelationID)
	r.Use(request.Logger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	// Streams are long-lived and stay outside the operation timeout.
	r.Get("/v1/streams/{stream}", h.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(operationTimeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.LatencyMiddleware(cfg.metrics))

		r.Route("/v1/wallet", func(r chi.Router) {
			r.Post("/init", h.handleInit)
			r.Get("/initialized", h.handleIsInitialized)
			r.Get("/registration", h.handleHasRegistration)
			r.Post("/register", h.handleRegister)
			r.Post("/reset", h.handleReset)
			r.Post("/unlock", h.handleUnlock)
			r.Post("/unlock/biometric", h.handleUnlockWithBiometrics)
			r.Post("/lock", h.handleLock)
			r.Get("/lock", h.handleLockState)
			r.Get("/biometric-unlock", h.handleIsBiometricUnlockEnabled)
			r.Put("/biometric-unlock", h.handleSetBiometricUnlock)
			r.Post("/app/background", h.handleAppBackgrounded)
			r.Post("/app/foreground", h.handleAppForegrounded)
		})

		r.Route("/v1/pin", func(r chi.Router) {
			r.Post("/validate", h.handleIsValidPin)
			r.Post("/check", h.handleCheckPin)
			r.Post("/change", h.handleChangePin)
			r.Post("/change/continue", h.handleContinueChangePin)
			r.Get("/retry-state", h.handlePinRetryState)
		})

		r.Route("/v1/issuance", func(r chi.Router) {
			r.Get("/", h.handleIssuanceState)
			r.Post("/cancel", h.handleCancelIssuance)
			r.Post("/pid", h.handleCreatePidIssuanceRedirectURI)
			r.Post("/pid/continue", h.handleContinuePidIssuance)
			r.Post("/pid/accept", h.handleAcceptPidIssuance)
			r.Post("/pid/cancel", h.handleCancelPidIssuance)
			r.Post("/disclosure-based/accept", h.handleContinueDisclosureBasedIssuance)
		})

		r.Post("/v1/uri/identify", h.handleIdentifyURI)

		r.Route("/v1/disclosure", func(r chi.Router) {
			r.Get("/", h.handleDisclosureState)
			r.Post("/", h.handleStartDisclosure)
			r.Post("/accept", h.handleAcceptDisclosure)
			r.Post("/cancel", h.handleCancelDisclosure)
		})

		r.Delete("/v1/streams/{stream}", h.handleClearStream)

		r.Get("/v1/history", h.handleGetHistory)
		r.Get("/v1/history/{attestationType}", h.handleGetHistoryForCard)
	})

	return r
}
