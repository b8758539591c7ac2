package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the wallet core.
// All methods are safe on a nil receiver so services can run without metrics.
type Metrics struct {
	InstructionOutcomes *prometheus.CounterVec
	SessionTransitions  *prometheus.CounterVec
	StreamPublished     *prometheus.CounterVec
	StreamBackpressure  *prometheus.CounterVec
	LockTransitions     *prometheus.CounterVec
	ProviderPinFailures prometheus.Counter
	ActiveSessions      *prometheus.GaugeVec
}

// New creates the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InstructionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_instruction_outcomes_total",
			Help: "Gated instructions by name and outcome",
		}, []string{"instruction", "outcome"}),
		SessionTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_session_transitions_total",
			Help: "Issuance and disclosure session state transitions",
		}, []string{"kind", "state"}),
		StreamPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_stream_published_total",
			Help: "Values pushed to stream subscribers",
		}, []string{"stream"}),
		StreamBackpressure: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_stream_backpressure_total",
			Help: "Pushes refused because a subscriber buffer was full",
		}, []string{"stream"}),
		LockTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "walletd_lock_transitions_total",
			Help: "Lock state changes by target state and reason",
		}, []string{"state", "reason"}),
		ProviderPinFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "walletd_provider_pin_failures_total",
			Help: "Incorrect PIN or biometric proofs seen by the account server",
		}),
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "walletd_active_session",
			Help: "1 while a session of the given kind occupies the wallet",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementInstruction(instruction, outcome string) {
	if m == nil {
		return
	}
	m.InstructionOutcomes.WithLabelValues(instruction, outcome).Inc()
}

func (m *Metrics) IncrementSessionTransition(kind, state string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(kind, state).Inc()
}

func (m *Metrics) IncrementStreamPublished(stream string) {
	if m == nil {
		return
	}
	m.StreamPublished.WithLabelValues(stream).Inc()
}

func (m *Metrics) IncrementStreamBackpressure(stream string) {
	if m == nil {
		return
	}
	m.StreamBackpressure.WithLabelValues(stream).Inc()
}

func (m *Metrics) IncrementLockTransition(state, reason string) {
	if m == nil {
		return
	}
	m.LockTransitions.WithLabelValues(state, reason).Inc()
}

func (m *Metrics) IncrementProviderPinFailure() {
	if m == nil {
		return
	}
	m.ProviderPinFailures.Inc()
}

func (m *Metrics) SetSessionActive(kind string, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.ActiveSessions.WithLabelValues(kind).Set(v)
}
