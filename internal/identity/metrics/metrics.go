package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"parsid/internal/identity/wizard"
	dErrors "parsid/pkg/domain-errors"
)

// Metrics provides observability for identity minting.
type Metrics struct {
	// Successful wizard transitions by action and target step
	Transitions *prometheus.CounterVec

	// Rejected wizard actions by error code
	Rejections *prometheus.CounterVec

	// Mint outcomes ("success" or error code) and latency
	MintOutcome *prometheus.CounterVec
	MintLatency prometheus.Histogram

	// Registrar client calls by outcome ("success" or category)
	RegistrarCalls   *prometheus.CounterVec
	RegistrarLatency prometheus.Histogram

	ActiveWizards prometheus.Gauge
}

// New registers the identity metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parsid_wizard_transitions_total",
			Help: "Successful wizard transitions by action and target step",
		}, []string{"action", "to"}),

		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parsid_wizard_rejections_total",
			Help: "Rejected wizard actions by action and error code",
		}, []string{"action", "code"}),

		MintOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parsid_mint_outcomes_total",
			Help: "Mint attempts by outcome",
		}, []string{"outcome"}),

		MintLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "parsid_mint_duration_seconds",
			Help:    "Duration of mint attempts including commitment derivation and registration",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		RegistrarCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "parsid_registrar_calls_total",
			Help: "Registrar client calls by outcome",
		}, []string{"outcome"}),

		RegistrarLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "parsid_registrar_call_duration_seconds",
			Help:    "Duration of registrar client calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}),

		ActiveWizards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "parsid_active_wizards",
			Help: "Wizard sessions currently held in memory",
		}),
	}
}

func (m *Metrics) ObserveTransition(action string, _, to wizard.Step) {
	if m != nil {
		m.Transitions.WithLabelValues(action, string(to)).Inc()
	}
}

func (m *Metrics) ObserveRejection(action string, code dErrors.Code) {
	if m != nil {
		m.Rejections.WithLabelValues(action, string(code)).Inc()
	}
}

func (m *Metrics) ObserveMint(outcome string, elapsed time.Duration) {
	if m != nil {
		m.MintOutcome.WithLabelValues(outcome).Inc()
		m.MintLatency.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveRegistrarCall(outcome string, elapsed time.Duration) {
	if m != nil {
		m.RegistrarCalls.WithLabelValues(outcome).Inc()
		m.RegistrarLatency.Observe(elapsed.Seconds())
	}
}

// SetActiveWizards publishes the current session count.
func (m *Metrics) SetActiveWizards(n int) {
	if m != nil {
		m.ActiveWizards.Set(float64(n))
	}
}
