package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arbor/pkg/domain"
)

// Metrics holds Prometheus collectors for one engine.
type Metrics struct {
	Ticks     *prometheus.CounterVec
	Leaves    *prometheus.CounterVec
	Rollbacks prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the process-global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_ticks_total",
			Help: "Root ticks by resulting status.",
		}, []string{"status"}),
		Leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arbor_native_invocations_total",
			Help: "Native action invocations by name and status.",
		}, []string{"action", "status"}),
		Rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbor_rollbacks_total",
			Help: "Blackboard rollbacks triggered by sequence failures.",
		}),
	}
	reg.MustRegister(m.Ticks, m.Leaves, m.Rollbacks)
	return m
}

// Hooks adapts the collectors into engine callbacks.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnTick: func(tick int, status domain.Status) {
			m.Ticks.WithLabelValues(string(status)).Inc()
		},
		OnLeaf: func(name string, status domain.Status, err error) {
			m.Leaves.WithLabelValues(name, string(status)).Inc()
		},
		OnRollback: func(restored bool) {
			m.Rollbacks.Inc()
		},
	}
}

// Combine fans one callback set out to several, e.g. metrics plus a
// custom trace.
func Combine(hooks ...domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnTick: func(tick int, status domain.Status) {
			for _, h := range hooks {
				if h.OnTick != nil {
					h.OnTick(tick, status)
				}
			}
		},
		OnLeaf: func(name string, status domain.Status, err error) {
			for _, h := range hooks {
				if h.OnLeaf != nil {
					h.OnLeaf(name, status, err)
				}
			}
		},
		OnRollback: func(restored bool) {
			for _, h := range hooks {
				if h.OnRollback != nil {
					h.OnRollback(restored)
				}
			}
		},
	}
}
