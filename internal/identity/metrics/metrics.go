// Package metrics holds the identity service's Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	externalLogins *prometheus.CounterVec
	conflicts      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		externalLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "external_login_total",
			Help:      "Finished external login callbacks by provider and outcome.",
		}, []string{"provider", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "identity",
			Name:      "store_conflicts_total",
			Help:      "Uniqueness conflicts reported by the identity store.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.externalLogins, m.conflicts)
	return m
}

// ExternalLogin implements external.Observer.
func (m *Metrics) ExternalLogin(provider, outcome string) {
	if m == nil {
		return
	}
	m.externalLogins.WithLabelValues(provider, outcome).Inc()
}

// StoreConflict counts err when it is one of the store conflict errors.
func (m *Metrics) StoreConflict(err error) {
	if m == nil {
		return
	}
	if kind := conflictKind(err); kind != "" {
		m.conflicts.WithLabelValues(kind).Inc()
	}
}

func conflictKind(err error) string {
	switch {
	case errors.Is(err, store.ErrUserIDConflict):
		return "user_id"
	case errors.Is(err, store.ErrNameConflict):
		return "name"
	case errors.Is(err, store.ErrLinkEmailConflict):
		return "email"
	case errors.Is(err, store.ErrLinkProviderConflict):
		return "provider"
	default:
		return ""
	}
}
