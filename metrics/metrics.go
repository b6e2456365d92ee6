// Package metrics exports auth activity as prometheus counters.
package metrics

import (
	"context"
	"net/http"

	auth "github.com/goliatone/go-auth-dwsp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dwsp_auth"

// ActivitySink counts auth.ActivityEvents by type and outcome reason.
type ActivitySink struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	accounts *prometheus.CounterVec
}

var _ auth.ActivitySink = (*ActivitySink)(nil)

// NewActivitySink registers the collectors on a fresh registry, together
// with the go runtime and process collectors.
func NewActivitySink() *ActivitySink {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewActivitySinkWithRegistry(registry)
}

// NewActivitySinkWithRegistry registers the collectors on registry.
func NewActivitySinkWithRegistry(registry *prometheus.Registry) *ActivitySink {
	s := &ActivitySink{
		registry: registry,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_total",
			Help:      "Auth activity events by type and reason.",
		}, []string{"event", "reason"}),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Accounts created by origin.",
		}, []string{"origin"}),
	}
	registry.MustRegister(s.events, s.accounts)
	return s
}

// Record implements auth.ActivitySink.
func (s *ActivitySink) Record(_ context.Context, event auth.ActivityEvent) error {
	reason, _ := event.Metadata["reason"].(string)
	s.events.WithLabelValues(string(event.EventType), reason).Inc()

	switch event.EventType {
	case auth.ActivityEventRegisterSuccess:
		s.accounts.WithLabelValues("local").Inc()
	case auth.ActivityEventDelegatedSignup:
		s.accounts.WithLabelValues("delegated").Inc()
	}
	return nil
}

// Registry returns the registry backing the sink.
func (s *ActivitySink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the prometheus exposition format.
func (s *ActivitySink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
