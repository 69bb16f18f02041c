// Package metrics holds the Prometheus counters for reputation operations.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "patronscore"

// Metrics groups the domain counters.
type Metrics struct {
	recomputes     *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	flaggedLookups prometheus.Counter
	shares         *prometheus.CounterVec
	titleFallbacks *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_recomputes_total",
			Help:      "Aggregate recomputations by trigger and result.",
		}, []string{"trigger", "result"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_cache_lookups_total",
			Help:      "Aggregate cache reads by slot state.",
		}, []string{"state"}),
		flaggedLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flagged_lookups_total",
			Help:      "Lookups that returned a flagged customer.",
		}),
		shares: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_total",
			Help:      "Share requests by channel and outcome.",
		}, []string{"channel", "outcome"}),
		titleFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_title_fallbacks_total",
			Help:      "Generated titles replaced by the fallback template, by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.recomputes, m.cacheLookups, m.flaggedLookups, m.shares, m.titleFallbacks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Recompute counts an aggregate recomputation.
func (m *Metrics) Recompute(trigger string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.recomputes.WithLabelValues(trigger, result).Inc()
}

// CacheLookup counts a cache read that found the slot in state.
func (m *Metrics) CacheLookup(state string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(state).Inc()
}

// FlaggedLookup counts a lookup that returned a flagged profile.
func (m *Metrics) FlaggedLookup() {
	if m == nil {
		return
	}
	m.flaggedLookups.Inc()
}

// Share counts a publish attempt.
func (m *Metrics) Share(channel string, success bool) {
	if m == nil {
		return
	}
	outcome := "published"
	if !success {
		outcome = "failed"
	}
	m.shares.WithLabelValues(channel, outcome).Inc()
}

// TitleFallback counts a share title that fell back to the template.
func (m *Metrics) TitleFallback(reason string) {
	if m == nil {
		return
	}
	m.titleFallbacks.WithLabelValues(reason).Inc()
}
