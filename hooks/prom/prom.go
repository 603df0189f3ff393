// Package promhooks counts cache events as Prometheus metrics.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/swrcache"
)

// Hooks exposes:
//
//	<ns>_lookups_total{state}
//	<ns>_refreshes_total{outcome}        scheduled | skipped | failed
//	<ns>_decode_failures_total
//	<ns>_provider_errors_total{op}
//	<ns>_provider_set_rejected_total
//	<ns>_prefix_invalidated_keys_total
//
// Keys are never used as labels.
type Hooks struct {
	lookups       *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	decodeFails   prometheus.Counter
	providerErrs  *prometheus.CounterVec
	setRejected   prometheus.Counter
	prefixDeleted prometheus.Counter
}

var _ swrcache.Hooks = (*Hooks)(nil)

// New builds the collectors and registers them with reg.
func New(namespace string, reg prometheus.Registerer) (*Hooks, error) {
	h := &Hooks{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Fetch lookups by entry state",
			},
			[]string{"state"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refreshes_total",
				Help:      "Stale-while-revalidate refreshes by outcome",
			},
			[]string{"outcome"},
		),
		decodeFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Stored entries that failed to decode",
		}),
		providerErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Backing store failures by operation",
			},
			[]string{"op"},
		),
		setRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_set_rejected_total",
			Help:      "Writes the backing store refused under pressure",
		}),
		prefixDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prefix_invalidated_keys_total",
			Help:      "Keys removed by prefix invalidation",
		}),
	}
	for _, c := range []prometheus.Collector{
		h.lookups, h.refreshes, h.decodeFails, h.providerErrs, h.setRejected, h.prefixDeleted,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Lookup(_ string, s swrcache.State) { h.lookups.WithLabelValues(s.String()).Inc() }
func (h *Hooks) RefreshScheduled(string)           { h.refreshes.WithLabelValues("scheduled").Inc() }
func (h *Hooks) RefreshSkipped(string)             { h.refreshes.WithLabelValues("skipped").Inc() }
func (h *Hooks) RefreshFailed(string, error)       { h.refreshes.WithLabelValues("failed").Inc() }
func (h *Hooks) DecodeFailed(string, error)        { h.decodeFails.Inc() }
func (h *Hooks) ProviderError(op, _ string, _ error) {
	h.providerErrs.WithLabelValues(op).Inc()
}
func (h *Hooks) ProviderSetRejected(string) { h.setRejected.Inc() }
func (h *Hooks) PrefixInvalidated(_ string, n int) {
	h.prefixDeleted.Add(float64(n))
}
