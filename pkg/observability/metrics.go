package observability

import (
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "prism"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	ports       *prometheus.CounterVec
	memberReads *prometheus.CounterVec
	cacheHits   *prometheus.CounterVec
	evictions   prometheus.Counter
	cacheSize   prometheus.Gauge
	rebinds     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "port_events_total",
			Help:      "Ports created, retyped and removed.",
		}, []string{"node", "event"}),
		memberReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "split",
			Name:      "member_reads_total",
			Help:      "Member values obtained by reflection.",
		}, []string{"node"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Member values copied from the object cache.",
		}, []string{"node"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Cache entries evicted after falling out of the usable window.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "size",
			Help:      "Live cache entries after the last eviction checkpoint.",
		}),
		rebinds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rebind",
			Name:      "transitions_total",
			Help:      "Type transitions of rebinding groups.",
		}, []string{"group", "type"}),
	}
	if reg != nil {
		for _, c := range m.Collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.ports, m.memberReads, m.cacheHits, m.evictions, m.cacheSize, m.rebinds}
}

// Hooks returns lifecycle hooks updating the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	port := func(e *domain.PortEvent) {
		m.ports.WithLabelValues(e.Node, string(e.Type)).Inc()
	}
	return domain.LifecycleHooks{
		OnPortCreated: port,
		OnPortRetyped: port,
		OnPortRemoved: port,
		OnMemberRead: func(e *domain.MemberEvent) {
			m.memberReads.WithLabelValues(e.Node).Inc()
		},
		OnCacheHit: func(e *domain.MemberEvent) {
			m.cacheHits.WithLabelValues(e.Node).Inc()
		},
		OnCacheEvicted: func(e *domain.CacheEvent) {
			m.evictions.Add(float64(e.Evicted))
			m.cacheSize.Set(float64(e.Remaining))
		},
		OnTypeChangeEnd: func(e *domain.RebindEvent) {
			m.rebinds.WithLabelValues(e.Group, typeinfo.Name(e.To)).Inc()
		},
	}
}
