package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hybrid_routing"

// Metrics bundles the engine's prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	MatchRatio      prometheus.Gauge
	MappedEdges     prometheus.Gauge
	TrafficCycles   *prometheus.CounterVec
	AvgSpeed        prometheus.Gauge
	UpdatedEdges    prometheus.Gauge
	ClampedSamples  prometheus.Counter
	CycleDuration   prometheus.Histogram
	Routes          *prometheus.CounterVec
	RemoteFallbacks *prometheus.CounterVec
	Heals           *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MatchRatio: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "match_ratio",
			Help:      "Share of graph edges mapped to a traffic segment.",
		}),
		MappedEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mapped_edges",
			Help:      "Number of graph edges mapped to a traffic segment.",
		}),
		TrafficCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traffic_cycles_total",
			Help:      "Traffic update cycles by outcome.",
		}, []string{"outcome"}),
		AvgSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "traffic_avg_speed_kmh",
			Help:      "Mean current speed over mapped edges after the last cycle.",
		}),
		UpdatedEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "traffic_updated_edges",
			Help:      "Edges updated in the last traffic cycle.",
		}),
		ClampedSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traffic_clamped_samples_total",
			Help:      "Speed samples raised to the floor speed.",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "traffic_cycle_duration_seconds",
			Help:      "Duration of traffic update cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		Routes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Planned routes by provenance and cost mode.",
		}, []string{"provenance", "mode"}),
		RemoteFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fallbacks_total",
			Help:      "Requests delegated to the remote router by reason.",
		}, []string{"reason"}),
		Heals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heals_total",
			Help:      "Healer runs by result.",
		}, []string{"result"}),
	}
}

func (self *Metrics) ObserveMatch(mapped int, ratio float64) {
	if self == nil {
		return
	}
	self.MappedEdges.Set(float64(mapped))
	self.MatchRatio.Set(ratio)
}

func (self *Metrics) ObserveCycle(outcome string, updated int, clamped int, avg_speed float64, duration time.Duration) {
	if self == nil {
		return
	}
	self.TrafficCycles.WithLabelValues(outcome).Inc()
	self.CycleDuration.Observe(duration.Seconds())
	if outcome != "ok" {
		return
	}
	self.UpdatedEdges.Set(float64(updated))
	self.ClampedSamples.Add(float64(clamped))
	self.AvgSpeed.Set(avg_speed)
}

func (self *Metrics) ObserveRoute(provenance string, mode string) {
	if self == nil {
		return
	}
	self.Routes.WithLabelValues(provenance, mode).Inc()
}

func (self *Metrics) ObserveFallback(reason string) {
	if self == nil {
		return
	}
	self.RemoteFallbacks.WithLabelValues(reason).Inc()
}

func (self *Metrics) ObserveHeal(changed bool) {
	if self == nil {
		return
	}
	if changed {
		self.Heals.WithLabelValues("healed").Inc()
	} else {
		self.Heals.WithLabelValues("noop").Inc()
	}
}
