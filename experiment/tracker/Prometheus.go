package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus exports placement decisions as Prometheus metrics. All
// metrics carry a policy label so that several policies can share one
// registry.
type Prometheus struct {
	placements *prometheus.CounterVec
	failures   *prometheus.CounterVec
	bytes      *prometheus.CounterVec

	latency *prometheus.HistogramVec
	energy  *prometheus.HistogramVec

	reward  *prometheus.GaugeVec
	loss    *prometheus.GaugeVec
	epsilon *prometheus.GaugeVec
}

// NewPrometheus registers the placement metrics with reg and returns a
// Tracker which updates them. Registering twice with the same registry
// panics, as with promauto.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		placements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drlplace_placements_total",
			Help: "Total number of tasks placed, by tier",
		}, []string{"policy", "tier"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drlplace_task_failures_total",
			Help: "Total number of placed tasks that failed",
		}, []string{"policy"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drlplace_network_bytes_total",
			Help: "Total number of task input bytes sent over the network",
		}, []string{"policy"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drlplace_task_latency_milliseconds",
			Help:    "Execution time of placed tasks",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		}, []string{"policy"}),
		energy: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drlplace_task_energy_joules",
			Help:    "Energy consumed by placed tasks",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"policy"}),
		reward: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drlplace_last_reward",
			Help: "Reward of the most recent placement",
		}, []string{"policy"}),
		loss: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drlplace_last_loss",
			Help: "Training loss of the most recent update",
		}, []string{"policy"}),
		epsilon: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "drlplace_exploration_rate",
			Help: "Current exploration rate of learning policies",
		}, []string{"policy"}),
	}
}

// Track implements the Tracker interface
func (p *Prometheus) Track(r Record) {
	p.placements.WithLabelValues(r.Policy, r.Tier.String()).Inc()
	if r.Outcome.Failed {
		p.failures.WithLabelValues(r.Policy).Inc()
	}
	p.bytes.WithLabelValues(r.Policy).Add(r.Outcome.NetworkBytes)

	p.latency.WithLabelValues(r.Policy).Observe(r.Outcome.ExecutionTimeMs)
	p.energy.WithLabelValues(r.Policy).Observe(r.Outcome.EnergyJoules)

	p.reward.WithLabelValues(r.Policy).Set(r.Reward)
	p.loss.WithLabelValues(r.Policy).Set(r.Loss)
	p.epsilon.WithLabelValues(r.Policy).Set(r.Epsilon)
}

// Save implements the Tracker interface. Metrics are scraped rather
// than saved, so Save does nothing.
func (p *Prometheus) Save() error {
	return nil
}
