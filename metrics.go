package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline activity on a Prometheus registry. A nil
// *Metrics records nothing.
type Metrics struct {
	superimpositions prometheus.Counter
	merges           prometheus.Counter
	mergeRMSD        prometheus.Histogram
	clusters         prometheus.Gauge
	realigned        prometheus.Counter
}

// NewMetrics creates the consensus metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		superimpositions: f.NewCounter(prometheus.CounterOpts{
			Name: "consensus_superimpositions_total",
			Help: "Pairwise superimpositions computed",
		}),
		merges: f.NewCounter(prometheus.CounterOpts{
			Name: "consensus_merges_total",
			Help: "Observation pairs merged into a consensus",
		}),
		mergeRMSD: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "consensus_merge_rmsd",
			Help:    "RMSD of each merged pair",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 0.01 to ~20
		}),
		clusters: f.NewGauge(prometheus.GaugeOpts{
			Name: "consensus_clusters",
			Help: "Clusters produced by the most recent split",
		}),
		realigned: f.NewCounter(prometheus.CounterOpts{
			Name: "consensus_realigned_observations_total",
			Help: "Observations realigned onto their cluster consensus",
		}),
	}
}

func (m *Metrics) observeSuperimpositions(n int) {
	if m != nil {
		m.superimpositions.Add(float64(n))
	}
}

func (m *Metrics) observeMerge(rmsd float64) {
	if m != nil {
		m.merges.Inc()
		m.mergeRMSD.Observe(rmsd)
	}
}

func (m *Metrics) observeClusters(n int) {
	if m != nil {
		m.clusters.Set(float64(n))
	}
}

func (m *Metrics) observeRealigned(n int) {
	if m != nil {
		m.realigned.Add(float64(n))
	}
}
