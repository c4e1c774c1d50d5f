package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RecognizerStats provides scrape-time access to recognizer state. Reads
// must not construct the recognizer: a scrape against an idle process
// reports the model as unloaded.
type RecognizerStats interface {
	Loaded() bool
	Completed() int64
	Failed() int64
}

// Collector implements prometheus.Collector to read live recognizer state at
// scrape time.
type Collector struct {
	stats RecognizerStats

	modelLoaded *prometheus.Desc
	completed   *prometheus.Desc
	failed      *prometheus.Desc
}

// NewCollector creates a collector over the lazy recognizer holder.
func NewCollector(stats RecognizerStats) *Collector {
	return &Collector{
		stats: stats,
		modelLoaded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "model_loaded"),
			"Whether the recognition model has been constructed (1) or not (0).",
			nil, nil,
		),
		completed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "recognizer_completed_total"),
			"Transcriptions completed by the recognizer.",
			nil, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "recognizer_failed_total"),
			"Transcriptions that ended in the failure variant.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.modelLoaded
	ch <- c.completed
	ch <- c.failed
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	loaded := 0.0
	if c.stats.Loaded() {
		loaded = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.modelLoaded, prometheus.GaugeValue, loaded)
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(c.stats.Completed()))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(c.stats.Failed()))
}
