package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts backend calls and absorbed anomalies. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	FetchTotal      *prometheus.CounterVec
	UploadTotal     *prometheus.CounterVec
	SkippedRecords  *prometheus.CounterVec
	SupersededTotal prometheus.Counter
}

// NewMetrics registers the history counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roya",
				Name:      "history_fetch_total",
				Help:      "Photo history fetches by outcome",
			},
			[]string{"result"},
		),
		UploadTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roya",
				Name:      "upload_total",
				Help:      "Image uploads by outcome",
			},
			[]string{"result"},
		),
		SkippedRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "roya",
				Name:      "history_skipped_records_total",
				Help:      "Records dropped while building the history",
			},
			[]string{"reason"},
		),
		SupersededTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "roya",
				Name:      "history_superseded_total",
				Help:      "Fetch results discarded because a newer fetch was started",
			},
		),
	}
}

func (m *Metrics) fetchResult(result string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) uploadResult(result string) {
	if m == nil {
		return
	}
	m.UploadTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) recordsSkipped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SkippedRecords.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) superseded() {
	if m == nil {
		return
	}
	m.SupersededTotal.Inc()
}
