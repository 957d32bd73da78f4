// Package metrics exposes the per-stage Prometheus instrumentation for the
// interpretation pipeline: the StageMetrics entity added by SPEC_FULL.md.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms shared by every pipeline
// stage. One instance is created per Session and passed to every stage
// task; stages only ever touch their own labeled series.
type Metrics struct {
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	SpeechSegments  prometheus.Counter
	QueueDepth      *prometheus.GaugeVec
	AudioFramesDrop prometheus.Counter
}

// New registers and returns a fresh Metrics set against reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siminterp_stage_duration_seconds",
			Help:    "Duration of one unit of work in a pipeline stage.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		StageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siminterp_stage_errors_total",
			Help: "Count of non-fatal errors encountered per stage.",
		}, []string{"stage", "kind"}),
		SpeechSegments: factory.NewCounter(prometheus.CounterOpts{
			Name: "siminterp_speech_segments_total",
			Help: "Count of utterances finalized by the segmenter.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "siminterp_queue_depth",
			Help: "Current depth of a bounded inter-stage queue.",
		}, []string{"queue"}),
		AudioFramesDrop: factory.NewCounter(prometheus.CounterOpts{
			Name: "siminterp_audio_frames_dropped_total",
			Help: "Count of silence frames dropped under backpressure.",
		}),
	}
}
