package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	PipelineLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cryptopulse",
			Subsystem: "pipeline",
			Name:      "latency_seconds",
			Help:      "Latency of pipeline endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PipelineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cryptopulse",
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Errors by pipeline endpoint",
		},
		[]string{"endpoint"},
	)

	ModelTestAccuracy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cryptopulse",
			Subsystem: "pipeline",
			Name:      "model_test_accuracy",
			Help:      "Held-out accuracy of the current model artifact",
		},
	)

	PredictionProbability = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cryptopulse",
			Subsystem: "pipeline",
			Name:      "last_probability_up",
			Help:      "Probability of the positive class from the last prediction",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(PipelineLatency, PipelineErrors, ModelTestAccuracy, PredictionProbability)
	})
}
