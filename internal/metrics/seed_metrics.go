package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	seedRunDuration    *prometheus.HistogramVec
	seedRunsTotal      *prometheus.CounterVec
	seedPatientsStored *prometheus.CounterVec
)

// initializeSeedMetrics initializes seeding metrics if they haven't been initialized yet
func initializeSeedMetrics() {
	if seedRunDuration != nil {
		return
	}

	seedRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seed_run_duration_seconds",
			Help:    "Time spent loading sample patient records",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	seedRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seed_runs_total",
			Help: "Total number of sample data load runs",
		},
		[]string{"status"},
	)

	seedPatientsStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seed_patients_total",
			Help: "Patient records handled during seeding",
		},
		[]string{"outcome"}, // "generated", "stored", "failed"
	)

	mm := GetInstance()
	mm.registry.MustRegister(
		seedRunDuration,
		seedRunsTotal,
		seedPatientsStored,
	)
}

// RecordSeedRun records the outcome of one sample data load.
func RecordSeedRun(start time.Time, status string, generated, stored, failed int) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}
	initializeSeedMetrics()

	seedRunDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	seedRunsTotal.WithLabelValues(status).Inc()
	seedPatientsStored.WithLabelValues("generated").Add(float64(generated))
	seedPatientsStored.WithLabelValues("stored").Add(float64(stored))
	seedPatientsStored.WithLabelValues("failed").Add(float64(failed))
}
