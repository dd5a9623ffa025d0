// Package metrics exposes Prometheus instruments for table ingestion.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// Result labels for csvmatrix_ingest_files_total.
const (
	ResultOK         = "ok"
	ResultMalformed  = "malformed"
	ResultConversion = "conversion"
	ResultTooLarge   = "too_large"
	ResultOpen       = "open"
	ResultCanceled   = "canceled"
	ResultBusy       = "busy"
	ResultError      = "error"
)

// Metrics holds all Prometheus metrics for ingestion.
type Metrics struct {
	Files    *prometheus.CounterVec
	Rows     prometheus.Counter
	Bytes    prometheus.Counter
	Duration prometheus.Histogram
	Active   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "csvmatrix_ingest_files_total",
		Help: "Ingest attempts by result",
	}, []string{"result"})

	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csvmatrix_ingest_rows_total",
		Help: "Data rows ingested",
	})

	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "csvmatrix_ingest_bytes_total",
		Help: "Input bytes read by successful ingests",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "csvmatrix_ingest_duration_seconds",
		Help:    "Time spent reading and typing one input",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "csvmatrix_ingest_active",
		Help: "Ingests currently holding a limiter slot",
	})

	reg.MustRegister(files, rows, bytes, duration, active)

	return &Metrics{
		Files:    files,
		Rows:     rows,
		Bytes:    bytes,
		Duration: duration,
		Active:   active,
	}
}

// Observe records one finished ingest. rows and bytes only count on success.
func (m *Metrics) Observe(err error, rows int, bytes int64, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := Result(err)
	m.Files.WithLabelValues(result).Inc()
	m.Duration.Observe(elapsed.Seconds())
	if result == ResultOK {
		m.Rows.Add(float64(rows))
		m.Bytes.Add(float64(bytes))
	}
}

// Result maps an ingest error onto its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, core.ErrMalformedRow):
		return ResultMalformed
	case errors.Is(err, core.ErrNumericConversion):
		return ResultConversion
	case errors.Is(err, core.ErrFileTooLarge):
		return ResultTooLarge
	case errors.Is(err, core.ErrFileOpen):
		return ResultOpen
	case errors.Is(err, core.ErrTooManyIngests):
		return ResultBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}
