package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

func TestMetrics_ObserveSuccess(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m)

	m.Observe(nil, 10, 512, 20*time.Millisecond)
	m.Observe(nil, 5, 128, 10*time.Millisecond)

	require.Equal(t, float64(2), testutil.ToFloat64(m.Files.WithLabelValues(ResultOK)))
	require.Equal(t, float64(15), testutil.ToFloat64(m.Rows))
	require.Equal(t, float64(640), testutil.ToFloat64(m.Bytes))
}

func TestMetrics_ObserveFailure(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	err := fmt.Errorf("read x.csv: %w", &core.MalformedRowError{Line: 3, Got: 2, Want: 3})
	m.Observe(err, 99, 1024, time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Files.WithLabelValues(ResultMalformed)))
	require.Equal(t, float64(0), testutil.ToFloat64(m.Rows))
	require.Equal(t, float64(0), testutil.ToFloat64(m.Bytes))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Observe(nil, 1, 1, time.Second)
}

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ResultOK},
		{"malformed", &core.MalformedRowError{Line: 1, Got: 1, Want: 2}, ResultMalformed},
		{"conversion", &core.NumericConversionError{Row: 0, Column: 0, Value: "."}, ResultConversion},
		{"too large", fmt.Errorf("read: %w", core.ErrFileTooLarge), ResultTooLarge},
		{"open", &core.FileOpenError{Path: "x", Err: errors.New("missing")}, ResultOpen},
		{"busy", core.ErrTooManyIngests, ResultBusy},
		{"canceled", context.Canceled, ResultCanceled},
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), ResultCanceled},
		{"other", errors.New("boom"), ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Result(tt.err))
		})
	}
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	// Vec families only show up after first use.
	m.Files.WithLabelValues(ResultOK).Add(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["csvmatrix_ingest_files_total"])
	require.True(t, names["csvmatrix_ingest_rows_total"])
	require.True(t, names["csvmatrix_ingest_bytes_total"])
	require.True(t, names["csvmatrix_ingest_duration_seconds"])
	require.True(t, names["csvmatrix_ingest_active"])
}
