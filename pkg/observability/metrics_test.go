package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justjake/fntimer/pkg/config"
	"github.com/justjake/fntimer/pkg/harness"
	"github.com/justjake/fntimer/pkg/timer"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func costly(clock *fakeClock, name string, cost time.Duration) timer.Candidate {
	return timer.Func(name, func(v any) any {
		clock.now += cost
		return v
	})
}

func quietHarness(clock timer.Clock, obs harness.Observer, opts ...harness.Option) *harness.Harness {
	base := []harness.Option{
		harness.WithClock(clock),
		harness.WithObserver(obs),
		harness.WithOutput(io.Discard),
		harness.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return harness.New(append(base, opts...)...)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordResult(timer.RunResult{Name: "x"})
		m.RecordFault()
		m.RecordRanking(nil)
		m.CheckpointSampled(context.Background(), "x", timer.CalibrationState{})
		m.CandidateFinished(context.Background(), harness.Outcome{})
		m.RunFinished(context.Background(), nil, nil)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "unused.prom")))
}

func TestMetrics_RecordsHarnessRun(t *testing.T) {
	m := NewMetrics(nil)
	clock := &fakeClock{}
	h := quietHarness(clock, m)

	_, err := h.Measure(context.Background(), timer.Single("x"),
		costly(clock, "fast", time.Millisecond),
		costly(clock, "slow", 4*time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("success")))
	assert.Equal(t, 990.0, testutil.ToFloat64(m.Iterations.WithLabelValues("fast")))
	assert.InDelta(t, 1000.0, testutil.ToFloat64(m.OpsPerSecond.WithLabelValues("fast")), 1e-6)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalibrationSteps.WithLabelValues("fast")))
	assert.InDelta(t, 75.0, testutil.ToFloat64(m.PercentSlower.WithLabelValues("slow")), 0.5)
	assert.Zero(t, testutil.ToFloat64(m.PercentSlower.WithLabelValues("fast")))

	// One short sample at 10, one usable sample at 100.
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckpointSamplesTotal.WithLabelValues("fast", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckpointSamplesTotal.WithLabelValues("fast", "true")))
}

func TestMetrics_RecordsFaults(t *testing.T) {
	m := NewMetrics(nil)
	h := quietHarness(&fakeClock{}, m)

	_, err := h.Measure(context.Background(), timer.Single("x"),
		timer.Func("bad", func(any) (any, error) { return nil, errors.New("bad input") }))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("error")))
	assert.Zero(t, testutil.CollectAndCount(m.OpsPerSecond))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics(map[string]string{"host": "ci"})
	m.RecordResult(timer.RunResult{Name: "forI", Iterations: 500, Elapsed: time.Second})
	m.RunFinished(context.Background(), nil, nil)

	path := filepath.Join(t.TempDir(), "fntimer.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `fntimer_runs_total{host="ci",status="success"} 1`)
	assert.Contains(t, text, `fntimer_candidate_ops_per_second{candidate="forI",host="ci"} 500`)
	assert.Contains(t, text, "# HELP fntimer_candidate_iterations")
}

func TestMetricsServer(t *testing.T) {
	assert.Nil(t, NewMetricsServer(nil, nil, nil))
	assert.Nil(t, NewMetricsServer(&config.PrometheusConfig{Textfile: "x.prom"}, nil, nil))

	var disabled *MetricsServer
	assert.False(t, disabled.Enabled())
	assert.Equal(t, "MetricsServer(disabled)", disabled.String())
	assert.NoError(t, disabled.Start())
	assert.NoError(t, disabled.Shutdown(context.Background()))

	m := NewMetrics(nil)
	m.RecordResult(timer.RunResult{Name: "forRange", Iterations: 10, Elapsed: time.Second})

	s := NewMetricsServer(config.ParsePrometheusListen("127.0.0.1:0/stats"), m.Registry(), nil)
	require.NotNil(t, s)
	assert.True(t, s.Enabled())
	assert.Equal(t, "127.0.0.1:0", s.Addr())
	assert.Equal(t, "MetricsServer(addr=127.0.0.1:0)", s.String())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fntimer_candidate_iterations{candidate="forRange"} 10`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
