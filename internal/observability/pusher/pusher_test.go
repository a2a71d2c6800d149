package pusher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/cardsynth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	registry := prometheus.NewRegistry()
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cardsynth_stage_runs_total"}, []string{"stage"})
	rows := prometheus.NewGauge(prometheus.GaugeOpts{Name: "cardsynth_table_rows"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "cardsynth_stage_duration_seconds"})
	registry.MustRegister(runs, rows, duration)
	runs.WithLabelValues("generate").Add(2)
	rows.Set(42)
	duration.Observe(1.5)
	return registry
}

func TestRemoteWritePusher(t *testing.T) {
	var got prompb.WriteRequest
	var auth, encoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		encoding = r.Header.Get("Content-Encoding")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		require.NoError(t, got.Unmarshal(raw))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewRemoteWritePusher(srv.URL, " secret ")
	require.NoError(t, p.Push(context.Background(), testRegistry(t)))

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "snappy", encoding)

	values := map[string]float64{}
	for _, ts := range got.Timeseries {
		for _, l := range ts.Labels {
			if l.Name == "__name__" {
				values[l.Value] = ts.Samples[0].Value
			}
		}
	}
	assert.Equal(t, 2.0, values["cardsynth_stage_runs_total"])
	assert.Equal(t, 42.0, values["cardsynth_table_rows"])
	assert.Equal(t, 1.0, values["cardsynth_stage_duration_seconds_count"])
	assert.Equal(t, 1.5, values["cardsynth_stage_duration_seconds_sum"])
}

func TestRemoteWritePusherReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewRemoteWritePusher(srv.URL, "").Push(context.Background(), testRegistry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestPushgatewayPusher(t *testing.T) {
	var path, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPushgatewayPusher(srv.URL, "cardsynth", map[string]string{"environment": "test", "": "skipped"})
	require.NoError(t, p.Push(context.Background(), testRegistry(t)))

	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasPrefix(path, "/metrics/job/cardsynth"), path)
	assert.Contains(t, path, "/environment/test")
}

func TestPushgatewayPusherRequiresJob(t *testing.T) {
	err := NewPushgatewayPusher("http://localhost:9091", " ", nil).Push(context.Background(), testRegistry(t))
	assert.Error(t, err)
}

func TestNewSelectsExporter(t *testing.T) {
	log := zap.NewNop()

	assert.Nil(t, New(config.Config{}, log))
	assert.Nil(t, New(config.Config{Metrics: config.MetricsConfig{Exporter: ExporterPrometheusPushgateway}}, log))
	assert.Nil(t, New(config.Config{Metrics: config.MetricsConfig{Exporter: "statsd", Endpoint: "x"}}, log))
	assert.Nil(t, New(config.Config{Metrics: config.MetricsConfig{Exporter: ExporterPrometheusRemoteWrite, Endpoint: "not a url"}}, log))

	assert.IsType(t, &RemoteWritePusher{}, New(config.Config{Metrics: config.MetricsConfig{
		Exporter: ExporterPrometheusRemoteWrite,
		Endpoint: "http://prom:9090/api/v1/write",
	}}, log))
	assert.IsType(t, &PushgatewayPusher{}, New(config.Config{AppName: "cardsynth", Metrics: config.MetricsConfig{
		Exporter: ExporterPrometheusPushgateway,
		Endpoint: "http://gateway:9091",
	}}, log))
}
