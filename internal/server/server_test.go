package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	adjusterservice "github.com/smallbiznis/cardsynth/internal/adjuster/service"
	auditservice "github.com/smallbiznis/cardsynth/internal/audit/service"
	"github.com/smallbiznis/cardsynth/internal/clock"
	"github.com/smallbiznis/cardsynth/internal/config"
	generatorservice "github.com/smallbiznis/cardsynth/internal/generator/service"
	"github.com/smallbiznis/cardsynth/internal/observability"
	obsmetrics "github.com/smallbiznis/cardsynth/internal/observability/metrics"
	"github.com/smallbiznis/cardsynth/internal/pipeline"
	"github.com/smallbiznis/cardsynth/internal/tablestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	engine *gin.Engine
	runner *pipeline.Runner
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	registry := prometheus.NewRegistry()
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	sim := config.DefaultSimulationConfig()
	sim.Customers = 15
	sim.StartDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sim.EndDate = time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	auditSvc := auditservice.NewService(auditservice.Params{Log: log, Clock: clk})
	runner, err := pipeline.New(pipeline.Params{
		Log:       log,
		Sim:       sim,
		Store:     tablestore.New(t.TempDir(), log),
		Generator: generatorservice.New(generatorservice.Params{Log: log}),
		Adjuster:  adjusterservice.New(adjusterservice.Params{Log: log}),
		Audit:     auditSvc,
		Metrics:   obsmetrics.NewPipelineMetrics(registry, obsmetrics.Config{ServiceName: "cardsynth", Environment: "test"}),
		GenID:     node,
		Clock:     clk,
		Registry:  registry,
	})
	require.NoError(t, err)

	engine := NewEngine(EngineParams{Log: log, ObsCfg: observability.Config{}, Registry: registry})
	NewServer(ServerParams{
		Engine:   engine,
		Config:   config.Config{HTTPAddr: ":0"},
		Runner:   runner,
		AuditSvc: auditSvc,
	})
	return testServer{engine: engine, runner: runner}
}

func (s testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	w := srv.get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Correlation-Id"))
}

func TestAuditWithoutDatasetIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	w := srv.get("/v1/audit")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestAuditReturnsSummary(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.runner.Run(context.Background())
	require.NoError(t, err)

	w := srv.get("/v1/audit")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			RowCounts map[string]int `json:"row_counts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 15, resp.Data.RowCounts["customers"])

	metrics := srv.get("/metrics")
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "cardsynth_stage_runs_total")
}

func TestAuditReportIsPDF(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.runner.Run(context.Background())
	require.NoError(t, err)

	w := srv.get("/v1/audit/report.pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="cardsynth-audit-2026-03-01.pdf"`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestExportRuns(t *testing.T) {
	srv := newTestServer(t)

	w := srv.get("/v1/export-runs")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = srv.get("/v1/export-runs?page_token=%21%21%21")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMapError(t *testing.T) {
	status, payload := mapError(newValidationError("page_token", "invalid", "invalid page token"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, payload.Errors, 1)

	status, _ = mapError(ErrServiceUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = mapError(context.Canceled)
	assert.Equal(t, http.StatusInternalServerError, status)
}
