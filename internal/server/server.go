// Package server exposes the stored dataset's audit and export history over
// HTTP for dashboards and scrapers.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/cardsynth/internal/audit/domain"
	"github.com/smallbiznis/cardsynth/internal/config"
	"github.com/smallbiznis/cardsynth/internal/observability"
	obslogger "github.com/smallbiznis/cardsynth/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cardsynth/internal/observability/metrics"
	obstracing "github.com/smallbiznis/cardsynth/internal/observability/tracing"
	"github.com/smallbiznis/cardsynth/internal/pipeline"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Log      *zap.Logger
	ObsCfg   observability.Config
	Registry *prometheus.Registry
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(p.Log.Named("http"), obslogger.MiddlewareConfig{
		Debug: p.ObsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(obsmetrics.Gatherer(p.Registry), promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Engine   *gin.Engine
	Config   config.Config
	Runner   *pipeline.Runner
	AuditSvc auditdomain.Service
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	runner   *pipeline.Runner
	auditSvc auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Engine,
		cfg:      p.Config,
		runner:   p.Runner,
		auditSvc: p.AuditSvc,
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) RegisterRoutes() {
	v1 := s.engine.Group("/v1")
	v1.GET("/audit", s.GetAudit)
	v1.GET("/audit/report.pdf", s.GetAuditReport)
	v1.GET("/export-runs", s.ListExportRuns)
}
