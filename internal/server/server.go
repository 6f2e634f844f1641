// Package server exposes the entitlement engine and resource collections
// over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pabloguineab/debugcv-sub002/internal/config"
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/observability/metrics"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServerParam struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	Engine      *gin.Engine
	Entitlement entitlementdomain.Service
	Resources   resourcedomain.Service
}

// Server holds the HTTP surface.
type Server struct {
	cfg         config.Config
	log         *zap.Logger
	engine      *gin.Engine
	entitlement entitlementdomain.Service
	resources   resourcedomain.Service
	limiter     *rateLimiter
}

// NewEngine builds the gin engine with recovery and telemetry middleware.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:         p.Config,
		log:         p.Log.Named("server"),
		engine:      p.Engine,
		entitlement: p.Entitlement,
		resources:   p.Resources,
		limiter:     newRateLimiter(30, time.Minute),
	}
}

// RegisterRoutes installs the public API. All /v1 routes require the shared
// service token when one is configured.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1", s.ServiceTokenRequired())
	{
		v1.POST("/entitlements/check", s.CheckEntitlement)
		v1.POST("/entitlements/consume", s.consumeRateLimit(), s.ConsumeEntitlement)

		v1.POST("/resumes", s.CreateResume)
		v1.GET("/resumes", s.ListResumes)
		v1.DELETE("/resumes/:id", s.DeleteResume)

		v1.POST("/cover-letters", s.CreateCoverLetter)
		v1.GET("/cover-letters", s.ListCoverLetters)
		v1.DELETE("/cover-letters/:id", s.DeleteCoverLetter)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Module wires the HTTP surface.
var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)
