// Package server exposes the analyzer over HTTP.
//
// Ownership boundary:
// - request validation and JSON framing
// - status-code mapping for analyzer outcomes
// - health/readiness/metrics surfaces
//
// The server does not touch scratch files or subprocesses; that is the
// analyzer package's boundary.
package server

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ltsalab/ltsactl/internal/analyzer"
	"github.com/ltsalab/ltsactl/internal/config"
	"github.com/ltsalab/ltsactl/internal/observability"
)

const version = "1.0.0"

// Engine is the analysis boundary the HTTP surface depends on.
type Engine interface {
	Run(ctx context.Context, mode analyzer.Mode, req analyzer.Request) (analyzer.Result, error)
	Probe(ctx context.Context) analyzer.Health
}

type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	engine       Engine
	maxSpecBytes int64
	apiToken     string
	router       *gin.Engine
}

func Appear(cfg config.ServiceConfig, engine Engine) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		Name:         cfg.Name,
		Addr:         cfg.Addr,
		Appeared:     time.Now(),
		engine:       engine,
		maxSpecBytes: cfg.MaxSpecBytes,
		apiToken:     cfg.APIToken,
		router:       r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Serve() error {
	return s.router.Run(s.Addr)
}

// normalizeOrigins defaults to allowing any origin, matching a tool meant to
// sit behind local frontends and notebooks.
func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
