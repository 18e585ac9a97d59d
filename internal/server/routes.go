package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ltsalab/ltsactl/internal/analyzer"
	"github.com/ltsalab/ltsactl/internal/observability"
)

type runRequest struct {
	Content  string `json:"content"`
	Process  string `json:"process"`
	Property string `json:"property"`
}

type runResponse struct {
	RunID    string `json:"run_id"`
	Success  bool   `json:"success"`
	Output   string `json:"output"`
	Error    string `json:"error,omitempty"`
	ExitCode int32  `json:"exit_code"`
	Duration string `json:"duration"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "LTSA REST API",
			"service": s.Name,
			"version": version,
			"endpoints": gin.H{
				"parse":    "/parse",
				"compile":  "/compile",
				"compose":  "/compose",
				"safety":   "/check/safety",
				"progress": "/check/progress",
				"ltl":      "/check/ltl",
			},
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/health", func(c *gin.Context) {
		h := s.engine.Probe(c.Request.Context())
		status := "healthy"
		if !h.Healthy() {
			status = "unhealthy"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":              status,
			"runtime_available":   h.RuntimeAvailable,
			"analyzer_jar_exists": h.ArtifactExists,
			"analyzer_jar_path":   h.JarPath,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": version,
		})
	})

	runs := s.router.Group("/")
	if s.apiToken != "" {
		runs.Use(RequireToken(s.apiToken))
	}
	runs.POST("/parse", s.runHandler(analyzer.ModeParse))
	runs.POST("/compile", s.runHandler(analyzer.ModeCompile))
	runs.POST("/compose", s.runHandler(analyzer.ModeCompose))
	runs.POST("/check/safety", s.runHandler(analyzer.ModeSafety))
	runs.POST("/check/progress", s.runHandler(analyzer.ModeProgress))
	runs.POST("/check/ltl", s.runHandler(analyzer.ModeLTL))
}

func (s *Server) runHandler(mode analyzer.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req runRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
		if int64(len(req.Content)) > s.maxSpecBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("content exceeds %d bytes", s.maxSpecBytes),
			})
			return
		}
		if mode == analyzer.ModeLTL && strings.TrimSpace(req.Property) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "property is required"})
			return
		}

		res, err := s.engine.Run(c.Request.Context(), mode, analyzer.Request{
			Content:  req.Content,
			Process:  req.Process,
			Property: req.Property,
		})
		observability.RecordAnalyzerRun(s.Name, string(mode), outcomeLabel(res, err), res.Duration)

		if err != nil {
			s.respondRunError(c, mode, res, err)
			return
		}

		c.JSON(http.StatusOK, runResponse{
			RunID:    res.RunID,
			Success:  res.Success,
			Output:   res.Output,
			Error:    res.Diagnostic,
			ExitCode: res.ExitCode,
			Duration: res.Duration.String(),
		})
	}
}

func (s *Server) respondRunError(c *gin.Context, mode analyzer.Mode, res analyzer.Result, err error) {
	switch {
	case errors.Is(err, analyzer.ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"error":      "analyzer run timed out",
			"error_kind": "timeout",
			"run_id":     res.RunID,
		})
	case errors.Is(err, analyzer.ErrRuntimeUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":      err.Error(),
			"error_kind": "runtime_unavailable",
			"run_id":     res.RunID,
		})
	case errors.Is(err, analyzer.ErrEmptyContent), errors.Is(err, analyzer.ErrPropertyRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Str("mode", string(mode)).Str("run_id", res.RunID).Err(err).Msg("analyzer_run_failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal error",
			"error_kind": "internal",
			"run_id":     res.RunID,
		})
	}
}

func outcomeLabel(res analyzer.Result, err error) string {
	switch {
	case err == nil && res.Success:
		return "ok"
	case err == nil:
		return "analyzer_error"
	case errors.Is(err, analyzer.ErrTimeout):
		return "timeout"
	case errors.Is(err, analyzer.ErrRuntimeUnavailable):
		return "runtime_unavailable"
	default:
		return "internal"
	}
}
