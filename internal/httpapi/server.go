package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/globaltime"
	"skylight.fyi/adwatch/internal/storage"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ReportDir       string
}

type Server struct {
	store  storage.Store
	logger zerolog.Logger
	opts   Options
}

type statsResponse struct {
	TotalArticles   int            `json:"total_articles"`
	TotalRuns       int            `json:"total_runs"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
	SourceBreakdown map[string]int `json:"source_breakdown"`
	AverageScore    float64        `json:"average_score"`
	ScoredArticles  int            `json:"scored_articles"`
	LastRunAt       *time.Time     `json:"last_run_at,omitempty"`
}

func NewServer(store storage.Store, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		store:  store,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			ReportDir:       opts.ReportDir,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("adwatch web server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("adwatch web server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/articles", s.handleArticles)
	api.GET("/runs", s.handleRuns)

	if strings.TrimSpace(s.opts.ReportDir) != "" {
		e.Static("/reports", s.opts.ReportDir)
	}

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "adwatch",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.queryStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleArticles(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("limit %s", err), nil)
	}

	records, err := s.store.ListArticles(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list articles failed")
		return internalError(c, "Failed to load articles")
	}

	status := strings.TrimSpace(c.QueryParam("status"))
	if status != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Status == status {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	return success(c, map[string]any{
		"articles": records,
		"count":    len(records),
	})
}

func (s *Server) handleRuns(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("limit %s", err), nil)
	}

	runs, err := s.store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list runs failed")
		return internalError(c, "Failed to load runs")
	}

	return success(c, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) queryStats(ctx context.Context) (statsResponse, error) {
	records, err := s.store.ListArticles(ctx, 0)
	if err != nil {
		return statsResponse{}, fmt.Errorf("list articles: %w", err)
	}
	runs, err := s.store.ListRuns(ctx, 0)
	if err != nil {
		return statsResponse{}, fmt.Errorf("list runs: %w", err)
	}

	stats := statsResponse{
		TotalArticles:   len(records),
		TotalRuns:       len(runs),
		StatusBreakdown: make(map[string]int),
		SourceBreakdown: make(map[string]int),
	}

	var scoreSum float64
	for _, r := range records {
		stats.StatusBreakdown[r.Status]++
		stats.SourceBreakdown[r.Source]++
		if r.RelevanceScore != nil {
			scoreSum += *r.RelevanceScore
			stats.ScoredArticles++
		}
	}
	if stats.ScoredArticles > 0 {
		stats.AverageScore = scoreSum / float64(stats.ScoredArticles)
	}

	if len(runs) > 0 {
		last := runs[0].StartTime
		stats.LastRunAt = &last
	}
	return stats, nil
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
