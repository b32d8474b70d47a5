// Package server assembles the HTTP server: middleware, health and metrics
// endpoints, and the association routes of the blog models.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mickamy/ormrest/internal/blog"
	"github.com/mickamy/ormrest/internal/config"
	"github.com/mickamy/ormrest/internal/httperr"
	"github.com/mickamy/ormrest/orm"
	"github.com/mickamy/ormrest/route"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 10 * time.Second

type Server struct {
	engine   *gin.Engine
	db       *orm.DB
	logger   *zap.Logger
	addr     string
	registry *prometheus.Registry
}

// New builds the server. Nothing listens until Run.
func New(db *orm.DB, models *blog.Models, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:   gin.New(),
		db:       db,
		logger:   logger,
		addr:     cfg.HTTP.Addr,
		registry: prometheus.NewRegistry(),
	}
	m, err := newMetrics(s.registry)
	if err != nil {
		return nil, err
	}

	s.engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	s.engine.Use(ginzap.RecoveryWithZap(logger, true))
	s.engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:   []string{"Content-Length", RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))
	s.engine.Use(requestID())
	s.engine.Use(m.middleware())
	s.engine.Use(httperr.Middleware(logger))

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	err = route.OneToMany(s.engine, db, models.AuthorPosts, route.Options{
		Prefix:      cfg.HTTP.Prefix,
		Logger:      logger,
		FanOutLimit: cfg.Route.FanOutLimit,
		Validate:    validator.New(),
	})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Routes lists the registered routes.
func (s *Server) Routes() gin.RoutesInfo { return s.engine.Routes() }

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestID reuses the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(httperr.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
