package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sebastianleba/mobius-interface-sub000/internal/model"
	"github.com/sebastianleba/mobius-interface-sub000/internal/quote"
	"github.com/sebastianleba/mobius-interface-sub000/internal/registry"
)

// Server exposes the quote service over HTTP.
type Server struct {
	registry *registry.Registry
	quotes   *quote.Service
	metrics  *Metrics
	logger   *zap.Logger
	router   *gin.Engine
}

func New(reg *registry.Registry, quotes *quote.Service, metrics *Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		registry: reg,
		quotes:   quotes,
		metrics:  metrics,
		logger:   logger,
		router:   router,
	}
	router.Use(s.logRequests)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/pools", s.handleListPools)
	s.router.GET("/pools/:address", s.handleGetPool)
	s.router.POST("/quote", s.handleQuote)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down within timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server start", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("http server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("http request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"pools":  s.registry.Len(),
	})
}

func (s *Server) handleListPools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pools": s.registry.List()})
}

func (s *Server) handleGetPool(c *gin.Context) {
	address := c.Param("address")
	if _, err := registry.ParseAddress(address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_address", "message": err.Error()})
		return
	}
	snapshot, ok := s.registry.Get(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": quote.StatusPoolNotFound, "message": "pool not found"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleQuote(c *gin.Context) {
	var req model.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json", "message": err.Error()})
		return
	}

	out := s.quotes.Quote(c.Request.Context(), req)
	c.JSON(httpStatus(out.Status), out)
}

func httpStatus(status string) int {
	switch status {
	case quote.StatusOK:
		return http.StatusOK
	case quote.StatusPoolNotFound:
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}
