// Package server exposes the storefront over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yourusername/shopfront/configs"
	"github.com/yourusername/shopfront/internal/auth"
	"github.com/yourusername/shopfront/internal/cart"
	"github.com/yourusername/shopfront/internal/metrics"
	"github.com/yourusername/shopfront/internal/service"
	"github.com/yourusername/shopfront/pkg/cache"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Products *service.ProductService
	Carts    *cart.Store
	Auth     *auth.Authenticator

	// Sessions holds browsing sessions keyed by session id.
	Sessions cache.ICache
	// ResponseCache, when set, is reported in X-Cache-* headers and at /debug/cache.
	ResponseCache cache.ICache

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// Server is the storefront HTTP server.
type Server struct {
	cfg        configs.ServerConfig
	metricsCfg configs.MetricsConfig
	deps       Deps
	router     *gin.Engine
	logger     *zap.Logger
}

// New builds the router. Products, Carts, Auth and Sessions are required.
func New(cfg configs.ServerConfig, metricsCfg configs.MetricsConfig, deps Deps) (*Server, error) {
	if deps.Products == nil || deps.Carts == nil || deps.Auth == nil || deps.Sessions == nil {
		return nil, errors.New("server: products, carts, auth and sessions are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{cfg: cfg, metricsCfg: metricsCfg, deps: deps, logger: deps.Logger}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger), Metrics(s.deps.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metricsCfg.Enable && s.deps.Gatherer != nil {
		path := s.metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if rc := s.deps.ResponseCache; rc != nil {
		r.GET("/debug/cache", func(c *gin.Context) {
			stats, err := rc.Stats(c)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get cache stats"})
				return
			}
			c.JSON(http.StatusOK, stats)
		})
	}

	products := NewProductHandler(s.deps.Products, s.deps.Sessions, s.cfg.SessionTTL, s.logger)
	carts := NewCartHandler(s.deps.Carts, s.deps.Products)
	authn := NewAuthHandler(s.deps.Auth)

	api := r.Group("/api", SessionID(), OptionalAuth(s.deps.Auth))
	if rc := s.deps.ResponseCache; rc != nil {
		api.Use(CacheMetrics(rc))
	}
	{
		api.GET("/products", products.ListProducts)
		api.GET("/products/:id", products.GetProduct)
		api.GET("/categories", products.ListCategories)
		api.POST("/browse/:direction", products.Navigate)

		api.POST("/auth/login", authn.Login)
		api.POST("/auth/logout", authn.Logout)
		api.GET("/auth/me", RequireAuth(s.deps.Auth), authn.Me)

		api.GET("/cart", carts.Get)
		api.DELETE("/cart", carts.Clear)
		api.POST("/cart/items", carts.AddItem)
		api.PUT("/cart/items/:id", carts.SetQuantity)
		api.DELETE("/cart/items/:id", carts.RemoveItem)
	}

	admin := api.Group("/admin", RequireAuth(s.deps.Auth), RequireAdmin())
	{
		admin.POST("/products", products.CreateProduct)
		admin.PUT("/products/:id", products.UpdateProduct)
		admin.DELETE("/products/:id", products.DeleteProduct)
	}
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down http server", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.logger.Info("http server stopped gracefully")
	return nil
}
