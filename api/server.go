// Package api serves the ceremony ledger over HTTP.
//
// Signed requests are posted as JSON and delivered to the ledger one at a
// time; reads run against the latest or any historic height. The gin engine
// is mounted under /api next to the health and metrics endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/distmpc/app"
	"github.com/paw-chain/distmpc/app/health"
	"github.com/paw-chain/distmpc/x/ceremony/types"
)

// MaxRequestSize is the default cap on request bodies.
const MaxRequestSize = 8 << 20

// Ledger is the ceremony ledger the server exposes.
type Ledger interface {
	health.Source

	ChainID() string
	Deliver(req *types.SignedRequest) (app.Receipt, error)
	Query(height int64, fn func(ctx sdk.Context) error) error
	QueryServer() types.QueryServer
	Nonce(sender string) (uint64, error)
}

// Server represents the main API server
type Server struct {
	router  *gin.Engine
	handler http.Handler
	ledger  Ledger
	health  *health.Checker
	config  *Config
	logger  log.Logger
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            string
	CORSOrigins     []string
	EnableCORS      bool
	RateLimitRPS    int
	MaxRequestSize  int64
	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Version         string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            "1317",
		CORSOrigins:     []string{"http://localhost:3000"},
		EnableCORS:      true,
		RateLimitRPS:    100,
		MaxRequestSize:  MaxRequestSize,
		RequestTimeout:  30 * time.Second,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// NewServer creates a new API server instance
func NewServer(ledger Ledger, logger log.Logger, config *Config) (*Server, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = MaxRequestSize
	}

	healthCfg := health.DefaultConfig()
	healthCfg.Version = config.Version
	checker, err := health.NewChecker(logger.With("module", "health"), healthCfg, ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize health checker: %w", err)
	}

	server := &Server{
		ledger: ledger,
		health: checker,
		config: config,
		logger: logger.With("module", "api"),
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with all routes and middleware
func (s *Server) setupRouter() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Global middleware - ORDER MATTERS!
	// 1. Recovery (must be first to catch panics)
	s.router.Use(RecoveryMiddleware(s.logger))

	// 2. Security headers (set early)
	s.router.Use(SecurityHeadersMiddleware())

	// 3. Request size limiting
	s.router.Use(RequestSizeLimitMiddleware(s.config.MaxRequestSize))

	// 4. Request ID (for tracing)
	s.router.Use(RequestIDMiddleware())

	// 5. Logging
	s.router.Use(LoggerMiddleware(s.logger))

	// 6. Rate limiting (before touching the ledger)
	if s.config.RateLimitRPS > 0 {
		s.router.Use(RateLimitMiddleware(s.config.RateLimitRPS))
	}

	// 7. Timeout
	s.router.Use(TimeoutMiddleware(s.config.RequestTimeout))

	s.registerRoutes()

	root := mux.NewRouter()
	s.health.RegisterRoutes(root)
	root.Handle("/metrics", promhttp.Handler()).Methods("GET")
	root.PathPrefix("/api/").Handler(s.router)

	var httpHandler http.Handler = root
	if s.config.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         86400,
		})
		httpHandler = c.Handler(httpHandler)
	}
	s.handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(httpHandler)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", srv.Addr, "chain_id", s.ledger.ChainID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("API server exited")
	return nil
}
