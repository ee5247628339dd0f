// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/socialseed/socialseed/internal/account"
	"github.com/socialseed/socialseed/internal/ai"
	"github.com/socialseed/socialseed/internal/approval"
	"github.com/socialseed/socialseed/internal/authenticity"
	"github.com/socialseed/socialseed/internal/behavior"
	"github.com/socialseed/socialseed/internal/config"
	"github.com/socialseed/socialseed/internal/health"
	"github.com/socialseed/socialseed/internal/idgen"
	"github.com/socialseed/socialseed/internal/logging"
	"github.com/socialseed/socialseed/internal/metrics"
	"github.com/socialseed/socialseed/internal/orchestrator"
	"github.com/socialseed/socialseed/internal/phase"
	"github.com/socialseed/socialseed/internal/platform"
	"github.com/socialseed/socialseed/internal/proxy"
	"github.com/socialseed/socialseed/internal/ratelimit"
	"github.com/socialseed/socialseed/internal/realtime"
	"github.com/socialseed/socialseed/internal/risk"
	"github.com/socialseed/socialseed/internal/security"
	"github.com/socialseed/socialseed/internal/traces"
	"github.com/socialseed/socialseed/internal/validation"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg *config.Config

	accounts      account.Store
	tracker       *phase.Tracker
	assessor      *risk.Assessor
	chain         *ai.Chain
	analyzer      *authenticity.Analyzer
	workflow      *approval.Workflow
	approvalTimer *approval.Timer
	simulator     *behavior.Simulator
	monitor       *behavior.Monitor
	registry      *platform.Registry
	pipeline      *orchestrator.Orchestrator
	realtimeHub   *realtime.Hub
	rateLimiter   *ratelimit.Limiter
	checker       *health.Checker
	proxyPool     *proxy.Pool // nil unless proxies are configured

	db            *sql.DB // nil if using in-memory
	router        *gin.Engine
	httpSrv       *http.Server
	logger        *slog.Logger
	tracesCleanup func(context.Context) error
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var (
		phaseStore    phase.Store
		riskStore     risk.Store
		approvalStore approval.Store
		actionLog     orchestrator.ActionLog
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		accountStore := account.NewPostgresStore(db)
		if err := accountStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate account store", "error", err)
		}
		s.accounts = accountStore

		pgPhase := phase.NewPostgresStore(db)
		if err := pgPhase.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate phase store", "error", err)
		}
		phaseStore = pgPhase

		pgRisk := risk.NewPostgresStore(db)
		if err := pgRisk.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate risk store", "error", err)
		}
		riskStore = pgRisk

		pgApproval := approval.NewPostgresStore(db)
		if err := pgApproval.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate approval store", "error", err)
		}
		approvalStore = pgApproval

		pgLog := orchestrator.NewPostgresActionLog(db)
		if err := pgLog.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate action log", "error", err)
		}
		actionLog = pgLog
	} else {
		s.logger.Info("using in-memory storage (data will not persist)")
		s.accounts = account.NewMemoryStore()
		phaseStore = phase.NewMemoryStore()
		riskStore = risk.NewMemoryStore()
		approvalStore = approval.NewMemoryStore()
		actionLog = orchestrator.NewMemoryActionLog()
	}

	// Realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger)

	// AI provider chain
	s.chain = ai.NewChainFromConfig(cfg, ai.WithLogger(s.logger))
	if !s.chain.Available() {
		s.logger.Warn("no AI providers configured, assessments run on fail-safe defaults")
	}
	s.analyzer = authenticity.NewAnalyzer(s.chain, authenticity.WithLogger(s.logger))

	// Decision pipeline
	s.tracker = phase.NewTracker(s.accounts, phaseStore, phase.WithLogger(s.logger))
	s.assessor = risk.NewAssessor(s.accounts, s.tracker, s.chain, riskStore,
		risk.WithLogger(s.logger))
	s.workflow = approval.NewWorkflow(approvalStore,
		approval.WithLogger(s.logger),
		approval.WithNotifier(func(event string, r *approval.Request) {
			s.realtimeHub.BroadcastApproval(realtime.EventType(event), map[string]interface{}{
				"approvalId": r.ID,
				"accountId":  r.AccountID,
				"actionType": r.ActionType,
				"riskLevel":  r.RiskLevel,
				"status":     string(r.Status),
			})
		}),
	)
	if cfg.ApprovalExpiry > 0 {
		s.approvalTimer = approval.NewTimer(s.workflow, cfg.ApprovalExpiry, s.logger)
		s.logger.Info("approval expiry enabled", "max_age", cfg.ApprovalExpiry)
	}

	s.simulator = behavior.NewSimulator(behavior.WithLogger(s.logger))
	s.monitor = behavior.NewMonitor(behavior.WithMonitorLogger(s.logger))

	// Outbound proxy rotation
	if cfg.UseProxies && len(cfg.ProxyURLs) > 0 {
		s.proxyPool = proxy.NewPool(cfg.ProxyProvider, cfg.ProxyURLs, proxy.WithLogger(s.logger))
		s.logger.Info("proxy rotation enabled",
			"provider", cfg.ProxyProvider, "proxies", len(cfg.ProxyURLs))
	}

	// Platform executors (mocked)
	s.registry = platform.NewRegistry()
	s.registry.Register(platform.NewTikTok())
	s.registry.Register(platform.NewInstagram())
	s.registry.Register(platform.NewTwitter())

	s.pipeline = orchestrator.New(
		s.accounts, s.tracker, s.assessor, s.workflow, s.simulator, s.monitor,
		s.registry, actionLog,
		orchestrator.WithLogger(s.logger),
		orchestrator.WithHub(s.realtimeHub),
	)

	// Health checks
	s.checker = health.NewChecker()
	if s.db != nil {
		s.checker.Register("database", func(ctx context.Context) error {
			return s.db.PingContext(ctx)
		})
	}
	s.checker.Register("ai_providers", func(ctx context.Context) error {
		if !s.chain.Available() {
			return errors.New("no providers configured")
		}
		return nil
	})
	if s.proxyPool != nil {
		s.checker.Register("proxies", func(ctx context.Context) error {
			if _, err := s.proxyPool.Next(); err != nil {
				return err
			}
			return nil
		})
	}

	// Tracing
	cleanup, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.tracesCleanup = cleanup
	}

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)
	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	s.rateLimiter = ratelimit.NewLimiter(s.cfg.RateLimitRPM)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = idgen.New()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	// Validate :id URL params on all v1 routes (no-op when param absent)
	v1.Use(validation.AccountIDParamMiddleware())

	// Accounts
	v1.POST("/accounts", s.createAccount)
	v1.GET("/accounts", s.listAccounts)
	v1.GET("/accounts/:id", s.getAccount)
	v1.GET("/accounts/:id/health", s.accountHealth)
	v1.GET("/accounts/:id/phase-history", s.phaseHistory)
	v1.GET("/accounts/:id/risk-history", s.riskHistory)
	v1.GET("/accounts/:id/actions", s.actionHistory)
	v1.POST("/accounts/:id/actions", s.executeAction)

	// Approvals
	approvalHandler := approval.NewHandler(s.workflow, s.logger)
	approvalHandler.RegisterRoutes(v1)

	// Targeting
	v1.POST("/targets/analyze", s.analyzeTarget)

	// Operations
	v1.GET("/platform-health", s.platformHealth)
	v1.GET("/dashboard", s.dashboard)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
}

// Run starts the HTTP server and background loops, blocking until shutdown.
func (s *Server) Run(ctx context.Context) error {
	// Cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.realtimeHub.Run(runCtx)

	if s.approvalTimer != nil {
		go s.approvalTimer.Start(runCtx)
	}

	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	if s.proxyPool != nil {
		go s.proxyPool.StartHealthLoop(runCtx)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	if s.approvalTimer != nil {
		s.approvalTimer.Stop()
		s.logger.Info("approval timer stopped")
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	if s.proxyPool != nil {
		s.proxyPool.Stop()
	}

	if s.tracesCleanup != nil {
		if err := s.tracesCleanup(ctx); err != nil {
			s.logger.Warn("traces shutdown error", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}
