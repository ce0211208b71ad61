package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"
	"github.com/redis/go-redis/v9"

	"github.com/Ironclad/ironclad/config"
	"github.com/Ironclad/ironclad/internal/database"
	"github.com/Ironclad/ironclad/internal/domain"
	httpHandler "github.com/Ironclad/ironclad/internal/http"
	"github.com/Ironclad/ironclad/internal/http/middleware"
	"github.com/Ironclad/ironclad/internal/repository"
	"github.com/Ironclad/ironclad/internal/service"
	"github.com/Ironclad/ironclad/internal/service/agent"
	"github.com/Ironclad/ironclad/pkg/cache"
	"github.com/Ironclad/ironclad/pkg/convex"
	"github.com/Ironclad/ironclad/pkg/httpclient"
	"github.com/Ironclad/ironclad/pkg/liquid"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/ratelimiter"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

const agentRateLimitNamespace = "agent"

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetOrchestrator() domain.AgentOrchestrator

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitConversationStore() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB
	redis  *redis.Client
	convex repository.ConvexCaller

	stopDBStats func()
	transport   http.RoundTripper

	// Storage
	conversationStore domain.ConversationStore
	repos             domain.Repositories
	snapshots         cache.Cache[domain.AgentSnapshot]

	// Services
	services         domain.Services
	transcriber      domain.TranscriptionService
	analyticsService domain.AnalyticsService
	orchestrator     domain.AgentOrchestrator

	limiter *ratelimiter.RateLimiter

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock analytics database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithConvexCaller replaces the Convex HTTP client.
func WithConvexCaller(c repository.ConvexCaller) AppOption {
	return func(a *App) {
		a.convex = c
	}
}

// WithConversationStore replaces the configured conversation store.
func WithConversationStore(store domain.ConversationStore) AppOption {
	return func(a *App) {
		a.conversationStore = store
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: shutdownTimeout,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing and the traced outbound
// transport shared by every backend client.
func (a *App) InitTracing() error {
	if err := tracing.Init(a.config.Tracing, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if a.config.Tracing.Enabled {
		a.transport = tracing.NewTransport(http.DefaultTransport)
	}
	return nil
}

// InitDB connects the analytics database. It is skipped when no host is
// configured; analytics endpoints then answer 503.
func (a *App) InitDB() error {
	if a.db == nil {
		if !a.config.Database.Enabled() {
			a.logger.Info("Analytics database not configured, analytics disabled")
			return nil
		}

		a.logger.WithFields(map[string]interface{}{
			"host":    a.config.Database.Host,
			"port":    a.config.Database.Port,
			"user":    a.config.Database.User,
			"dbname":  a.config.Database.DBName,
			"sslmode": a.config.Database.SSLMode,
		}).Info("Connecting to analytics database")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.Connect(ctx, &a.config.Database, a.config.Tracing.Enabled)
		if err != nil {
			return err
		}
		a.db = db
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.InitializeDatabase(ctx, a.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if a.config.Tracing.Enabled {
		a.stopDBStats = ocsql.RecordStats(a.db, 5*time.Second)
	}

	a.logger.Info("Analytics database ready")
	return nil
}

// InitConversationStore selects the in-process or Redis history store.
func (a *App) InitConversationStore() error {
	if a.conversationStore != nil {
		return nil
	}

	cfg := a.config.Conversation
	switch cfg.Store {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}

		a.redis = client
		a.conversationStore = repository.NewRedisConversationStore(client, repository.RedisConversationConfig{
			Prefix:      cfg.RedisPrefix,
			TTL:         cfg.TTL,
			MaxMessages: cfg.MaxMessages,
		}, a.logger)
	default:
		a.conversationStore = repository.NewMemoryConversationStore(cfg.TTL, cfg.MaxMessages)
	}

	a.logger.WithField("store", cfg.Store).Info("Conversation store initialized")
	return nil
}

func (a *App) retryPolicy() httpclient.Policy {
	return httpclient.Policy{
		MaxAttempts: a.config.Retry.MaxAttempts,
		BaseDelay:   a.config.Retry.BaseDelay,
		MaxDelay:    a.config.Retry.MaxDelay,
		MaxJitter:   a.config.Retry.MaxJitter,

		BreakerThreshold: a.config.Retry.CircuitBreakerThreshold,
		BreakerCooldown:  a.config.Retry.CircuitBreakerCooldown,
	}
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.convex == nil {
		client, err := convex.NewClient(convex.Config{
			URL:               a.config.Convex.URL,
			DeployKey:         a.config.Convex.DeployKey,
			Timeout:           a.config.Convex.RequestTimeout,
			Retry:             a.retryPolicy(),
			RequestsPerSecond: a.config.Convex.RequestsPerSec,
			Burst:             int(a.config.Convex.RequestsPerSec) + 1,
			Transport:         a.transport,
		}, a.logger.WithField("service", "convex"))
		if err != nil {
			return fmt.Errorf("failed to create convex client: %w", err)
		}
		a.convex = client
	}

	a.repos = domain.Repositories{
		Orders:      repository.NewOrderRepository(a.convex, a.logger),
		Commissions: repository.NewCommissionRepository(a.convex, a.logger),
		Partners:    repository.NewPartnerRepository(a.convex, a.logger),
		Inquiries:   repository.NewInquiryRepository(a.convex, a.logger),
		Products:    repository.NewProductRepository(a.convex, a.logger),
		Discounts:   repository.NewDiscountRepository(a.convex, a.logger),
		Audience:    repository.NewAudienceRepository(a.convex, a.logger),
	}
	if a.db != nil {
		a.repos.Analytics = repository.NewAnalyticsRepository(a.db, a.logger)
	}

	return nil
}

// InitServices initializes the backend clients and the orchestrator.
// Optional backends left unconfigured stay nil and the agents degrade.
func (a *App) InitServices() error {
	policy := a.retryPolicy()

	a.services.LLM = service.NewLLMService(service.LLMServiceConfig{
		APIKey:         a.config.OpenRouter.APIKey,
		BaseURL:        a.config.OpenRouter.BaseURL,
		Model:          a.config.OpenRouter.Model,
		AppTitle:       a.config.OpenRouter.AppTitle,
		Referer:        a.config.OpenRouter.Referer,
		Temperature:    a.config.OpenRouter.Temperature,
		MaxTokens:      a.config.OpenRouter.MaxTokens,
		RequestTimeout: a.config.OpenRouter.RequestTimeout,
		StreamTimeout:  a.config.OpenRouter.StreamTimeout,
		RequestsPerSec: a.config.OpenRouter.RequestsPerSec,
		Retry:          policy,
		Transport:      a.transport,
		Logger:         a.logger.WithField("service", "openrouter"),
	})

	if a.config.OpenAI.APIKey != "" {
		openAI := service.NewOpenAIService(service.OpenAIServiceConfig{
			APIKey:             a.config.OpenAI.APIKey,
			BaseURL:            a.config.OpenAI.BaseURL,
			EmbeddingModel:     a.config.OpenAI.EmbeddingModel,
			TranscriptionModel: a.config.OpenAI.TranscriptionModel,
			RequestTimeout:     a.config.OpenAI.RequestTimeout,
			Retry:              policy,
			Transport:          a.transport,
			Logger:             a.logger.WithField("service", "openai"),
		})
		a.transcriber = openAI

		if a.config.LanceDB.URL != "" {
			search := service.NewVectorSearchService(service.VectorSearchServiceConfig{
				URL:            a.config.LanceDB.URL,
				APIKey:         a.config.LanceDB.APIKey,
				RequestTimeout: a.config.LanceDB.RequestTimeout,
				Retry:          policy,
				Transport:      a.transport,
				Logger:         a.logger.WithField("service", "lancedb"),
			})
			a.services.Knowledge = service.NewKnowledgeService(openAI, search, a.config.LanceDB.Table, a.config.LanceDB.TopK, a.logger)
		}
	}
	if a.services.Knowledge == nil {
		a.logger.Info("Knowledge search not configured, product and chat lookups will degrade")
	}

	if a.config.Tavily.APIKey != "" {
		a.services.WebSearch = service.NewWebSearchService(service.WebSearchServiceConfig{
			APIKey:         a.config.Tavily.APIKey,
			BaseURL:        a.config.Tavily.BaseURL,
			SearchDepth:    a.config.Tavily.SearchDepth,
			MaxResults:     a.config.Tavily.MaxResults,
			RequestTimeout: a.config.Tavily.RequestTimeout,
			Retry:          policy,
			Transport:      a.transport,
			Logger:         a.logger.WithField("service", "tavily"),
		})
	}

	a.analyticsService = service.NewAnalyticsService(a.repos.Analytics, a.logger)
	a.snapshots = cache.NewInMemoryCache[domain.AgentSnapshot](time.Minute)

	orchestrator, err := agent.NewOrchestrator(agent.OrchestratorConfig{
		Deps: &agent.Deps{
			Repos:          a.repos,
			Services:       a.services,
			Renderer:       liquid.NewRenderer(),
			Snapshots:      a.snapshots,
			Logger:         a.logger,
			KnowledgeTable: a.config.LanceDB.Table,
			ProductTable:   a.config.LanceDB.ProductTable,
			TopK:           a.config.LanceDB.TopK,
		},
		Store:        a.conversationStore,
		RoutingModel: a.config.OpenRouter.RoutingModel,
		MaxHistory:   a.config.Conversation.MaxMessages,
		SessionTTL:   a.config.Conversation.TTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	a.orchestrator = orchestrator

	return nil
}

// InitHandlers initializes all HTTP handlers
func (a *App) InitHandlers() error {
	authenticator, err := middleware.NewAuthenticator(middleware.AuthOptions{
		Issuer:       a.config.Auth.Issuer,
		PublicKeyPEM: a.config.Auth.PublicKeyPEM,
		HMACSecret:   a.config.Auth.HMACSecret,
		Disabled:     a.config.Auth.Disabled,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create authenticator: %w", err)
	}
	if a.config.Auth.Disabled {
		a.logger.Warn("Authentication disabled, every request runs as the dev user")
	}

	a.limiter = ratelimiter.NewRateLimiter(10 * time.Minute)
	a.limiter.SetPolicy(agentRateLimitNamespace, a.config.RateLimit.AgentRequestsPerMinute, a.config.RateLimit.AgentBurst)

	verify := authenticator.RequireAuth()
	requireAuth := func(next http.Handler) http.Handler {
		return verify(middleware.TagUser(next))
	}
	limit := middleware.RateLimit(a.limiter, agentRateLimitNamespace, a.logger)

	checks := map[string]httpHandler.HealthCheck{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["conversation_store"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}

	httpHandler.NewRootHandler(a.logger, a.config.Version, checks).RegisterRoutes(a.mux)
	httpHandler.NewAgentHandler(a.orchestrator, a.logger).RegisterRoutes(a.mux, requireAuth, limit)
	httpHandler.NewAnalyticsHandler(a.analyticsService, a.logger).RegisterRoutes(a.mux, requireAuth, limit)
	httpHandler.NewVoiceHandler(a.transcriber, a.orchestrator, a.logger).RegisterRoutes(a.mux, requireAuth, limit)

	return nil
}

// Handler wraps the mux with the server-wide middleware.
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)

	if a.config.Tracing.Enabled {
		handler = middleware.Tracing(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	return middleware.CORS(a.config.Server.CORSAllowOrigin)(handler)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	// No write timeout: agent.stream responses stay open for the whole turn.
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	serverShutdownDone := make(chan error, 1)
	go func() {
		a.logger.WithField("timeout", shutdownTimeout.String()).Info("Starting HTTP server shutdown")
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()

	var shutdownErr error
	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-time.After(2 * time.Second):
			if active := a.getActiveRequestCount(); active > 0 {
				a.logger.WithField("active_requests", active).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil && shutdownErr == nil {
		shutdownErr = cleanupErr
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

// cleanupResources releases connections and background workers
func (a *App) cleanupResources() error {
	a.logger.Info("Cleaning up resources...")

	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.snapshots != nil {
		a.snapshots.Stop()
	}

	var firstErr error
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing redis connection")
			firstErr = err
		}
	}

	if a.db != nil {
		if a.stopDBStats != nil {
			a.stopDBStats()
		}
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info("Resource cleanup completed")
	return firstErr
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created. It returns false
// if ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting Ironclad API")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitConversationStore,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

func (a *App) GetConfig() *config.Config {
	return a.config
}

func (a *App) GetLogger() logger.Logger {
	return a.logger
}

func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetOrchestrator() domain.AgentOrchestrator {
	return a.orchestrator
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout.String()).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the context cancelled when shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks in-flight requests and refuses new ones
// once shutdown has begun.
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

var _ AppInterface = (*App)(nil)
