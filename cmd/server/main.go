package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/twin-insights/internal/config"
	"github.com/benvon/twin-insights/internal/database"
	"github.com/benvon/twin-insights/internal/handlers"
	"github.com/benvon/twin-insights/internal/insights"
	"github.com/benvon/twin-insights/internal/logger"
	"github.com/benvon/twin-insights/internal/middleware"
	"github.com/benvon/twin-insights/internal/services/ai"
	"github.com/benvon/twin-insights/internal/session"
	"github.com/benvon/twin-insights/internal/telemetry"
)

const (
	// serverWriteTimeout must outlast one completion call (ai.DefaultTimeout)
	serverWriteTimeout = ai.DefaultTimeout + 30*time.Second
	shutdownTimeout    = 30 * time.Second
	reloadInterval     = time.Minute
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Int("session_quota", cfg.SessionQuota),
		zap.Int("profile_limit", cfg.ProfileLimit),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.ServiceName, handlers.Version, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracingEnabled = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis is optional; without it rate limit counters are kept per process
	var (
		limiterStore limiter.Store
		redisClient  redis.UniversalClient
	)
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := client.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		limiterStore, err = middleware.NewRedisLimiterStore(client)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
		}
		redisClient = client
		zapLogger.Info("connected_to_redis")
	} else {
		limiterStore = middleware.NewMemoryLimiterStore()
		zapLogger.Warn("redis_not_configured_using_memory_rate_limit_store")
	}

	profileRepo := database.NewProfileRepository(db,
		database.WithRelevanceFields(database.ParseRelevanceFields(cfg.ProfileRelevanceFields)),
		database.WithScanWindow(cfg.ProfileScanWindow),
		database.WithFallbackToAnyActive(cfg.ProfileFallbackAnyActive),
	)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	provider, err := createCompletionProvider(context.Background(), cfg, zapLogger, debugMode)
	if err != nil {
		zapLogger.Fatal("failed_to_create_ai_provider", zap.Error(err))
	}
	if closer, ok := provider.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	generator := insights.NewGenerator(profileRepo, provider, zapLogger,
		insights.WithProfileLimit(cfg.ProfileLimit),
		insights.WithMaxTokens(cfg.AIMaxTokens),
		insights.WithTracer(telemetry.Tracer()),
	)
	sessions := session.NewStore(generator,
		session.WithQuota(cfg.SessionQuota),
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithLogger(zapLogger),
	)

	healthChecker := handlers.NewHealthCheckerWithDeps(db, redisClient)
	productsHandler := handlers.NewProductsHandler()
	queryHandler := handlers.NewQueryHandler(generator, zapLogger)
	sessionsHandler := handlers.NewSessionsHandler(sessions, zapLogger)
	openAPIHandler := handlers.NewOpenAPIHandler(cfg.OpenAPIPath)

	// gorilla/mux runs middleware in registration order: the first Use is outermost
	r := mux.NewRouter()
	r.NotFoundHandler = middleware.NotFound(zapLogger)
	r.MethodNotAllowedHandler = middleware.MethodNotAllowed(zapLogger)
	if tracingEnabled {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(corsConfigRepo, cfg.FrontendURL, zapLogger, reloadInterval)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)

	rateLimitReloader := middleware.NewRateLimitReloader(limiterStore, ratelimitConfigRepo, cfg.QueryRate, zapLogger, reloadInterval)

	// Fast routes get a short timeout; insight routes are bounded by the completion client instead
	fast := r.NewRoute().Subrouter()
	fast.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	fast.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	fast.HandleFunc("/version", handlers.VersionInfo).Methods("GET")
	openAPIHandler.RegisterRoutes(fast)
	productsHandler.RegisterRoutes(fast.PathPrefix("/api/v1").Subrouter())

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimitReloader.Middleware())
	queryHandler.RegisterRoutes(api)
	sessionsHandler.RegisterRoutes(api)

	// CORS middleware has already answered preflights by the time this runs
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   serverWriteTimeout,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go corsReloader.Start(bgCtx)
	go rateLimitReloader.Start(bgCtx)
	go func() {
		if err := sessions.Start(bgCtx, session.DefaultSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("session_sweeper_stopped_with_error", zap.Error(err))
		}
	}()

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down", zap.Int("live_sessions", sessions.Len()))
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// createCompletionProvider resolves AI_PROVIDER through the provider registry
func createCompletionProvider(ctx context.Context, cfg *config.Config, log *zap.Logger, debugMode bool) (ai.CompletionProvider, error) {
	provider, err := ai.NewDefaultRegistry(ctx, log, debugMode).GetProvider(cfg.AIProvider, map[string]string{
		"api_key":  cfg.APIKey(),
		"model":    cfg.AIModel,
		"base_url": cfg.AIBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.AIProvider, err)
	}
	return provider, nil
}
