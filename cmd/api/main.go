// Package main is the entrypoint for the Splitr API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitr/splitr/internal/cache"
	"github.com/splitr/splitr/internal/config"
	"github.com/splitr/splitr/internal/handler"
	"github.com/splitr/splitr/internal/identity"
	"github.com/splitr/splitr/internal/metrics"
	"github.com/splitr/splitr/internal/middleware"
	"github.com/splitr/splitr/internal/repository"
	"github.com/splitr/splitr/internal/server"
	"github.com/splitr/splitr/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	// Initialize identity provider client
	adminCred, err := cfg.ServiceAccountCredential()
	if err != nil {
		logger.Error("failed to load service account credential", slog.String("error", err.Error()))
		os.Exit(1)
	}
	provider := identity.NewRESTProvider(identity.RESTConfig{
		BaseURL:                  cfg.IdentityBaseURL,
		APIKey:                   cfg.IdentityAPIKey,
		ServiceAccountCredential: adminCred,
		HTTPClient:               identity.NewHTTPClient(cfg.IdentityTimeout),
		Logger:                   logger,
		Metrics:                  recorder,
	})

	// Initialize services
	authService := service.NewAuthService(provider, repo, cacheClient, logger, recorder)
	groupService := service.NewGroupService(repo, repo, logger, recorder)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	authHandler := handler.NewAuthHandler(authService, logger)
	groupHandler := handler.NewGroupHandler(groupService, authService, logger)
	userHandler := handler.NewUserHandler(groupService, logger)

	// Setup router
	r := setupRouter(routerDeps{
		health:   healthHandler,
		auth:     authHandler,
		group:    groupHandler,
		user:     userHandler,
		authn:    authService,
		cache:    cacheClient,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"identity_base_url", cfg.IdentityBaseURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	health   *handler.HealthHandler
	auth     *handler.AuthHandler
	group    *handler.GroupHandler
	user     *handler.UserHandler
	authn    *service.AuthService
	cache    *cache.Cache
	registry *prometheus.Registry
	cfg      *config.Config
	logger   *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = deps.cfg.IsDevelopment()
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	if origins := deps.cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health and metrics endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Method("GET", "/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))

	// Root info endpoint
	r.Get("/", handler.Hello)

	// Credential endpoints with per-IP rate limiting
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      deps.logger,
		Cache:       deps.cache,
		AuthEnabled: deps.cfg.RateLimitAuthEnabled,
		AuthRPS:     deps.cfg.RateLimitAuthRPS,
		AuthBurst:   deps.cfg.RateLimitAuthBurst,
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitAuth(rateLimitCfg))
		r.Post("/login", deps.auth.Login)
		r.Post("/signup", deps.auth.Signup)
	})

	// Group endpoints carrying the session token in the request body
	r.Post("/create_group", deps.group.Create)
	r.Post("/join_group", deps.group.Join)

	// Endpoints requiring the Authorization header
	authCfg := middleware.AuthConfig{
		Logger:     deps.logger,
		Authorizer: deps.authn,
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Get("/me", deps.user.Me)
		r.Get("/groups/{code}", deps.group.Get)
		r.Post("/groups/{code}/purchases", deps.group.AddPurchase)
	})

	// 404 and 405 handlers
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
