package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/payment-experience/internal/adapters/mock"
	"github.com/kevin07696/payment-experience/internal/adapters/pims"
	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/internal/adapters/postgres"
	"github.com/kevin07696/payment-experience/internal/config"
	"github.com/kevin07696/payment-experience/internal/handlers/paymentinstrument"
	intmiddleware "github.com/kevin07696/payment-experience/internal/middleware"
	"github.com/kevin07696/payment-experience/internal/services/anomaly"
	"github.com/kevin07696/payment-experience/internal/services/lifecycle"
	"github.com/kevin07696/payment-experience/internal/services/localization"
	"github.com/kevin07696/payment-experience/internal/services/ratelimit"
	"github.com/kevin07696/payment-experience/pkg/middleware"
	"github.com/kevin07696/payment-experience/pkg/observability"
	"github.com/kevin07696/payment-experience/pkg/shutdown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting payment experience service",
		zap.String("version", "0.1.0"),
	)

	ctx := context.Background()

	// Secrets first: the database password may live in the secret manager
	secretManager := initSecretManager(ctx, logger)
	resolveDatabasePassword(ctx, cfg, secretManager, logger)

	// Database connection pool
	dbPool, err := initDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	shutdownManager := shutdown.NewManager(logger, 30*time.Second)
	shutdownManager.RegisterNoErr("database", dbPool.Close)

	// Anomaly detection: blocklist accessor refreshed from PostgreSQL
	dbExecutor := postgres.NewDBExecutor(dbPool)
	blocklistRepo := postgres.NewBlocklistRepository(dbExecutor, logger)

	anomalyAccessor := anomaly.NewAccessor(logger)
	if cfg.Anomaly.Enabled {
		refresher := anomaly.NewRefresher(anomalyAccessor, blocklistRepo, cfg.Anomaly.RefreshInterval, logger)
		if err := refresher.Start(ctx); err != nil {
			// Fail open: serve with empty blocklists until a refresh lands
			logger.Warn("Initial blocklist refresh failed, starting with empty blocklists", zap.Error(err))
		}
		shutdownManager.RegisterNoErr("blocklist_refresher", refresher.Shutdown)
	} else {
		logger.Warn("Anomaly detection disabled by configuration")
	}

	// Card-testing rate-limit detector
	detector := ratelimit.NewDetector(ratelimit.Config{
		WarmupMinimum:            cfg.RateLimit.WarmupMinimum,
		DimensionMinimum:         cfg.RateLimit.DimensionMinimum,
		FailureThreshold:         cfg.RateLimit.FailureThreshold,
		BaselineFailureThreshold: cfg.RateLimit.BaselineFailureThreshold,
		WhitelistedAccounts:      cfg.RateLimit.WhitelistedAccounts,
		PruneInterval:            cfg.RateLimit.PruneInterval,
	}, logger)
	shutdownManager.RegisterNoErr("ratelimit_detector", detector.Shutdown)

	// Lifecycle state manager: error rules plus client action resolution
	rules, err := lifecycle.NewRuleTable()
	if err != nil {
		logger.Fatal("Failed to load error rule table", zap.Error(err))
	}
	stateManager := lifecycle.NewStateManager(rules, localization.NewRepository(logger), cfg.Redirect.BaseURL, logger)

	instruments := initInstrumentService(cfg, logger)

	handler := paymentinstrument.NewHandler(instruments, anomalyAccessor, detector, stateManager, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	// Per-IP request throttling in front of everything
	rateLimiter := middleware.NewRateLimiter(cfg.Throttle.RequestsPerSecond, cfg.Throttle.Burst, logger)
	shutdownManager.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)

	securityHeaders := intmiddleware.NewSecurityHeaders(cfg.Logger.Development)
	gzipHandler := middleware.GzipHandler(middleware.GzipDefaultLevel, logger)

	var serverHandler http.Handler = observability.MetricsMiddleware("/v7.0/paymentInstrumentsEx", mux)
	serverHandler = gzipHandler(serverHandler)
	serverHandler = securityHeaders.Middleware(serverHandler)
	serverHandler = rateLimiter.Middleware(serverHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      serverHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()
	shutdownManager.RegisterHTTPServer("http_server", httpServer)

	// Metrics and health endpoints on a separate port
	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker, logger)
	shutdownManager.RegisterHTTPServer("metrics_server", metricsServer)

	logger.Info("Metrics server listening",
		zap.Int("port", cfg.Server.MetricsPort),
	)

	shutdownManager.WaitForShutdown()
}

// initLogger initializes the logger
func initLogger(cfg config.LoggerConfig) *zap.Logger {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}

	if cfg.Development {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		logger, _ := zapCfg.Build()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, _ := zapCfg.Build()
	return logger
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// resolveDatabasePassword fills in the database password from the secret
// manager when it was not supplied directly via environment.
func resolveDatabasePassword(ctx context.Context, cfg *config.Config, secretManager ports.SecretManagerAdapter, logger *zap.Logger) {
	if cfg.Database.Password != "" {
		return
	}

	secretPath := os.Getenv("DB_PASSWORD_SECRET_PATH")
	if secretPath == "" {
		logger.Fatal("Database password not configured: set DB_PASSWORD or DB_PASSWORD_SECRET_PATH")
	}

	secret, err := secretManager.GetSecret(ctx, secretPath)
	if err != nil {
		logger.Fatal("Failed to retrieve database password",
			zap.String("path", secretPath),
			zap.Error(err),
		)
	}
	cfg.Database.Password = secret.Value
}

// initInstrumentService selects the payment instrument management backend.
func initInstrumentService(cfg *config.Config, logger *zap.Logger) ports.InstrumentServiceAccessor {
	if cfg.Instrument.Backend == "pims" {
		pimsCfg := pims.DefaultConfig(cfg.Instrument.BaseURL)
		pimsCfg.Timeout = cfg.Instrument.Timeout
		pimsCfg.MaxRetries = cfg.Instrument.MaxRetries

		logger.Info("Using instrument management service backend",
			zap.String("base_url", cfg.Instrument.BaseURL),
		)
		return pims.NewAdapter(pimsCfg, logger)
	}
	return mock.NewInstrumentService(logger)
}
