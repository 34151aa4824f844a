package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/billing"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/quota"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/rate"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/referral"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/usage"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/user"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/usecase/webhook"

	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/idgen"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/lock"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/pricelist"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/signature"
	timeProvider "github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/config"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/scheduler"
)

const jobLockPrefix = "usage-ledger:job:"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production, logger.ParseLevel(cfg.Logger.Level))
	defer func() { _ = appLogger.Flush() }()

	tp := timeProvider.NewRealTimeProvider()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewPrometheusMetrics(registry, cfg.Environment)

	dbManager := database.NewManager(databaseConfig(cfg), appLogger, tp, appMetrics)
	if _, err := dbManager.Connect(appMetrics); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	if err := dbManager.MigrationManager().MigrateAll(context.Background()); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	ids, err := idgen.NewSnowflakeGenerator(cfg.IDNode)
	if err != nil {
		appLogger.Error("Failed to create ID generator", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	priceList, err := pricelist.NewStaticPriceList(cfg.Rates)
	if err != nil {
		appLogger.Error("Invalid rate configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Use cases share one unit of work so nested calls join the caller's transaction
	uow := dbManager.CreateUnitOfWork()
	ledgerService := ledger.NewLedgerService(uow, ids, tp, appMetrics, appLogger)
	rateService := rate.NewRateService(uow, priceList, ids, tp, appLogger, cfg.Billing.MarkupBps)
	quotaService := quota.NewQuotaService(uow, tp, appLogger)
	billingService := billing.NewBillingService(uow, ledgerService, ids, tp, appMetrics, appLogger, billing.Config{
		CyclePeriod: cfg.Billing.CyclePeriod,
		MaxBatches:  cfg.Billing.MaxBatches,
	})
	referralService := referral.NewReferralService(uow, ledgerService, ids, tp, appLogger, referral.Amounts{
		WelcomeMicro: cfg.Referral.WelcomeMicro,
		FriendMicro:  cfg.Referral.FriendMicro,
		SelfMicro:    cfg.Referral.SelfMicro,
	})
	userService := user.NewUserService(uow, referralService, ids, tp, appLogger, cfg.Quota.DefaultDailyMicro)
	usageService := usage.NewUsageService(uow, rateService, ledgerService, quotaService, billingService, ids, tp, appMetrics, appLogger)
	webhookService := webhook.NewWebhookService(uow, ledgerService, ids, tp, appMetrics, appLogger)

	healthChecks := map[string]handler.Pinger{"database": dbManager}

	// Without Redis each replica schedules on its own
	var jobLocker scheduler.Locker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		redisLocker := lock.NewRedisLocker(redisClient, jobLockPrefix)
		if err := redisLocker.Ping(context.Background()); err != nil {
			appLogger.Warn("Redis is not reachable, job locks will fail until it is", map[string]any{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
		}
		jobLocker = redisLocker
		healthChecks["redis"] = redisLocker
	}

	jobScheduler := scheduler.New(cfg.Scheduler.TickInterval, jobLocker, tp, appMetrics, appLogger)
	if err := scheduler.RegisterJobs(jobScheduler, cfg, rateService, billingService, webhookService); err != nil {
		appLogger.Error("Failed to register scheduler jobs", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	rootCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if cfg.Scheduler.Enabled {
		jobScheduler.Start(rootCtx)
	}

	verifier := signature.NewHMACVerifier(cfg.Webhook.Secret, cfg.Webhook.Tolerance, tp)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, cfg.Server.AllowedOrigins)
	routes.SetupRoutes(router, routes.Handlers{
		User:     handler.NewUserHandler(userService, ledgerService, quotaService, appLogger),
		Usage:    handler.NewUsageHandler(usageService, rateService, tp, appLogger),
		Referral: handler.NewReferralHandler(referralService, appLogger),
		Webhook:  handler.NewWebhookHandler(webhookService, verifier, cfg.Webhook.Provider, appMetrics, appLogger),
		Admin:    handler.NewAdminHandler(rateService, userService, quotaService, ledgerService, billingService, jobScheduler, appLogger),
		Health:   handler.NewHealthHandler(healthChecks, appLogger),
	}, routes.Options{
		ServiceToken:   cfg.Auth.ServiceToken,
		AdminToken:     cfg.Auth.AdminToken,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}, appLogger)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":      server.Addr,
			"env":       cfg.Environment,
			"scheduler": cfg.Scheduler.Enabled,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	// Let a running job finish its unit of work before the database closes
	jobScheduler.Stop()

	appLogger.Info("Server exited gracefully", nil)
}

func databaseConfig(cfg *config.Config) *database.Config {
	port, _ := strconv.Atoi(cfg.Database.Port)
	return &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		SQLitePath:      cfg.Database.SQLitePath,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
		TxMaxRetries:    cfg.Database.TxMaxRetries,
		TxRetryInterval: cfg.Database.TxRetryInterval,
	}
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}
	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	switch cfg.Database.Driver {
	case database.DriverPostgres:
		if cfg.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or UL_DB_HOST environment variable)")
		}
		if _, err := strconv.Atoi(cfg.Database.Port); err != nil {
			missingConfigs = append(missingConfigs, "database.port (or UL_DB_PORT environment variable)")
		}
		if cfg.Database.Username == "" {
			missingConfigs = append(missingConfigs, "database.username (or UL_DB_USERNAME environment variable)")
		}
		if cfg.Database.Database == "" {
			missingConfigs = append(missingConfigs, "database.database (or UL_DB_NAME environment variable)")
		}
	case database.DriverSQLite:
		if cfg.Database.SQLitePath == "" {
			missingConfigs = append(missingConfigs, "database.sqlitePath")
		}
	default:
		return fmt.Errorf("invalid database.driver %q, must be %s or %s",
			cfg.Database.Driver, database.DriverPostgres, database.DriverSQLite)
	}

	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	if cfg.IDNode < 0 || cfg.IDNode > 1023 {
		return fmt.Errorf("idNode must be between 0 and 1023, got %d", cfg.IDNode)
	}
	if cfg.Billing.MarkupBps < 0 {
		return fmt.Errorf("billing.markupBps must not be negative, got %d", cfg.Billing.MarkupBps)
	}
	if cfg.Quota.DefaultDailyMicro < 0 || cfg.Referral.WelcomeMicro < 0 ||
		cfg.Referral.FriendMicro < 0 || cfg.Referral.SelfMicro < 0 {
		return errors.New("quota and referral amounts must not be negative")
	}

	// Production refuses to start with open endpoints
	if cfg.Environment == config.Production {
		var missingSecrets []string
		if cfg.Auth.ServiceToken == "" {
			missingSecrets = append(missingSecrets, "auth.serviceToken (UL_SERVICE_TOKEN)")
		}
		if cfg.Auth.AdminToken == "" {
			missingSecrets = append(missingSecrets, "auth.adminToken (UL_ADMIN_TOKEN)")
		}
		if cfg.Webhook.Secret == "" {
			missingSecrets = append(missingSecrets, "webhook.secret (UL_WEBHOOK_SECRET)")
		}
		if len(missingSecrets) > 0 {
			return fmt.Errorf("missing required secrets: %v", missingSecrets)
		}

		var warnings []string
		if cfg.Database.Driver == database.DriverPostgres {
			mode := strings.ToLower(cfg.Database.SSLMode)
			if mode != "require" && mode != "verify-ca" && mode != "verify-full" {
				warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
			}
		} else {
			warnings = append(warnings, "sqlite is meant for local runs, use postgres in production")
		}
		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}
		if cfg.Scheduler.Enabled && cfg.Redis.Addr == "" {
			warnings = append(warnings, "redis.addr is empty, scheduled jobs are not coordinated across replicas")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential issues in production configuration: %v", warnings)
		}
	}

	return nil
}
