package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"change-intake-service/internal/cache"
	"change-intake-service/internal/client"
	"change-intake-service/internal/config"
	"change-intake-service/internal/database"
	"change-intake-service/internal/formrules"
	"change-intake-service/internal/job"
	"change-intake-service/internal/metrics"
	"change-intake-service/internal/router"
	"change-intake-service/internal/ruleset"
	"change-intake-service/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	webhookURL := cfg.Webhook.ActiveURL()
	logger.Info("Starting Change Intake Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("webhook_url", webhookURL),
		zap.Bool("webhook_test_mode", cfg.Webhook.TestMode),
	)

	m := metrics.NewWithLogger(logger)

	// Rule engine, optionally from a hot-reloaded table
	store := ruleset.NewStore(formrules.DefaultEngine())
	var watcher *ruleset.Watcher
	if cfg.Rules.TablePath != "" {
		engine, err := ruleset.LoadEngine(cfg.Rules.TablePath)
		if err != nil {
			logger.Fatal("Failed to load rule table", zap.String("path", cfg.Rules.TablePath), zap.Error(err))
		}
		store.Replace(engine)

		watcher, err = ruleset.NewWatcher(cfg.Rules.TablePath, store, logger)
		if err != nil {
			logger.Warn("Rule table hot reload disabled", zap.Error(err))
		} else if err := watcher.Start(context.Background()); err != nil {
			logger.Warn("Rule table hot reload disabled", zap.Error(err))
			watcher.Stop()
			watcher = nil
		}
		logger.Info("Rule table loaded", zap.String("path", cfg.Rules.TablePath))
	}
	if report := store.Engine().CheckTable(); !report.OK() {
		logger.Warn("Rule table inconsistent", zap.String("report", report.Error()))
	}

	// Session cache: redis when reachable, memory otherwise
	var (
		sessions    cache.SessionCache = cache.NoOpSessionCache{}
		redisClient *redis.Client
		redisProbe  redis.Cmdable
		collector   *metrics.PoolStatsCollector
	)
	if cfg.Session.CacheEnabled {
		redisClient, err = database.InitRedis(context.Background(), cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, caching sessions in memory", zap.Error(err))
			sessions = cache.NewMemorySessionCache(cfg.Session.CacheTTL, m)
		} else {
			sessions = cache.NewRedisSessionCache(redisClient, cfg.Session.CacheTTL, logger, m)
			redisProbe = redisClient
			collector = metrics.NewPoolStatsCollector(redisClient, m, logger, 15*time.Second)
			collector.Start()
		}
	}

	var webhook client.WebhookClient
	if webhookURL == "" {
		logger.Warn("No webhook URL configured, workflow engine calls are disabled")
		webhook = client.NewNoOpWebhookClient()
	} else {
		webhook = client.NewWebhookClient(webhookURL, cfg.Webhook.Timeout, logger, m)
	}

	var scheduler *job.Scheduler
	if cfg.Probe.Enabled && webhookURL != "" {
		scheduler, err = job.NewScheduler(cfg.Probe.Schedule, job.NewProbeJob(webhook, m, logger, 5*time.Second), logger)
		if err != nil {
			logger.Warn("Workflow engine probe disabled", zap.Error(err))
		} else {
			scheduler.Start()
		}
	}

	r := router.Setup(router.Config{
		Logger:      logger,
		Metrics:     m,
		BasePath:    cfg.Server.BasePath,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		Rules:       store,
		Webhook:     webhook,
		Sessions:    sessions,
		Redis:       redisProbe,
		Intake: service.IntakeOptions{
			ChatEmailFallback:  cfg.Session.ChatEmailFallback,
			FormEmailFallback:  cfg.Session.FormEmailFallback,
			ContextValueMaxLen: cfg.Session.ContextValueMaxLen,
			LoadTimeout:        cfg.Webhook.Timeout,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Webhook.Timeout + 10*time.Second,
	}

	go func() {
		logger.Info("Change Intake Service started", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if watcher != nil {
		watcher.Stop()
	}
	if collector != nil {
		collector.Stop()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
