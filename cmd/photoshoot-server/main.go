// cmd/photoshoot-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"photoshoot-api/internal/catalog"
	"photoshoot-api/internal/common/config"
	"photoshoot-api/internal/common/database"
	"photoshoot-api/internal/common/gemini"
	httpclient "photoshoot-api/internal/common/http"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/observability"
	"photoshoot-api/internal/common/ratelimit"
	"photoshoot-api/internal/transport"

	gp "photoshoot-api/internal/workers/generation/generate-photoset"
	rb "photoshoot-api/internal/workers/generation/record-batch"
	rp "photoshoot-api/internal/workers/generation/render-placeholder"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// journalFor returns recorder once its table exists, or nil so generation
// keeps serving without a journal.
func journalFor(ctx context.Context, recorder *rb.Handler, log *zap.Logger) transport.Journal {
	if err := recorder.EnsureSchema(ctx); err != nil {
		log.Error("journal schema setup failed, generation journal disabled", zap.Error(err))
		return nil
	}
	return recorder
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting photoshoot API...",
		zap.String("version", cfg.App.Version),
		zap.Bool("demoMode", cfg.Generation.DemoMode),
	)
	for _, w := range cfg.Warnings() {
		zapLog.Warn(w)
	}

	obs := observability.New(cfg.Observability.ServiceName,
		observability.WithJaegerEndpoint(cfg.Observability.JaegerEndpoint),
		observability.WithLogger(log),
	)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]transport.HealthCheck{}

	// --- Redis (rate limit backend) ---
	var redisClient *database.RedisClient
	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Ping
		zapLog.Info("Redis connected successfully")
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			limiter, err = ratelimit.NewFromConfig(cfg.RateLimit, redisClient.GetClient())
		} else {
			limiter, err = ratelimit.NewFromConfig(cfg.RateLimit, nil)
		}
		if err != nil {
			zapLog.Fatal("rate limiter init failed", zap.Error(err))
		}
	}

	// --- PostgreSQL (generation journal) ---
	var journal transport.Journal
	if cfg.Database.Postgres.Enabled() && config.IsWorkerEnabled(cfg, rb.TaskType) {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Error("postgres unavailable, generation journal disabled", zap.Error(err))
		} else {
			defer pg.Close()
			recorder := rb.NewHandler(
				&rb.Config{
					Timeout: config.GetDuration(config.GetWorkerConfig(cfg, rb.TaskType).Timeout),
				},
				pg.DB, log,
			)
			journal = journalFor(ctx, recorder, zapLog)
			if journal != nil {
				checks["postgres"] = pg.Ping
				zapLog.Info("PostgreSQL connected successfully")
			}
		}
	}

	// --- Styles ---
	styles, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("style catalog failed", zap.Error(err))
	}
	zapLog.Info("Style catalog loaded", zap.String("version", styles.Version()), zap.Int("styles", len(styles.List())))

	// --- Workers ---
	backend := gemini.New(gemini.ConfigFrom(cfg.Generation), httpclient.NewClient(30*time.Second))
	generator := gp.NewHandler(gp.ConfigFrom(cfg.Generation), backend, log, gp.WithObservability(obs))

	placeholderCfg := rp.LoadConfig()
	if cfg.Generation.Count > 0 {
		placeholderCfg.Count = cfg.Generation.Count
	}
	placeholder := rp.NewHandler(placeholderCfg, log)

	// --- HTTP ---
	gin.SetMode(cfg.Server.Mode)
	router := transport.InitRoutes(
		transport.RouterOptions{
			Limiter:        limiter,
			MetricsEnabled: cfg.Observability.MetricsEnabled,
		},
		transport.NewGenerateHandler(
			transport.GenerateOptions{
				DemoMode:     cfg.Generation.DemoMode,
				Count:        cfg.Generation.Count,
				MaxFileBytes: cfg.Server.MaxFileBytes,
				MaxBodyBytes: cfg.Server.MaxBodyBytes(),
			},
			generator, placeholder, styles, journal, log,
		),
		transport.NewStyleHandler(styles),
		transport.NewHealthHandler(cfg.Generation.DemoMode, checks),
		log,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("Photoshoot API stopped")
}
