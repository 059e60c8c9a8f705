// Command api is the Threadscope HTTP gateway: it accepts a Threads post
// URL, drives the extraction engine against the render and classifier
// workers, and returns the analyzed thread as JSON.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/threadscope/threadscope/engine/thread"
	"github.com/threadscope/threadscope/pkg/cache"
	"github.com/threadscope/threadscope/pkg/fetcher"
	"github.com/threadscope/threadscope/pkg/metrics"
	"github.com/threadscope/threadscope/pkg/mid"
	"github.com/threadscope/threadscope/pkg/resilience"
	"github.com/threadscope/threadscope/pkg/sentiment"
)

// Config holds all environment-based configuration.
type Config struct {
	Port          string
	RenderURL     string
	ClassifierURL string
	CORSOrigin    string
	RedisAddr     string
	RedisPass     string
	CacheTTL      time.Duration
	NATSURL       string
	NATSSubject   string
	Workers       int
	ClassifyRate  float64
}

func loadConfig() Config {
	return Config{
		Port:          envOr("PORT", "8080"),
		RenderURL:     envOr("RENDER_WORKER_URL", "http://localhost:9222"),
		ClassifierURL: envOr("CLASSIFIER_URL", "http://localhost:8501"),
		CORSOrigin:    envOr("CORS_ORIGIN", "*"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      envDurationOr("CACHE_TTL", 10*time.Minute),
		NATSURL:       os.Getenv("NATS_URL"),
		NATSSubject:   envOr("NATS_SUBJECT", "threadscope.threads"),
		Workers:       envIntOr("EXTRACT_WORKERS", thread.DefaultWorkers),
		ClassifyRate:  envFloatOr("CLASSIFY_RATE", 8),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	classifier := sentiment.New(cfg.ClassifierURL, sentiment.Opts{
		RatePerSec: cfg.ClassifyRate,
		Breaker:    resilience.NewBreaker(resilience.DefaultBreakerOpts),
	})

	extractor := thread.New(
		fetcher.New(cfg.RenderURL),
		classifier,
		thread.Options{Workers: cfg.Workers},
		logger,
		reg,
	)

	threadCache := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.CacheTTL)
	defer threadCache.Close()
	if threadCache.Enabled() {
		logger.Info("thread cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		var err error
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
		logger.Info("publishing threads to nats", "subject", cfg.NATSSubject)
	}

	srvDeps := &server{
		extractor: extractor,
		cache:     threadCache,
		nats:      nc,
		subject:   cfg.NATSSubject,
		log:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/analyze", srvDeps.handleAnalyze)
	mux.HandleFunc("GET /api/image-proxy", srvDeps.handleImageProxy)
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.OTel("threadscope-api"),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
