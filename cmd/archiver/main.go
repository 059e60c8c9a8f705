// Command archiver consumes extracted threads from NATS and persists them
// to a SQLite archive for offline analysis.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/threadscope/threadscope/engine/thread"
	"github.com/threadscope/threadscope/pkg/archive"
	"github.com/threadscope/threadscope/pkg/natsutil"
)

func main() {
	_ = godotenv.Load()

	natsURL := flag.String("nats", envOr("NATS_URL", nats.DefaultURL), "NATS server URL")
	subject := flag.String("subject", envOr("NATS_SUBJECT", "threadscope.threads"), "subject to consume")
	dbPath := flag.String("db", envOr("ARCHIVE_DB", "threads.db"), "SQLite archive path")
	maxAge := flag.Duration("max-age", 30*24*time.Hour, "prune snapshots older than this (0 = keep forever)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*natsURL, *subject, *dbPath, *maxAge, logger); err != nil {
		logger.Error("archiver exited with error", "err", err)
		os.Exit(1)
	}
}

func run(natsURL, subject, dbPath string, maxAge time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := archive.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	nc, err := nats.Connect(natsURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := natsutil.Subscribe(nc, subject, func(ctx context.Context, result thread.ThreadResult) {
		if err := store.Save(ctx, result); err != nil {
			logger.Error("archive save failed", "code", result.Thread.Code, "err", err)
			return
		}
		logger.Info("thread archived", "code", result.Thread.Code, "replies", len(result.Replies))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	logger.Info("archiver started", "subject", subject, "db", dbPath)

	if maxAge <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			n, err := store.Prune(ctx, maxAge)
			if err != nil {
				logger.Error("prune failed", "err", err)
			} else if n > 0 {
				logger.Info("pruned old snapshots", "removed", n)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
