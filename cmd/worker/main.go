package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rollcall/internal/config"
	"rollcall/internal/journal"
	"rollcall/internal/logging"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes submission events and records them in the journal.
func main() {
	cfg := config.Load()
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	repo := journal.NewRepository(db.Client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("journal schema failed", zap.Error(err))
	}

	if cfg.QueueBackend == "memory" {
		log.Fatal("worker needs a shared queue; QUEUE_BACKEND=memory only works inside one process")
	}
	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	defer redisClient.Close()
	q := queue.NewRedisQueue(redisClient.Client, cfg.QueueKey, log)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatal("queue consume init failed", zap.Error(err))
	}

	log.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeSubmitted {
			continue
		}
		evt, err := queue.DecodeSubmitted(msg)
		if err != nil {
			log.Warn("skipping bad submission event", zap.Error(err))
			metrics.JournalWrites.WithLabelValues("invalid").Inc()
			continue
		}

		writeCtx, cancelWrite := context.WithTimeout(ctx, 10*time.Second)
		entry, err := repo.Record(writeCtx, journal.FromSubmitted(evt))
		cancelWrite()
		metrics.JournalWrites.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			log.Error("journal write failed", zap.String("session_id", evt.SessionID), zap.Error(err))
			continue
		}
		log.Info("submission journaled", zap.String("session_id", entry.SessionID),
			zap.String("entry_id", entry.ID), zap.Int("present", entry.Present), zap.Int("absent", entry.Absent))
	}

	log.Info("worker stopped")
}
