package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rollcall/internal/academy"
	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/httpapi"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/journal"
	"rollcall/internal/logging"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, log *zap.Logger) error {
	ctx := context.Background()

	checks := map[string]httpapi.HealthCheck{}

	var (
		journalRepo httpapi.Journal
		repo        *journal.Repository
	)
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn("db not reachable, submission journal disabled", zap.Error(err))
	} else {
		repo = journal.NewRepository(db.Client)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Warn("journal schema not ensured", zap.Error(err))
		}
		journalRepo = repo
		checks["db"] = db.Healthy
	}
	defer func() { _ = db.Close() }()

	var redisClient *store.Redis
	if cfg.RosterBackend == "redis" || cfg.QueueBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		defer func() { _ = redisClient.Close() }()
		checks["redis"] = redisClient.Healthy
	}

	var rosters attendance.Store = attendance.NewMemoryStore()
	if cfg.RosterBackend == "redis" {
		rosters = attendance.NewRedisStore(redisClient.Client, "rollcall:roster:", cfg.RosterTTL)
	}

	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		// No separate worker can reach this queue, so drain it here.
		if err := drainInProcess(consumeCtx, q, repo, log.Named("journal")); err != nil {
			return err
		}
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey, log)
	}

	client := academy.New(cfg.AcademyAPIURL, cfg.AcademyAPIToken, cfg.AcademyTimeout)
	if err := client.Health(ctx); err != nil {
		log.Warn("academy api not reachable at startup", zap.String("url", cfg.AcademyAPIURL), zap.Error(err))
	}

	desk := attendance.NewDesk(client, rosters,
		attendance.WithPublisher(queue.SubmissionPublisher{Queue: q}),
		attendance.WithLogger(log.Named("desk")),
	)
	h := httpapi.New(desk, client, journalRepo, checks, log.Named("http"))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(log.Named("access"), "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r,
		auth.StaffAuth(cfg.JWTSigningKey, cfg.JWTIssuer),
		httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware(),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}

// drainInProcess journals submission events from an in-process queue. Without
// a database the events are only logged.
func drainInProcess(ctx context.Context, q queue.Queue, repo *journal.Repository, log *zap.Logger) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	go func() {
		for msg := range messages {
			evt, err := queue.DecodeSubmitted(msg)
			if err != nil {
				log.Warn("skipping bad submission event", zap.Error(err))
				continue
			}
			if repo == nil {
				log.Info("submission accepted", zap.String("session_id", evt.SessionID),
					zap.Int("present", evt.Counts.Present), zap.Int("absent", evt.Counts.Absent))
				continue
			}
			if _, err := repo.Record(ctx, journal.FromSubmitted(evt)); err != nil {
				log.Error("journal write failed", zap.String("session_id", evt.SessionID), zap.Error(err))
			}
		}
	}()
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
