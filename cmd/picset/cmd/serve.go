package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/api"
	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/queue"
	"github.com/picset/picset/internal/ratelimit"
	"github.com/picset/picset/internal/store"
	"github.com/picset/picset/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the render-submission API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	site, err := loadSite()
	if err != nil {
		return err
	}
	svc := config.LoadService()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(cmd.Context(), "picset-api", svc.Trace, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	queueClient := queue.NewClient(svc.Queue.RedisClientOpt(), svc.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	renderStore, closeStore, err := openRenderStore(cmd.Context(), svc, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var limiter api.RateLimiter
	if svc.API.RateLimit > 0 {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     svc.Queue.RedisAddr,
			Password: svc.Queue.RedisPassword,
			DB:       svc.Queue.RedisDB,
		})
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Printf("redis client close error: %v", err)
			}
		}()

		limiter, err = ratelimit.NewRedisTokenBucket(redisClient, svc.API.RateLimit, svc.API.RateLimitWindow, "picset:ratelimit")
		if err != nil {
			return err
		}
	}

	app := api.NewServer(api.Options{
		Logger:                logger,
		Site:                  site,
		QueueClient:           queueClient,
		RenderStore:           renderStore,
		RateLimiter:           limiter,
		RateLimitUserIDHeader: svc.API.UserIDHeader,
		TracingEnabled:        svc.Trace.Exporter != "" && svc.Trace.Exporter != "none",
	})

	httpServer := &http.Server{
		Addr:         svc.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", svc.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
	return nil
}

func openRenderStore(ctx context.Context, svc config.Service, logger *log.Logger) (store.RenderStore, func(), error) {
	if svc.Database.DSN == "" {
		logger.Printf("no postgres dsn configured, render history is in-memory")
		return store.NewMemoryRenderStore(), func() {}, nil
	}

	pg, err := store.NewPostgresRenderStore(ctx, svc.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Printf("render store close error: %v", err)
		}
	}, nil
}
