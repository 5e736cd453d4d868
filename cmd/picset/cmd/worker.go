package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/telemetry"
	"github.com/picset/picset/internal/variant"
	"github.com/picset/picset/internal/webhook"
	"github.com/picset/picset/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the render worker",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	site, err := loadSite()
	if err != nil {
		return err
	}
	svc := config.LoadService()
	logger := log.New(os.Stdout, "[worker] ", log.LstdFlags|log.Lmsgprefix)

	shutdownTracing, err := telemetry.SetupTracing(cmd.Context(), "picset-worker", svc.Trace, logger)
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

	if err := variant.Startup(); err != nil {
		return fmt.Errorf("initialize image runtime: %w", err)
	}
	defer variant.Shutdown()

	renderStore, closeStore, err := openRenderStore(cmd.Context(), svc, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	webhookClient := webhook.NewClient(webhook.Config{
		SigningSecret: svc.Webhook.SigningSecret,
		Timeout:       10 * time.Second,
		MaxAttempts:   3,
	})

	srv, err := worker.NewServer(logger, svc.Queue, svc.Worker, site, renderStore, webhookClient)
	if err != nil {
		return err
	}

	if svc.Worker.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", srv.MetricsHandler())
			logger.Printf("metrics listening on %s", svc.Worker.MetricsAddr)
			if err := http.ListenAndServe(svc.Worker.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics server failed: %v", err)
			}
		}()
	}

	logger.Printf(
		"starting worker concurrency=%d max_active_renders=%d queue=%s redis=%s",
		svc.Worker.Concurrency,
		svc.Worker.MaxActiveRenders,
		svc.Queue.Name,
		svc.Queue.RedisAddr,
	)

	if err := srv.Run(); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
