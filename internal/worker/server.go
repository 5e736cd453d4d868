// Package worker consumes queued render tasks, runs them through the
// renderer, records their history, and notifies webhooks.
package worker

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/markup"
	"github.com/picset/picset/internal/queue"
	"github.com/picset/picset/internal/render"
	"github.com/picset/picset/internal/store"
	"github.com/picset/picset/internal/variant"
)

type Server struct {
	logger        *log.Logger
	server        *asynq.Server
	sem           chan struct{}
	site          *config.Site
	renderer      *render.Renderer
	renderStore   store.RenderStore
	webhookClient webhookSender
	metrics       *metrics
	tracer        trace.Tracer
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	site *config.Site,
	renderStore store.RenderStore,
	webhookClient webhookSender,
) (*Server, error) {
	if site == nil {
		return nil, fmt.Errorf("site configuration is required")
	}
	if renderStore == nil {
		renderStore = store.NewMemoryRenderStore()
	}

	m := newMetrics()
	generator := variant.NewGenerator(site.SourceRoot, site.OutputRoot, site.OutputSubdir, nil, logger)
	renderer := render.New(render.Options{
		Presets:   site.Presets,
		Densities: site.Densities,
		Generator: generator,
		Logger:    logger,
		Metrics:   render.NewMetrics(m.registry),
	})

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:           make(chan struct{}, max(1, workerCfg.MaxActiveRenders)),
		site:          site,
		renderer:      renderer,
		renderStore:   renderStore,
		webhookClient: webhookClient,
		metrics:       m,
		tracer:        otel.Tracer("picset/worker"),
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeRenderPicture, s.handleRenderPicture)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleRenderPicture(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := store.RenderStatusFailed

	payload, err := queue.ParseRenderPicturePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.render_picture", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("render.id", payload.RenderID),
		attribute.String("render.preset", payload.Preset),
		attribute.String("render.image", payload.Image),
	)
	defer span.End()
	defer func() {
		s.metrics.renderDuration.WithLabelValues(payload.Preset, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.rendersTotal.WithLabelValues(payload.Preset, outcome).Inc()
	}()

	s.sem <- struct{}{}
	s.metrics.activeRenders.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeRenders.Dec()
	}()

	s.logger.Printf(
		"Rendering... render_id=%s preset=%s image=%s overrides=%d",
		payload.RenderID,
		payload.Preset,
		payload.Image,
		len(payload.Overrides),
	)

	result, err := s.renderer.Render(ctx, payload.Preset, payload.Image, payload.Overrides)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.recordRender(ctx, payload, store.RenderStatusFailed, render.Result{}, time.Since(startedAt))
		s.dispatchWebhook(ctx, payload, "picture.failed", map[string]any{
			"render_id":    payload.RenderID,
			"preset":       payload.Preset,
			"image":        payload.Image,
			"status":       store.RenderStatusFailed,
			"requested_at": payload.RequestedAt,
			"failed_at":    time.Now().UTC(),
			"error":        err.Error(),
		})
		return fmt.Errorf("render picture: %w", err)
	}

	markupMode := payload.Markup
	if markupMode == "" {
		markupMode = s.site.Markup
	}
	html, err := markup.Emit(markupMode, result, nil)
	if err != nil {
		// Markup mode is validated at submission, so a failure here means
		// configuration drift between API and worker.
		span.RecordError(err)
		span.SetStatus(codes.Error, "markup failed")
		s.recordRender(ctx, payload, store.RenderStatusFailed, result, time.Since(startedAt))
		return fmt.Errorf("emit markup: %v: %w", err, asynq.SkipRetry)
	}

	s.logger.Printf(
		"Rendered render_id=%s variants=%d cache_hits=%d skipped=%d",
		payload.RenderID,
		len(result.Variants),
		result.CacheHits(),
		result.Skipped(),
	)
	s.metrics.variantsTotal.Add(float64(len(result.Variants) - result.Skipped()))
	s.recordRender(ctx, payload, store.RenderStatusSucceeded, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, "picture.rendered", map[string]any{
		"render_id":    payload.RenderID,
		"preset":       payload.Preset,
		"image":        payload.Image,
		"status":       store.RenderStatusSucceeded,
		"requested_at": payload.RequestedAt,
		"rendered_at":  time.Now().UTC(),
		"default_path": result.DefaultPath,
		"variants":     result.Variants,
		"markup":       html,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook dispatch failed")
		return err
	}

	outcome = store.RenderStatusSucceeded
	span.SetStatus(codes.Ok, "rendered")
	return nil
}

func (s *Server) recordRender(ctx context.Context, payload queue.RenderPicturePayload, status string, result render.Result, elapsed time.Duration) {
	durationMS := elapsed.Milliseconds()
	if durationMS < 1 {
		durationMS = 1
	}

	entry := store.RenderLog{
		ID:         payload.RenderID,
		Preset:     payload.Preset,
		Image:      payload.Image,
		Status:     status,
		Variants:   len(result.Variants),
		CacheHits:  result.CacheHits(),
		Skipped:    result.Skipped(),
		DurationMS: durationMS,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.renderStore.CreateRenderLog(ctx, entry); err != nil {
		s.logger.Printf("render log write failed render_id=%s err=%v", payload.RenderID, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.RenderPicturePayload, event string, body map[string]any) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.metrics.webhooksTotal.WithLabelValues(event, "failed").Inc()
		s.logger.Printf("webhook delivery failed render_id=%s event=%s err=%v", payload.RenderID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	s.metrics.webhooksTotal.WithLabelValues(event, "delivered").Inc()
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
