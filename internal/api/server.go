// Package api exposes the render-submission HTTP surface. Renders are
// validated against the loaded site presets and enqueued for the worker;
// the API never touches image bytes itself.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/picset/picset/internal/config"
	"github.com/picset/picset/internal/id"
	"github.com/picset/picset/internal/markup"
	"github.com/picset/picset/internal/queue"
	"github.com/picset/picset/internal/store"
)

type Server struct {
	logger                *log.Logger
	site                  *config.Site
	queueClient           queueEnqueuer
	renderStore           store.RenderStore
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	metrics               *metrics
	tracer                trace.Tracer
	mux                   *http.ServeMux
}

type queueEnqueuer interface {
	EnqueueRenderPicture(ctx context.Context, payload queue.RenderPicturePayload) (*asynq.TaskInfo, error)
}

type Options struct {
	Logger                *log.Logger
	Site                  *config.Site
	QueueClient           queueEnqueuer
	RenderStore           store.RenderStore
	RateLimiter           RateLimiter
	RateLimitUserIDHeader string
	TracingEnabled        bool
}

func NewServer(opts Options) *Server {
	userIDHeader := strings.TrimSpace(opts.RateLimitUserIDHeader)
	if userIDHeader == "" {
		userIDHeader = "X-User-ID"
	}

	s := &Server{
		logger:                opts.Logger,
		site:                  opts.Site,
		queueClient:           opts.QueueClient,
		renderStore:           opts.RenderStore,
		rateLimiter:           opts.RateLimiter,
		rateLimitUserIDHeader: userIDHeader,
		metrics:               newMetrics(),
		mux:                   http.NewServeMux(),
	}
	if opts.TracingEnabled {
		s.tracer = otel.Tracer("picset/api")
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.withRateLimit(handler)
	handler = s.withTracing(handler)
	handler = s.metrics.withHTTPMetrics(handler)
	return handler
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("POST /v1/renders", s.handleCreateRender)
	s.mux.HandleFunc("GET /v1/renders/recent", s.handleRecentRenders)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRenderRequest struct {
	Preset     string            `json:"preset"`
	Image      string            `json:"image"`
	Overrides  map[string]string `json:"overrides,omitempty"`
	Markup     string            `json:"markup,omitempty"`
	WebhookURL string            `json:"webhook_url,omitempty"`
}

func (req *createRenderRequest) validate(site *config.Site) error {
	if strings.TrimSpace(req.Preset) == "" {
		return errors.New("preset is required")
	}
	if strings.TrimSpace(req.Image) == "" {
		return errors.New("image is required")
	}

	preset, ok := site.Presets[req.Preset]
	if !ok {
		return fmt.Errorf("unknown preset: %s", req.Preset)
	}
	for key := range req.Overrides {
		if !preset.HasSource(key) {
			return fmt.Errorf("override targets unknown source key: %s", key)
		}
	}

	if req.Markup != "" && !markup.Valid(req.Markup) {
		return fmt.Errorf("unknown markup mode: %s", req.Markup)
	}

	if req.WebhookURL != "" && !strings.HasPrefix(req.WebhookURL, "http://") && !strings.HasPrefix(req.WebhookURL, "https://") {
		return errors.New("webhook_url must be an http(s) URL")
	}
	return nil
}

func (s *Server) handleCreateRender(w http.ResponseWriter, r *http.Request) {
	var req createRenderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.validate(s.site); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	markupMode := req.Markup
	if markupMode == "" {
		markupMode = s.site.Markup
	}

	payload := queue.RenderPicturePayload{
		RenderID:    id.New(),
		Preset:      req.Preset,
		Image:       req.Image,
		Overrides:   req.Overrides,
		Markup:      markupMode,
		WebhookURL:  req.WebhookURL,
		RequestedAt: time.Now().UTC(),
	}

	taskInfo, err := s.queueClient.EnqueueRenderPicture(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed for render %s: %v", payload.RenderID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue render"})
		return
	}

	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"render_id":   payload.RenderID,
		"preset":      payload.Preset,
		"image":       payload.Image,
		"markup":      payload.Markup,
		"queue":       taskInfo.Queue,
		"task_id":     taskInfo.ID,
		"state":       taskInfo.State.String(),
		"enqueued_at": taskInfo.NextProcessAt,
	})
}

func (s *Server) handleRecentRenders(w http.ResponseWriter, r *http.Request) {
	logs, err := s.renderStore.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Printf("list recent renders failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list renders"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"renders": logs})
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
