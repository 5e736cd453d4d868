// Package store records render history for the service mode.
package store

import (
	"context"
	"time"
)

const (
	RenderStatusSucceeded = "succeeded"
	RenderStatusFailed    = "failed"
)

// RenderLog is one completed (or failed) render.
type RenderLog struct {
	ID         string    `json:"id"`
	Preset     string    `json:"preset"`
	Image      string    `json:"image"`
	Status     string    `json:"status"`
	Variants   int       `json:"variants"`
	CacheHits  int       `json:"cache_hits"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

type RenderStore interface {
	CreateRenderLog(ctx context.Context, entry RenderLog) error
	Recent(ctx context.Context, limit int) ([]RenderLog, error)
}
