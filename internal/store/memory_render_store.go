package store

import (
	"context"
	"sync"
)

type MemoryRenderStore struct {
	mu   sync.RWMutex
	logs []RenderLog
}

func NewMemoryRenderStore() *MemoryRenderStore {
	return &MemoryRenderStore{}
}

func (s *MemoryRenderStore) CreateRenderLog(_ context.Context, entry RenderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemoryRenderStore) Recent(_ context.Context, limit int) ([]RenderLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}

	out := make([]RenderLog, 0, limit)
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.logs[i])
	}
	return out, nil
}
