package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemorySessionRepo 未启用 DB/Redis 时的进程内实现
type MemorySessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	now      func() time.Time
}

type memorySession struct {
	blob    string
	updated time.Time
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{sessions: map[string]memorySession{}, now: time.Now}
}

var _ SessionRepo = (*MemorySessionRepo)(nil)

func (r *MemorySessionRepo) Save(_ context.Context, name, blob string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[name] = memorySession{blob: blob, updated: r.now().UTC()}
	return nil
}

func (r *MemorySessionRepo) Load(_ context.Context, name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrSessionNotFound)
	}
	return s.blob, nil
}

func (r *MemorySessionRepo) List(_ context.Context) ([]SessionInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for name, s := range r.sessions {
		out = append(out, SessionInfo{Name: name, Size: len(s.blob), UpdatedAt: s.updated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemorySessionRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrSessionNotFound)
	}
	delete(r.sessions, name)
	return nil
}
