package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/autoplan/pkg/api"
)

// InMemoryEventStore is a goroutine-safe EventStore backed by a map of
// per-run slices.
type InMemoryEventStore struct {
	mu   sync.RWMutex
	runs map[string][]api.RunEvent
}

var _ EventStore = (*InMemoryEventStore)(nil)

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		runs: make(map[string][]api.RunEvent),
	}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[ev.RunID] = append(s.runs[ev.RunID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, runID string) ([]api.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.runs[runID]
	if len(events) == 0 {
		return nil, nil
	}
	out := make([]api.RunEvent, len(events))
	copy(out, events)
	return out, nil
}
