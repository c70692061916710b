package events

import (
	"context"
	"sync"
)

// MemorySink records delivered events for assertions in tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event

	// FailPublish makes Publish return this error when set.
	FailPublish error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPublish != nil {
		return s.FailPublish
	}
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything delivered so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
