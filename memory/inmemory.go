package memory

import (
	"context"
	"sync"
	"time"

	"recipeagent/recovery"
)

type entry struct {
	payload   recovery.Payload
	expiresAt time.Time
}

// InMemoryStore is a process-local Store. A zero or negative TTL keeps entries forever. Payloads are
// copied on the way in and out, so callers never share maps or slices with the store.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (recovery.Payload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return recovery.Payload{}, false, nil
	}
	if s.expired(e) {
		delete(s.entries, key)
		return recovery.Payload{}, false, nil
	}
	return clonePayload(e.payload), true, nil
}

func (s *InMemoryStore) Put(ctx context.Context, key string, p recovery.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{payload: clonePayload(p)}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (s *InMemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *InMemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func clonePayload(p recovery.Payload) recovery.Payload {
	return recovery.Payload{
		Recipe: cloneValue(p.Recipe),
		MissingSuggestions: recovery.MissingSuggestions{
			Ingredients: cloneStrings(p.MissingSuggestions.Ingredients),
			HacksOrTips: cloneStrings(p.MissingSuggestions.HacksOrTips),
		},
	}
}

// cloneValue deep-copies a decoded JSON value. Scalars are immutable and returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
