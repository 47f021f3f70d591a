package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/ai-referral-go/internal/analytics"
)

// MemoryStore is an in-memory implementation of analytics.Store and analytics.SummaryReader.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*analytics.AttributionRecorded
	ids    map[string]struct{}
}

// NewMemoryStore creates a new in-memory attribution store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

// SaveAttribution stores an event. Events with a known id are ignored.
func (m *MemoryStore) SaveAttribution(_ context.Context, event *analytics.AttributionRecorded) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[event.ID]; ok {
		return nil
	}

	m.ids[event.ID] = struct{}{}
	m.events = append(m.events, event)

	return nil
}

func (m *MemoryStore) Summary(_ context.Context, since time.Time) ([]analytics.SourceCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct{ event, source string }

	counts := make(map[key]int64)

	for _, e := range m.events {
		if e.OccurredAt.Before(since) {
			continue
		}

		counts[key{e.Event, e.Source}]++
	}

	result := make([]analytics.SourceCount, 0, len(counts))
	for k, n := range counts {
		result = append(result, analytics.SourceCount{Event: k.event, Source: k.source, Count: n})
	}

	sortCounts(result)

	return result, nil
}

// Len returns the number of stored events.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.events)
}

func sortCounts(counts []analytics.SourceCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}

		if counts[i].Event != counts[j].Event {
			return counts[i].Event < counts[j].Event
		}

		return counts[i].Source < counts[j].Source
	})
}

var (
	_ analytics.Store         = (*MemoryStore)(nil)
	_ analytics.SummaryReader = (*MemoryStore)(nil)
)
