package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryOutbox is an in-process outbox used when no database is configured.
type MemoryOutbox struct {
	mu        sync.Mutex
	entries   []OutboxEntry
	delivered map[uuid.UUID]bool
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{delivered: make(map[uuid.UUID]bool)}
}

func (m *MemoryOutbox) Publish(ctx context.Context, aggregate, eventType string, payload any) error {
	env, err := newEnvelope(aggregate, eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, OutboxEntry{
		ID:        env.EventID,
		Aggregate: env.Aggregate,
		Type:      env.EventType,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryOutbox) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []OutboxEntry
	for _, entry := range m.entries {
		if m.delivered[entry.ID] {
			continue
		}
		out = append(out, entry)
		if limit > 0 && int32(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryOutbox) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.delivered[id] {
		return false, nil
	}
	m.delivered[id] = true
	// Delivered entries are dropped from the queue.
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if !m.delivered[entry.ID] {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return true, nil
}

// Types returns the event types still pending, oldest first.
func (m *MemoryOutbox) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry.Type)
	}
	return out
}
