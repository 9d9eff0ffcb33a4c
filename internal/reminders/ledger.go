package reminders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/telehealth-platform/internal/events"
)

// SentLedger records which reminder occurrences were already dispatched.
// Claim returns true only for the first caller of a key.
type SentLedger interface {
	Claim(ctx context.Context, key string) (bool, error)
}

const ledgerTTL = 26 * time.Hour

// MemoryLedger is a process-local ledger.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]time.Time
	now     func() time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLedger) Claim(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, expires := range l.claimed {
		if now.After(expires) {
			delete(l.claimed, k)
		}
	}
	if _, ok := l.claimed[key]; ok {
		return false, nil
	}
	l.claimed[key] = now.Add(ledgerTTL)
	return true, nil
}

const redisLedgerPrefix = "reminder_sent:"

// RedisLedger shares claims across API replicas with SET NX.
type RedisLedger struct {
	redis *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	if client == nil {
		panic("reminders: redis client required")
	}
	return &RedisLedger{redis: client}
}

func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.redis.SetNX(ctx, redisLedgerPrefix+key, time.Now().UTC().Format(time.RFC3339), ledgerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("reminders: claim %s: %w", key, err)
	}
	return ok, nil
}

// ProcessedLedger stores claims in the processed_events table.
type ProcessedLedger struct {
	store *events.ProcessedStore
}

func NewProcessedLedger(store *events.ProcessedStore) *ProcessedLedger {
	return &ProcessedLedger{store: store}
}

func (l *ProcessedLedger) Claim(ctx context.Context, key string) (bool, error) {
	return l.store.MarkProcessed(ctx, "reminders", key)
}

func occurrenceKey(reminderID int64, day time.Time) string {
	return strings.Join([]string{fmt.Sprint(reminderID), day.Format("2006-01-02")}, ":")
}
