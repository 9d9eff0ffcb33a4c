package reminders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines reminder storage.
type Repository interface {
	Create(ctx context.Context, r *Reminder) (*Reminder, error)
	Get(ctx context.Context, id int64) (*Reminder, error)
	ListByUser(ctx context.Context, userID int64) ([]*Reminder, error)
	ListAt(ctx context.Context, hhmm string) ([]*Reminder, error)
	Delete(ctx context.Context, id int64) error
}

// InMemoryRepository keeps reminders in process memory.
type InMemoryRepository struct {
	mu        sync.RWMutex
	nextID    int64
	reminders map[int64]*Reminder
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{reminders: make(map[int64]*Reminder)}
}

func (r *InMemoryRepository) Create(ctx context.Context, rem *Reminder) (*Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *rem
	stored.ID = r.nextID
	stored.CreatedAt = time.Now().UTC()
	r.reminders[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rem
	return &copied, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int64) ([]*Reminder, error) {
	return r.filter(func(rem *Reminder) bool { return rem.UserID == userID }), nil
}

func (r *InMemoryRepository) ListAt(ctx context.Context, hhmm string) ([]*Reminder, error) {
	return r.filter(func(rem *Reminder) bool { return rem.Time == hhmm }), nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(r.reminders, id)
	return nil
}

func (r *InMemoryRepository) filter(keep func(*Reminder) bool) []*Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Reminder
	for _, rem := range r.reminders {
		if keep(rem) {
			copied := *rem
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out
}
