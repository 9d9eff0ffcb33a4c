package appointments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository defines appointment storage. Create and UpdateTime must enforce the
// one-Scheduled-appointment-per-(doctor, time) invariant atomically and return ErrSlotTaken.
type Repository interface {
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	Get(ctx context.Context, id int64) (*Appointment, error)
	ListByUser(ctx context.Context, userID int64) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64, status Status) ([]*Appointment, error)
	ListScheduledThrough(ctx context.Context, cutoff string) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateTime(ctx context.Context, id int64, slot string) error
	Delete(ctx context.Context, id int64) error
}

// InMemoryRepository keeps appointments in process memory.
type InMemoryRepository struct {
	mu           sync.RWMutex
	nextID       int64
	appointments map[int64]*Appointment
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{appointments: make(map[int64]*Appointment)}
}

func (r *InMemoryRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if HasConflict(r.allLocked(), a.DoctorID, a.Time, 0) {
		return nil, ErrSlotTaken
	}
	r.nextID++
	stored := *a
	stored.ID = r.nextID
	if stored.Status == "" {
		stored.Status = StatusScheduled
	}
	stored.CreatedAt = time.Now().UTC()
	r.appointments[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int64) ([]*Appointment, error) {
	return r.filter(func(a *Appointment) bool { return a.UserID == userID }), nil
}

func (r *InMemoryRepository) ListByDoctor(ctx context.Context, doctorID int64, status Status) ([]*Appointment, error) {
	return r.filter(func(a *Appointment) bool {
		return a.DoctorID == doctorID && (status == "" || a.Status == status)
	}), nil
}

func (r *InMemoryRepository) ListScheduledThrough(ctx context.Context, cutoff string) ([]*Appointment, error) {
	return r.filter(func(a *Appointment) bool {
		return a.Status == StatusScheduled && a.Time <= cutoff
	}), nil
}

func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if status == StatusScheduled && a.Status != StatusScheduled && HasConflict(r.allLocked(), a.DoctorID, a.Time, a.ID) {
		return ErrSlotTaken
	}
	a.Status = status
	return nil
}

func (r *InMemoryRepository) UpdateTime(ctx context.Context, id int64, slot string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return ErrNotFound
	}
	if HasConflict(r.allLocked(), a.DoctorID, slot, a.ID) {
		return ErrSlotTaken
	}
	a.Time = slot
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *InMemoryRepository) allLocked() []*Appointment {
	out := make([]*Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		out = append(out, a)
	}
	return out
}

func (r *InMemoryRepository) filter(keep func(*Appointment) bool) []*Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Appointment
	for _, a := range r.appointments {
		if keep(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sortByTime(out)
	return out
}

func sortByTime(list []*Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].ID < list[j].ID
	})
}
