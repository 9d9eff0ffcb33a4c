package doctors

import (
	"context"
	"sort"
	"sync"
)

// Repository defines doctor storage.
type Repository interface {
	List(ctx context.Context) ([]*Doctor, error)
	Get(ctx context.Context, id int64) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Create(ctx context.Context, doctor *Doctor) (*Doctor, error)
}

// InMemoryRepository keeps doctors in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	doctors map[int64]*Doctor
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{doctors: make(map[int64]*Doctor)}
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.doctors {
		if d.Email == email {
			copied := *d
			return &copied, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, doctor *Doctor) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *doctor
	stored.ID = r.nextID
	r.doctors[stored.ID] = &stored
	copied := stored
	return &copied, nil
}
