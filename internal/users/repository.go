package users

import (
	"context"
	"sync"
	"time"
)

// Repository defines storage for users and their onboarding profiles.
type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	CreateProfile(ctx context.Context, profile *Profile) (*Profile, error)
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
}

// InMemoryRepository keeps users in process memory for development and tests.
type InMemoryRepository struct {
	mu          sync.RWMutex
	nextUserID  int64
	nextProfile int64
	users       map[int64]*User
	byEmail     map[string]int64
	profiles    map[int64]*Profile
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:    make(map[int64]*User),
		byEmail:  make(map[string]int64),
		profiles: make(map[int64]*Profile),
	}
}

func (r *InMemoryRepository) Create(ctx context.Context, email, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, ErrUserExists
	}
	r.nextUserID++
	user := &User{
		ID:           r.nextUserID,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.users[user.ID] = user
	r.byEmail[email] = user.ID
	copied := *user
	return &copied, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *r.users[id]
	return &copied, nil
}

func (r *InMemoryRepository) CreateProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[profile.UserID]; exists {
		return nil, ErrProfileExists
	}
	r.nextProfile++
	stored := *profile
	stored.ID = r.nextProfile
	stored.CreatedAt = time.Now().UTC()
	r.profiles[stored.UserID] = &stored
	copied := stored
	return &copied, nil
}

func (r *InMemoryRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}
