package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Service implements account registration, login and onboarding profiles.
type Service struct {
	repo     Repository
	logger   *logging.Logger
	hashCost int
}

// NewService wires a users service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// WithHashCost overrides the bcrypt cost, mainly so tests stay fast.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password, s.hashCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks an email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateByEmail returns the account for a verified third-party identity,
// creating one with an unusable random password when none exists.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrCredentialsRequired
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	hash, err := HashPassword(uuid.NewString(), s.hashCost)
	if err != nil {
		return nil, err
	}
	user, err = s.repo.Create(ctx, email, hash)
	if errors.Is(err, ErrUserExists) {
		return s.repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created from identity provider", "user_id", user.ID)
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile returns the onboarding profile for a user.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// HasProfile reports whether the user already completed onboarding.
func (s *Service) HasProfile(ctx context.Context, userID int64) (bool, error) {
	_, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("users: profile lookup: %w", err)
}

// CreateProfile validates and stores an onboarding profile.
func (s *Service) CreateProfile(ctx context.Context, userID int64, name string, age int, history string) (*Profile, error) {
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if age < 1 || age > 120 {
		return nil, ErrInvalidAge
	}
	profile, err := s.repo.CreateProfile(ctx, &Profile{
		UserID:         userID,
		Name:           name,
		Age:            age,
		MedicalHistory: NormalizeHistory(history),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("profile created", "user_id", userID)
	return profile, nil
}
