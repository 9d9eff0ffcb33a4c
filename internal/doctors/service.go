package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/telehealth-platform/internal/users"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Service exposes the doctor directory and doctor portal login.
type Service struct {
	repo     Repository
	logger   *logging.Logger
	hashCost int
}

// NewService wires a doctor service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// WithHashCost overrides the bcrypt cost used when seeding.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

// List returns every doctor ordered by id.
func (s *Service) List(ctx context.Context) ([]*Doctor, error) {
	return s.repo.List(ctx)
}

// Get returns a doctor by id.
func (s *Service) Get(ctx context.Context, id int64) (*Doctor, error) {
	return s.repo.Get(ctx, id)
}

// Authenticate checks doctor portal credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Doctor, error) {
	email = users.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	doctor, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !users.CheckPassword(doctor.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return doctor, nil
}

// DefaultRoster is the reference set of doctors loaded into an empty directory.
var DefaultRoster = []Doctor{
	{Name: "Dr. Rajesh Kumar", Specialization: "Cardiologist", Availability: "Mon-Fri 9AM-5PM", Email: "doctor_rajesh@clinic.com"},
	{Name: "Dr. Priya Sharma", Specialization: "Endocrinologist", Availability: "Tue-Sat 10AM-6PM", Email: "doctor_priya@clinic.com"},
	{Name: "Dr. Amit Patel", Specialization: "Diabetologist", Availability: "Mon-Wed-Fri 2PM-8PM", Email: "doctor_amit@clinic.com"},
	{Name: "Dr. Sunita Gupta", Specialization: "General Physician", Availability: "Daily 9AM-1PM", Email: "doctor_sunita@clinic.com"},
}

// Seed inserts DefaultRoster when the directory is empty. It returns the number of doctors created.
func (s *Service) Seed(ctx context.Context, password string) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("doctors: seed: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	hash, err := users.HashPassword(password, s.hashCost)
	if err != nil {
		return 0, err
	}
	for i, d := range DefaultRoster {
		d.PasswordHash = hash
		d.VideoUserID = fmt.Sprintf("1%03d", i+1)
		if _, err := s.repo.Create(ctx, &d); err != nil {
			return i, fmt.Errorf("doctors: seed %s: %w", d.Name, err)
		}
	}
	s.logger.Info("seeded doctor directory", "count", len(DefaultRoster))
	return len(DefaultRoster), nil
}
