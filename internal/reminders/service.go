package reminders

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Service validates and stores medication reminders.
type Service struct {
	repo   Repository
	events events.Publisher
	logger *logging.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, events: publisher, logger: logger}
}

// Create validates and stores a reminder.
func (s *Service) Create(ctx context.Context, userID int64, medication, hhmm string) (*Reminder, error) {
	hhmm = strings.TrimSpace(hhmm)
	if strings.TrimSpace(medication) == "" || hhmm == "" {
		return nil, ErrFieldsRequired
	}
	name, err := ValidateMedication(medication)
	if err != nil {
		return nil, err
	}
	if err := ValidateTime(hhmm); err != nil {
		return nil, err
	}
	rem, err := s.repo.Create(ctx, &Reminder{UserID: userID, Medication: name, Time: hhmm})
	if err != nil {
		s.logger.Error("failed to create reminder", "user_id", userID, "error", err)
		return nil, err
	}
	s.publish(ctx, events.TypeReminderCreated, rem)
	s.logger.Info("reminder created", "reminder_id", rem.ID, "user_id", userID)
	return rem, nil
}

// ListForUser returns a patient's reminders ordered by time of day.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Reminder, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a patient's reminder.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	rem, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rem.UserID != userID {
		return ErrDeleteForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TypeReminderDeleted, rem)
	return nil
}

// DueAt returns the reminders scheduled for hhmm.
func (s *Service) DueAt(ctx context.Context, hhmm string) ([]*Reminder, error) {
	return s.repo.ListAt(ctx, hhmm)
}

func (s *Service) publish(ctx context.Context, eventType string, rem *Reminder) {
	err := s.events.Publish(ctx, "reminder:"+strconv.FormatInt(rem.ID, 10), eventType, events.ReminderEventV1{
		ReminderID: rem.ID,
		UserID:     rem.UserID,
		Medication: rem.Medication,
		Time:       rem.Time,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to publish reminder event", "reminder_id", rem.ID, "type", eventType, "error", err)
	}
}
