package reminders

import (
	"regexp"
	"strings"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

// Reminder is a daily medication reminder. It is immutable once created.
type Reminder struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Medication string    `json:"medication"`
	Time       string    `json:"time"`
	CreatedAt  time.Time `json:"created_at"`
}

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

var (
	ErrFieldsRequired     = apperrors.Validation("Medication and time are required")
	ErrMedicationTooShort = apperrors.Validation("Medication name must be at least 2 characters")
	ErrInvalidTime        = apperrors.Validation("Invalid time format. Use HH:MM (e.g., '08:00')")
	ErrNotFound           = apperrors.NotFound("Reminder not found")
	ErrDeleteForbidden    = apperrors.Forbidden("Unauthorized to delete this reminder")
)

// ValidateMedication trims name and requires at least two characters.
func ValidateMedication(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return "", ErrMedicationTooShort
	}
	return name, nil
}

// ValidateTime requires exactly two digits, a colon and two digits.
func ValidateTime(raw string) error {
	if !timePattern.MatchString(raw) {
		return ErrInvalidTime
	}
	return nil
}
