package users

import (
	"strconv"
	"strings"
	"time"
)

// User is a patient account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the onboarding record attached to a user. At most one exists per user.
type Profile struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	MedicalHistory string    `json:"medical_history"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName checks an onboarding name.
func ValidateName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < 2 {
		return ErrInvalidName
	}
	return nil
}

// ParseAge parses an onboarding age in the range [1, 120].
func ParseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || age < 1 || age > 120 {
		return 0, ErrInvalidAge
	}
	return age, nil
}

// NormalizeHistory maps the literal "none" to an empty history.
func NormalizeHistory(history string) string {
	history = strings.TrimSpace(history)
	if strings.EqualFold(history, "none") {
		return ""
	}
	return history
}
