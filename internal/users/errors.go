package users

import "github.com/wolfman30/telehealth-platform/internal/apperrors"

var (
	// ErrCredentialsRequired is returned when registration or login omits a field.
	ErrCredentialsRequired = apperrors.Validation("Email and password are required")

	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = apperrors.Validation("User already exists")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = apperrors.Unauthorized("Invalid credentials")

	ErrUserNotFound    = apperrors.NotFound("User not found")
	ErrProfileExists   = apperrors.Conflict("Profile already exists")
	ErrProfileNotFound = apperrors.NotFound("Profile not found")

	ErrInvalidName = apperrors.Validation("Please provide a valid name.")
	ErrInvalidAge  = apperrors.Validation("Please provide a valid age (e.g., '30').")
)
