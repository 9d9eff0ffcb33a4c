package doctors

import (
	"fmt"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

// Doctor is static reference data plus the credentials used by the doctor portal.
type Doctor struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Availability   string `json:"availability"`
	VideoUserID    string `json:"video_user_id,omitempty"`
	Email          string `json:"email,omitempty"`
	PasswordHash   string `json:"-"`
}

// VideoUID is the participant id used when the doctor joins a call.
func (d *Doctor) VideoUID() string {
	if d.VideoUserID != "" {
		return d.VideoUserID
	}
	return fmt.Sprintf("1%03d", d.ID)
}

var (
	// ErrDoctorNotFound is returned for an unknown doctor id.
	ErrDoctorNotFound = apperrors.NotFound("Doctor not found")

	ErrCredentialsRequired  = apperrors.Validation("Email and password are required")
	ErrInvalidCredentials   = apperrors.Unauthorized("Invalid doctor credentials")
	ErrDoctorAccessRequired = apperrors.Forbidden("Doctor access required")
)
