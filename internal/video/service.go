package video

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var videoTracer = otel.Tracer("telehealth.internal.video")

var (
	ErrPatientForbidden = apperrors.Forbidden("Unauthorized to access this video call")
	ErrDoctorForbidden  = apperrors.Forbidden("Unauthorized to access this appointment")
	ErrNotScheduled     = apperrors.Validation("Video call is only available for scheduled appointments")
	ErrOutsideWindow    = apperrors.Forbidden("Video call is only available within 5 minutes before to 30 minutes after the scheduled time")
	ErrBadSlot          = apperrors.Validation("Invalid appointment time format")

	// ErrNotConfigured is reported with a 500 status and its own message.
	ErrNotConfigured = &apperrors.Error{Kind: apperrors.KindInternal, Message: "Video service not configured. Please contact support."}
)

// Appointments is the slice of the scheduling service used for access checks.
type Appointments interface {
	Get(ctx context.Context, id int64) (*appointments.Appointment, error)
	Location() *time.Location
	Now() time.Time
}

// DoctorLookup resolves doctors by id.
type DoctorLookup interface {
	Get(ctx context.Context, id int64) (*doctors.Doctor, error)
}

// Access is returned to a participant allowed to join a call.
type Access struct {
	AppointmentID   int64     `json:"appointment_id"`
	RoomID          string    `json:"room_id"`
	ChannelName     string    `json:"channel_name"`
	DoctorUserID    string    `json:"doctor_user_id"`
	PatientUserID   string    `json:"patient_user_id"`
	UID             string    `json:"uid"`
	Token           string    `json:"token"`
	AppID           string    `json:"app_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentTime string    `json:"appointment_time"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Service decides who may join an appointment's call and mints their token.
type Service struct {
	appts   Appointments
	doctors DoctorLookup
	minter  TokenMinter
	appID   string
	ttl     time.Duration
	logger  *logging.Logger
}

func NewService(appts Appointments, doctorLookup DoctorLookup, minter TokenMinter, appID string, ttl time.Duration, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{appts: appts, doctors: doctorLookup, minter: minter, appID: appID, ttl: ttl, logger: logger}
}

// Configured reports whether tokens can be minted.
func (s *Service) Configured() bool {
	if s.appID == "" || s.minter == nil {
		return false
	}
	if c, ok := s.minter.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// PatientAccess grants the booking patient access to the call.
func (s *Service) PatientAccess(ctx context.Context, userID, appointmentID int64) (*Access, error) {
	ctx, span := videoTracer.Start(ctx, "video.patient_access")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", appointmentID))

	appt, err := s.checkAppointment(ctx, appointmentID, func(a *appointments.Appointment) bool { return a.UserID == userID }, ErrPatientForbidden)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.Get(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	uid := strconv.FormatInt(userID, 10)
	return s.grant(ctx, appt, doctor, uid, uid)
}

// DoctorAccess grants the appointment's doctor access to the call.
func (s *Service) DoctorAccess(ctx context.Context, doctorID, appointmentID int64) (*Access, error) {
	ctx, span := videoTracer.Start(ctx, "video.doctor_access")
	defer span.End()
	span.SetAttributes(attribute.Int64("appointment.id", appointmentID))

	appt, err := s.checkAppointment(ctx, appointmentID, func(a *appointments.Appointment) bool { return a.DoctorID == doctorID }, ErrDoctorForbidden)
	if err != nil {
		return nil, err
	}
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return s.grant(ctx, appt, doctor, doctor.VideoUID(), fmt.Sprintf("2%03d", appt.UserID))
}

func (s *Service) checkAppointment(ctx context.Context, id int64, owns func(*appointments.Appointment) bool, forbidden error) (*appointments.Appointment, error) {
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(appt) {
		s.logger.Warn("video access denied", "appointment_id", id, "reason", "not a participant")
		return nil, forbidden
	}
	if appt.Status != appointments.StatusScheduled {
		return nil, ErrNotScheduled
	}
	slot, err := appointments.ParseSlotTime(appt.Time, s.appts.Location())
	if err != nil {
		s.logger.Error("stored appointment time is invalid", "appointment_id", id, "time", appt.Time)
		return nil, ErrBadSlot
	}
	if !appointments.IsWithinVideoWindow(slot, s.appts.Now()) {
		return nil, ErrOutsideWindow
	}
	if !s.Configured() {
		s.logger.Error("video credentials are not configured")
		return nil, ErrNotConfigured
	}
	return appt, nil
}

func (s *Service) grant(ctx context.Context, appt *appointments.Appointment, doctor *doctors.Doctor, uid, patientUID string) (*Access, error) {
	channel := fmt.Sprintf("appointment_%d", appt.ID)
	expires := s.appts.Now().Add(s.ttl)
	token, err := s.minter.Mint(ctx, Grant{Channel: channel, UID: uid, Role: RolePublisher, ExpiresAt: expires})
	if err != nil {
		return nil, fmt.Errorf("video: mint token: %w", err)
	}
	s.logger.Info("video access granted", "appointment_id", appt.ID, "uid", uid)
	return &Access{
		AppointmentID:   appt.ID,
		RoomID:          channel,
		ChannelName:     channel,
		DoctorUserID:    doctor.VideoUID(),
		PatientUserID:   patientUID,
		UID:             uid,
		Token:           token,
		AppID:           s.appID,
		DoctorName:      doctor.Name,
		AppointmentTime: appt.Time,
		ExpiresAt:       expires.UTC(),
	}, nil
}
