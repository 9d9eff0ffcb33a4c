package appointments

import (
	"time"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// Appointment is a booked consultation. Time is stored in TimeLayout form.
type Appointment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	DoctorID  int64     `json:"doctor_id"`
	Time      string    `json:"time"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// View is an appointment rendered for its patient.
type View struct {
	Appointment
	DoctorName     string `json:"doctor_name"`
	Specialization string `json:"specialization,omitempty"`
}

// DoctorView is an appointment rendered for the doctor portal.
type DoctorView struct {
	Appointment
	IsToday   bool `json:"is_today"`
	IsCurrent bool `json:"is_current"`
}

// BookRequest carries the fields needed to book a slot.
type BookRequest struct {
	UserID   int64  `json:"-"`
	DoctorID int64  `json:"doctor_id"`
	Time     string `json:"time"`
	Reason   string `json:"reason"`
	Source   string `json:"-"`
}

const unknownDoctorName = "Unknown Doctor"

var (
	ErrFieldsRequired    = apperrors.Validation("Doctor ID, time, and reason are required")
	ErrInvalidTimeFormat = apperrors.Validation("Invalid time format. Use YYYY-MM-DD HH:MM")
	ErrPastTime          = apperrors.Validation("Cannot book appointments in the past")

	// ErrSlotTaken is returned when the doctor already has a Scheduled appointment at that time.
	ErrSlotTaken = apperrors.Conflict("This time slot is already booked")

	ErrNotFound            = apperrors.NotFound("Appointment not found")
	ErrCancelForbidden     = apperrors.Forbidden("Unauthorized to cancel this appointment")
	ErrAlreadyCancelled    = apperrors.Validation("Appointment is already cancelled")
	ErrDeleteForbidden     = apperrors.Forbidden("Unauthorized to delete this appointment")
	ErrRescheduleForbidden = apperrors.Forbidden("Unauthorized to reschedule this appointment")
	ErrNotReschedulable    = apperrors.Validation("Can only reschedule scheduled appointments")
	ErrReschedulePast      = apperrors.Validation("Cannot reschedule to a past time")
	ErrTimeRequired        = apperrors.Validation("Time is required")
	ErrCompleteForbidden   = apperrors.Forbidden("Unauthorized to complete this appointment")
	ErrNotCompletable      = apperrors.Validation("Can only complete scheduled appointments")
)
