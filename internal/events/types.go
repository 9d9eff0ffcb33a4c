package events

import (
	"context"
	"time"
)

// Event types emitted by the scheduling services.
const (
	TypeAppointmentBooked      = "appointment.booked.v1"
	TypeAppointmentCancelled   = "appointment.cancelled.v1"
	TypeAppointmentRescheduled = "appointment.rescheduled.v1"
	TypeAppointmentCompleted   = "appointment.completed.v1"
	TypeAppointmentExpired     = "appointment.expired.v1"
	TypeAppointmentDeleted     = "appointment.deleted.v1"
	TypeReminderCreated        = "reminder.created.v1"
	TypeReminderDeleted        = "reminder.deleted.v1"
	TypeReminderSent           = "reminder.sent.v1"
	TypeProfileCreated         = "profile.created.v1"
)

// Publisher records a domain event for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, aggregate, eventType string, payload any) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }

type AppointmentEventV1 struct {
	AppointmentID int64     `json:"appointment_id"`
	UserID        int64     `json:"user_id"`
	DoctorID      int64     `json:"doctor_id"`
	Time          string    `json:"time"`
	PreviousTime  string    `json:"previous_time,omitempty"`
	Status        string    `json:"status"`
	Source        string    `json:"source,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type ReminderEventV1 struct {
	ReminderID int64     `json:"reminder_id"`
	UserID     int64     `json:"user_id"`
	Medication string    `json:"medication"`
	Time       string    `json:"time"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ProfileCreatedV1 struct {
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
