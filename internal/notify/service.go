package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// ReminderNotice is a medication reminder addressed to a patient.
type ReminderNotice struct {
	To         string
	Medication string
	Time       string
}

// AppointmentNotice describes an appointment change addressed to a patient.
type AppointmentNotice struct {
	To           string
	DoctorName   string
	Time         string
	PreviousTime string
	Change       string
}

// Service composes patient notifications and hands them to an EmailSender.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &Service{email: email, logger: logger}
}

// SendReminder e-mails a daily medication reminder.
func (s *Service) SendReminder(ctx context.Context, n ReminderNotice) error {
	if strings.TrimSpace(n.To) == "" {
		return fmt.Errorf("notify: reminder recipient missing")
	}
	msg := EmailMessage{
		Kind:    KindMedicationReminder,
		To:      n.To,
		Subject: fmt.Sprintf("Medication reminder: %s", n.Medication),
		Body: fmt.Sprintf("Hi! This is your daily reminder to take %s (scheduled for %s).\n\n"+
			"You can manage your reminders from your dashboard.", n.Medication, n.Time),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send reminder: %w", err)
	}
	return nil
}

// SendAppointmentUpdate e-mails a booking confirmation or change.
func (s *Service) SendAppointmentUpdate(ctx context.Context, n AppointmentNotice) error {
	if strings.TrimSpace(n.To) == "" {
		return fmt.Errorf("notify: appointment recipient missing")
	}
	var subject, body string
	switch n.Change {
	case "booked":
		subject = "Your appointment is confirmed"
		body = fmt.Sprintf("Your appointment with %s on %s is confirmed. You can join the video call from your dashboard up to 5 minutes before the start time.", n.DoctorName, n.Time)
	case "cancelled":
		subject = "Your appointment was cancelled"
		body = fmt.Sprintf("Your appointment with %s on %s has been cancelled.", n.DoctorName, n.Time)
	case "rescheduled":
		subject = "Your appointment was rescheduled"
		body = fmt.Sprintf("Your appointment with %s has moved from %s to %s.", n.DoctorName, n.PreviousTime, n.Time)
	default:
		return nil
	}
	if err := s.email.Send(ctx, EmailMessage{Kind: KindAppointmentUpdate, To: n.To, Subject: subject, Body: body}); err != nil {
		return fmt.Errorf("notify: send appointment update: %w", err)
	}
	return nil
}

// Directory resolves the people referenced by events.
type Directory interface {
	UserEmail(ctx context.Context, userID int64) (string, error)
	DoctorName(ctx context.Context, doctorID int64) (string, error)
}

// EventHandler e-mails patients when their appointments change. It implements
// events.DeliveryHandler.
type EventHandler struct {
	service   *Service
	directory Directory
	logger    *logging.Logger
}

func NewEventHandler(service *Service, directory Directory, logger *logging.Logger) *EventHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &EventHandler{service: service, directory: directory, logger: logger}
}

var appointmentChanges = map[string]string{
	events.TypeAppointmentBooked:      "booked",
	events.TypeAppointmentCancelled:   "cancelled",
	events.TypeAppointmentRescheduled: "rescheduled",
}

func (h *EventHandler) Handle(ctx context.Context, entry events.OutboxEntry) error {
	change, ok := appointmentChanges[entry.Type]
	if !ok {
		return nil
	}
	var env events.Envelope
	if err := json.Unmarshal(entry.Payload, &env); err != nil {
		return fmt.Errorf("notify: decode envelope: %w", err)
	}
	var evt events.AppointmentEventV1
	if err := json.Unmarshal(env.Payload, &evt); err != nil {
		return fmt.Errorf("notify: decode appointment event: %w", err)
	}
	to, err := h.directory.UserEmail(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("notify: resolve recipient: %w", err)
	}
	doctorName, err := h.directory.DoctorName(ctx, evt.DoctorID)
	if err != nil {
		h.logger.Warn("notify: doctor lookup failed", "doctor_id", evt.DoctorID, "error", err)
		doctorName = "your doctor"
	}
	return h.service.SendAppointmentUpdate(ctx, AppointmentNotice{
		To:           to,
		DoctorName:   doctorName,
		Time:         evt.Time,
		PreviousTime: evt.PreviousTime,
		Change:       change,
	})
}

var _ events.DeliveryHandler = (*EventHandler)(nil)
