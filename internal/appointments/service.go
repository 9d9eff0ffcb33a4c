package appointments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/internal/observability/metrics"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var appointmentsTracer = otel.Tracer("telehealth.internal.appointments")

// DoctorDirectory resolves doctors referenced by appointments.
type DoctorDirectory interface {
	Get(ctx context.Context, id int64) (*doctors.Doctor, error)
	List(ctx context.Context) ([]*doctors.Doctor, error)
}

// Service holds the booking rules shared by the REST handlers and the chat assistant.
type Service struct {
	repo    Repository
	doctors DoctorDirectory
	events  events.Publisher
	metrics *metrics.SchedulingMetrics
	logger  *logging.Logger
	loc     *time.Location
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the timezone slot times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPublisher records lifecycle events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMetrics records lifecycle counters.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires an appointments service.
func NewService(repo Repository, directory DoctorDirectory, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:    repo,
		doctors: directory,
		events:  events.NopPublisher{},
		logger:  logger,
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the timezone slot times are interpreted in.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the current time in the service timezone.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// ValidateSlot parses raw and rejects past slots. It returns the canonical slot string.
func (s *Service) ValidateSlot(raw string) (string, error) {
	slot, err := ParseSlotTime(raw, s.loc)
	if err != nil {
		return "", err
	}
	if !IsFutureOrNow(slot, s.Now()) {
		return "", ErrPastTime
	}
	return FormatSlotTime(slot), nil
}

// Book creates a Scheduled appointment.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book", trace.WithAttributes(
		attribute.Int64("doctor.id", req.DoctorID),
	))
	defer span.End()

	reason := strings.TrimSpace(req.Reason)
	if req.DoctorID <= 0 || strings.TrimSpace(req.Time) == "" || reason == "" {
		return nil, ErrFieldsRequired
	}
	if _, err := s.doctors.Get(ctx, req.DoctorID); err != nil {
		span.RecordError(err)
		return nil, err
	}
	slot, err := s.ValidateSlot(req.Time)
	if err != nil {
		return nil, err
	}
	appt, err := s.repo.Create(ctx, &Appointment{
		UserID:   req.UserID,
		DoctorID: req.DoctorID,
		Time:     slot,
		Status:   StatusScheduled,
		Reason:   reason,
	})
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, ErrSlotTaken) {
			s.logger.Error("failed to book appointment", "user_id", req.UserID, "doctor_id", req.DoctorID, "error", err)
		}
		return nil, err
	}
	s.record(ctx, events.TypeAppointmentBooked, "booked", appt, "", req.Source)
	s.logger.Info("appointment booked", "appointment_id", appt.ID, "user_id", appt.UserID, "doctor_id", appt.DoctorID, "source", req.Source)
	return appt, nil
}

// Get returns an appointment by id.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

// ListForUser returns a patient's appointments with doctor names, ordered by time.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]View, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.list_for_user")
	defer span.End()

	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	directory, err := s.doctorIndex(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	views := make([]View, 0, len(list))
	for _, a := range list {
		view := View{Appointment: *a, DoctorName: unknownDoctorName}
		if d, ok := directory[a.DoctorID]; ok {
			view.DoctorName = d.Name
			view.Specialization = d.Specialization
		}
		views = append(views, view)
	}
	return views, nil
}

// Cancel marks a patient's appointment Cancelled.
func (s *Service) Cancel(ctx context.Context, userID, id int64) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cancel", trace.WithAttributes(attribute.Int64("appointment.id", id)))
	defer span.End()

	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, ErrCancelForbidden
	}
	if appt.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		span.RecordError(err)
		return nil, err
	}
	appt.Status = StatusCancelled
	s.record(ctx, events.TypeAppointmentCancelled, "cancelled", appt, "", "")
	s.logger.Info("appointment cancelled", "appointment_id", id, "user_id", userID)
	return appt, nil
}

// Delete removes a patient's appointment.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if appt.UserID != userID {
		return ErrDeleteForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, events.TypeAppointmentDeleted, "deleted", appt, "", "")
	s.logger.Info("appointment deleted", "appointment_id", id, "user_id", userID)
	return nil
}

// Reschedule moves a Scheduled appointment to a new slot.
func (s *Service) Reschedule(ctx context.Context, userID, id int64, rawTime string) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.reschedule", trace.WithAttributes(attribute.Int64("appointment.id", id)))
	defer span.End()

	if strings.TrimSpace(rawTime) == "" {
		return nil, ErrTimeRequired
	}
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.UserID != userID {
		return nil, ErrRescheduleForbidden
	}
	if appt.Status != StatusScheduled {
		return nil, ErrNotReschedulable
	}
	slot, err := ParseSlotTime(rawTime, s.loc)
	if err != nil {
		return nil, err
	}
	if !IsFutureOrNow(slot, s.Now()) {
		return nil, ErrReschedulePast
	}
	previous := appt.Time
	appt.Time = FormatSlotTime(slot)
	if appt.Time == previous {
		return appt, nil
	}
	if err := s.repo.UpdateTime(ctx, id, appt.Time); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.record(ctx, events.TypeAppointmentRescheduled, "rescheduled", appt, previous, "")
	s.logger.Info("appointment rescheduled", "appointment_id", id, "user_id", userID)
	return appt, nil
}

// Complete marks a doctor's Scheduled appointment Completed.
func (s *Service) Complete(ctx context.Context, doctorID, id int64) (*Appointment, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrCompleteForbidden
	}
	if appt.Status != StatusScheduled {
		return nil, ErrNotCompletable
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		return nil, err
	}
	appt.Status = StatusCompleted
	s.record(ctx, events.TypeAppointmentCompleted, "completed", appt, "", "")
	s.logger.Info("appointment completed", "appointment_id", id, "doctor_id", doctorID)
	return appt, nil
}

// ListForDoctor returns a doctor's Scheduled appointments ordered by time.
func (s *Service) ListForDoctor(ctx context.Context, doctorID int64) ([]DoctorView, error) {
	list, err := s.repo.ListByDoctor(ctx, doctorID, StatusScheduled)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	today := now.Format("2006-01-02")
	views := make([]DoctorView, 0, len(list))
	for _, a := range list {
		view := DoctorView{Appointment: *a}
		if slot, err := ParseSlotTime(a.Time, s.loc); err == nil {
			view.IsToday = slot.Format("2006-01-02") == today
			view.IsCurrent = IsWithinVideoWindow(slot, now)
		}
		views = append(views, view)
	}
	return views, nil
}

// CleanupExpired deletes Scheduled appointments whose video window has closed.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.cleanup_expired")
	defer span.End()

	now := s.Now()
	cutoff := FormatSlotTime(now.Add(-VideoGracePeriod))
	candidates, err := s.repo.ListScheduledThrough(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	removed := 0
	for _, a := range candidates {
		slot, err := ParseSlotTime(a.Time, s.loc)
		if err != nil || !IsExpired(slot, now) {
			continue
		}
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			span.RecordError(err)
			return removed, fmt.Errorf("appointments: cleanup %d: %w", a.ID, err)
		}
		removed++
		s.record(ctx, events.TypeAppointmentExpired, "expired", a, "", "cleanup")
	}
	if removed > 0 {
		s.logger.Info("expired appointments removed", "count", removed)
	}
	return removed, nil
}

func (s *Service) doctorIndex(ctx context.Context) (map[int64]*doctors.Doctor, error) {
	list, err := s.doctors.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]*doctors.Doctor, len(list))
	for _, d := range list {
		index[d.ID] = d
	}
	return index, nil
}

func (s *Service) record(ctx context.Context, eventType, metric string, appt *Appointment, previous, source string) {
	s.metrics.ObserveAppointment(metric)
	err := s.events.Publish(ctx, "appointment:"+strconv.FormatInt(appt.ID, 10), eventType, events.AppointmentEventV1{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		DoctorID:      appt.DoctorID,
		Time:          appt.Time,
		PreviousTime:  previous,
		Status:        string(appt.Status),
		Source:        source,
		OccurredAt:    s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to publish appointment event", "appointment_id", appt.ID, "type", eventType, "error", err)
	}
}
