package chat

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
)

type bookedCall struct {
	UserID   int64
	DoctorID int64
	Time     string
	Reason   string
}

type reminderCall struct {
	UserID     int64
	Medication string
	Time       string
}

// fakeGateway records every mutating call and lets tests inject errors.
type fakeGateway struct {
	mu sync.Mutex

	email        string
	doctors      []*doctors.Doctor
	appointments []appointments.View
	hasProfile   bool

	slotErr   error
	bookErr   error
	cancelErr error
	delay     time.Duration
	// stall blocks doctor lookups without watching the context.
	stall time.Duration

	booked    []bookedCall
	cancelled []int64
	reminders []reminderCall
	profiles  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		email: "patient@example.com",
		doctors: []*doctors.Doctor{
			{ID: 1, Name: "Dr. Rajesh Kumar", Specialization: "Cardiologist", Availability: "Mon-Fri 9AM-5PM"},
			{ID: 2, Name: "Dr. Priya Sharma", Specialization: "Endocrinologist", Availability: "Tue-Sat 10AM-6PM"},
		},
	}
}

func (g *fakeGateway) wait(ctx context.Context) error {
	if g.delay == 0 {
		return nil
	}
	select {
	case <-time.After(g.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *fakeGateway) UserEmail(ctx context.Context, userID int64) (string, error) {
	return g.email, nil
}

func (g *fakeGateway) ListDoctors(ctx context.Context) ([]*doctors.Doctor, error) {
	time.Sleep(g.stall)
	return g.doctors, nil
}

func (g *fakeGateway) GetDoctor(ctx context.Context, doctorID int64) (*doctors.Doctor, error) {
	time.Sleep(g.stall)
	for _, d := range g.doctors {
		if d.ID == doctorID {
			return d, nil
		}
	}
	return nil, doctors.ErrDoctorNotFound
}

func (g *fakeGateway) ValidateSlot(raw string) (string, error) {
	if g.slotErr != nil {
		return "", g.slotErr
	}
	slot, err := appointments.ParseSlotTime(raw, time.UTC)
	if err != nil {
		return "", err
	}
	return appointments.FormatSlotTime(slot), nil
}

func (g *fakeGateway) ListAppointments(ctx context.Context, userID int64) ([]appointments.View, error) {
	return g.appointments, nil
}

func (g *fakeGateway) BookAppointment(ctx context.Context, userID, doctorID int64, slot, reason string) (*appointments.Appointment, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if g.bookErr != nil {
		return nil, g.bookErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.booked = append(g.booked, bookedCall{UserID: userID, DoctorID: doctorID, Time: slot, Reason: reason})
	return &appointments.Appointment{ID: int64(len(g.booked)), UserID: userID, DoctorID: doctorID, Time: slot, Reason: reason}, nil
}

func (g *fakeGateway) CancelAppointment(ctx context.Context, userID, appointmentID int64) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, appointmentID)
	return nil
}

func (g *fakeGateway) CreateReminder(ctx context.Context, userID int64, medication, hhmm string) (*reminders.Reminder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reminders = append(g.reminders, reminderCall{UserID: userID, Medication: medication, Time: hhmm})
	return &reminders.Reminder{ID: int64(len(g.reminders)), UserID: userID, Medication: medication, Time: hhmm}, nil
}

func (g *fakeGateway) HasProfile(ctx context.Context, userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasProfile, nil
}

func (g *fakeGateway) CreateProfile(ctx context.Context, userID int64, name string, age int, history string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.profiles++
	g.hasProfile = true
	return nil
}
