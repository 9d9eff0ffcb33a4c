package chat

import (
	"context"

	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
	"github.com/wolfman30/telehealth-platform/internal/users"
)

// Gateway is how the dialogue engine reads and changes domain data. Errors
// carrying an apperrors kind are shown to the user verbatim.
type Gateway interface {
	UserEmail(ctx context.Context, userID int64) (string, error)
	ListDoctors(ctx context.Context) ([]*doctors.Doctor, error)
	GetDoctor(ctx context.Context, doctorID int64) (*doctors.Doctor, error)
	ValidateSlot(raw string) (string, error)
	ListAppointments(ctx context.Context, userID int64) ([]appointments.View, error)
	BookAppointment(ctx context.Context, userID, doctorID int64, slot, reason string) (*appointments.Appointment, error)
	CancelAppointment(ctx context.Context, userID, appointmentID int64) error
	CreateReminder(ctx context.Context, userID int64, medication, hhmm string) (*reminders.Reminder, error)
	HasProfile(ctx context.Context, userID int64) (bool, error)
	CreateProfile(ctx context.Context, userID int64, name string, age int, history string) error
}

// ServiceGateway calls the same services the REST handlers use.
type ServiceGateway struct {
	users        *users.Service
	doctors      *doctors.Service
	appointments *appointments.Service
	reminders    *reminders.Service
}

func NewServiceGateway(u *users.Service, d *doctors.Service, a *appointments.Service, r *reminders.Service) *ServiceGateway {
	return &ServiceGateway{users: u, doctors: d, appointments: a, reminders: r}
}

func (g *ServiceGateway) UserEmail(ctx context.Context, userID int64) (string, error) {
	user, err := g.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (g *ServiceGateway) ListDoctors(ctx context.Context) ([]*doctors.Doctor, error) {
	return g.doctors.List(ctx)
}

func (g *ServiceGateway) GetDoctor(ctx context.Context, doctorID int64) (*doctors.Doctor, error) {
	return g.doctors.Get(ctx, doctorID)
}

func (g *ServiceGateway) ValidateSlot(raw string) (string, error) {
	return g.appointments.ValidateSlot(raw)
}

func (g *ServiceGateway) ListAppointments(ctx context.Context, userID int64) ([]appointments.View, error) {
	return g.appointments.ListForUser(ctx, userID)
}

func (g *ServiceGateway) BookAppointment(ctx context.Context, userID, doctorID int64, slot, reason string) (*appointments.Appointment, error) {
	return g.appointments.Book(ctx, appointments.BookRequest{
		UserID:   userID,
		DoctorID: doctorID,
		Time:     slot,
		Reason:   reason,
		Source:   "chat",
	})
}

func (g *ServiceGateway) CancelAppointment(ctx context.Context, userID, appointmentID int64) error {
	_, err := g.appointments.Cancel(ctx, userID, appointmentID)
	return err
}

func (g *ServiceGateway) CreateReminder(ctx context.Context, userID int64, medication, hhmm string) (*reminders.Reminder, error) {
	return g.reminders.Create(ctx, userID, medication, hhmm)
}

func (g *ServiceGateway) HasProfile(ctx context.Context, userID int64) (bool, error) {
	return g.users.HasProfile(ctx, userID)
}

func (g *ServiceGateway) CreateProfile(ctx context.Context, userID int64, name string, age int, history string) error {
	_, err := g.users.CreateProfile(ctx, userID, name, age, history)
	return err
}
