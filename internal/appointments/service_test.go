package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/events"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc    *Service
	repo   *InMemoryRepository
	outbox *events.MemoryOutbox
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	directory := doctors.NewInMemoryRepository()
	ctx := context.Background()
	_, err := directory.Create(ctx, &doctors.Doctor{Name: "Dr. Rajesh Kumar", Specialization: "Cardiologist"})
	require.NoError(t, err)
	_, err = directory.Create(ctx, &doctors.Doctor{Name: "Dr. Priya Sharma", Specialization: "Endocrinologist"})
	require.NoError(t, err)

	env := &testEnv{repo: NewInMemoryRepository(), outbox: events.NewMemoryOutbox(), now: testNow}
	env.svc = NewService(env.repo, directory, nil,
		WithLocation(time.UTC),
		WithClock(func() time.Time { return env.now }),
		WithPublisher(env.outbox),
	)
	return env
}

func TestBookValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"missing doctor", BookRequest{UserID: 1, Time: "2025-06-08 14:00", Reason: "checkup"}, ErrFieldsRequired},
		{"missing reason", BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "  "}, ErrFieldsRequired},
		{"unknown doctor", BookRequest{UserID: 1, DoctorID: 99, Time: "2025-06-08 14:00", Reason: "checkup"}, doctors.ErrDoctorNotFound},
		{"bad format", BookRequest{UserID: 1, DoctorID: 1, Time: "tomorrow", Reason: "checkup"}, ErrInvalidTimeFormat},
		{"past", BookRequest{UserID: 1, DoctorID: 1, Time: "2025-05-31 14:00", Reason: "checkup"}, ErrPastTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Book(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateSlotRejectsEarlierInCurrentMinute(t *testing.T) {
	env := newTestEnv(t)
	env.now = time.Date(2030, 1, 15, 14, 0, 45, 0, time.UTC)

	_, err := env.svc.ValidateSlot("2030-01-15 14:00")
	assert.ErrorIs(t, err, ErrPastTime)

	slot, err := env.svc.ValidateSlot("2030-01-15 14:01")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-15 14:01", slot)
}

func TestBookRejectsDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "follow-up checkup"})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, first.Status)

	_, err = env.svc.Book(ctx, BookRequest{UserID: 2, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "second opinion"})
	assert.ErrorIs(t, err, ErrSlotTaken)

	list, err := env.repo.ListByDoctor(ctx, 1, StatusScheduled)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.svc.Book(ctx, BookRequest{UserID: 2, DoctorID: 2, Time: "2025-06-08 14:00", Reason: "second opinion"})
	assert.NoError(t, err, "a different doctor at the same time is free")
}

func TestBookConcurrentSameSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := env.svc.Book(ctx, BookRequest{UserID: user, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "racing patients"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotTaken):
				conflicts++
			}
		}(int64(i + 1))
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 19, conflicts)
}

func TestCancelRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	appt, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "checkup"})
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, 2, appt.ID)
	assert.ErrorIs(t, err, ErrCancelForbidden)

	_, err = env.svc.Cancel(ctx, 1, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := env.svc.Cancel(ctx, 1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = env.svc.Cancel(ctx, 1, appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	_, err = env.svc.Book(ctx, BookRequest{UserID: 2, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "checkup"})
	assert.NoError(t, err, "cancelling frees the slot")

	assert.Equal(t, []string{events.TypeAppointmentBooked, events.TypeAppointmentCancelled, events.TypeAppointmentBooked}, env.outbox.Types())
}

func TestReschedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Reason: "checkup"})
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, BookRequest{UserID: 2, DoctorID: 1, Time: "2025-06-08 15:00", Reason: "checkup"})
	require.NoError(t, err)

	_, err = env.svc.Reschedule(ctx, 1, a.ID, "")
	assert.ErrorIs(t, err, ErrTimeRequired)
	_, err = env.svc.Reschedule(ctx, 2, a.ID, "2025-06-09 10:00")
	assert.ErrorIs(t, err, ErrRescheduleForbidden)
	_, err = env.svc.Reschedule(ctx, 1, a.ID, "2025-05-01 10:00")
	assert.ErrorIs(t, err, ErrReschedulePast)
	_, err = env.svc.Reschedule(ctx, 1, a.ID, "2025-06-08 15:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	moved, err := env.svc.Reschedule(ctx, 1, a.ID, "2025-06-09 10:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-09 10:00", moved.Time)

	_, err = env.svc.Cancel(ctx, 1, a.ID)
	require.NoError(t, err)
	_, err = env.svc.Reschedule(ctx, 1, a.ID, "2025-06-10 10:00")
	assert.ErrorIs(t, err, ErrNotReschedulable)
}

func TestListForUserIncludesDoctorName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 2, Time: "2025-06-09 10:00", Reason: "thyroid"})
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-08 10:00", Reason: "heart"})
	require.NoError(t, err)
	_, err = env.repo.Create(ctx, &Appointment{UserID: 1, DoctorID: 42, Time: "2025-06-10 10:00", Reason: "orphan"})
	require.NoError(t, err)

	views, err := env.svc.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Dr. Rajesh Kumar", views[0].DoctorName)
	assert.Equal(t, "Dr. Priya Sharma", views[1].DoctorName)
	assert.Equal(t, "Unknown Doctor", views[2].DoctorName)
}

func TestDoctorViewsAndComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	current, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-01 09:02", Reason: "checkup"})
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, BookRequest{UserID: 2, DoctorID: 1, Time: "2025-06-02 09:00", Reason: "checkup"})
	require.NoError(t, err)

	views, err := env.svc.ListForDoctor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].IsToday)
	assert.True(t, views[0].IsCurrent)
	assert.False(t, views[1].IsToday)
	assert.False(t, views[1].IsCurrent)

	_, err = env.svc.Complete(ctx, 2, current.ID)
	assert.ErrorIs(t, err, ErrCompleteForbidden)
	done, err := env.svc.Complete(ctx, 1, current.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	_, err = env.svc.Complete(ctx, 1, current.ID)
	assert.ErrorIs(t, err, ErrNotCompletable)

	views, err = env.svc.ListForDoctor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	old, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-01 09:00", Reason: "checkup"})
	require.NoError(t, err)
	edge, err := env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 2, Time: "2025-06-01 09:30", Reason: "checkup"})
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, BookRequest{UserID: 1, DoctorID: 1, Time: "2025-06-02 09:00", Reason: "checkup"})
	require.NoError(t, err)

	env.now = testNow.Add(time.Hour)
	removed, err := env.svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = env.repo.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.repo.Get(ctx, edge.ID)
	assert.NoError(t, err, "an appointment exactly 30 minutes past is not yet expired")
}
