package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/telehealth-platform/internal/events"
)

func TestCleanerSweepsOnStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	expired, err := env.repo.Create(ctx, &Appointment{UserID: 1, DoctorID: 1, Time: "2025-06-01 07:00", Status: StatusScheduled, Reason: "checkup"})
	require.NoError(t, err)
	upcoming, err := env.repo.Create(ctx, &Appointment{UserID: 1, DoctorID: 2, Time: "2025-06-01 09:10", Status: StatusScheduled, Reason: "follow up"})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		NewCleaner(env.svc, time.Hour, nil).Start(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := env.repo.Get(ctx, expired.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	_, err = env.repo.Get(ctx, upcoming.ID)
	assert.NoError(t, err)
	assert.Contains(t, env.outbox.Types(), events.TypeAppointmentExpired)
}

func TestNewCleanerDefaultsInterval(t *testing.T) {
	c := NewCleaner(nil, 0, nil)
	assert.Equal(t, time.Hour, c.interval)
}
