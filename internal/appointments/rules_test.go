package appointments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotTime(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"2025-06-08 14:00", true},
		{" 2025-06-08 14:00 ", true},
		{"tomorrow", false},
		{"2025-06-08", false},
		{"08/06/2025 14:00", false},
		{"2025-06-08T14:00", false},
		{"2025-13-08 14:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseSlotTime(tt.raw, time.UTC)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			}
		})
	}
}

func TestIsFutureOrNow(t *testing.T) {
	now := time.Date(2025, 6, 8, 14, 0, 30, 0, time.UTC)
	assert.True(t, IsFutureOrNow(now.Add(time.Hour), now))
	assert.True(t, IsFutureOrNow(now, now), "the present instant is not in the past")
	assert.False(t, IsFutureOrNow(time.Date(2025, 6, 8, 14, 0, 0, 0, time.UTC), now), "earlier in the current minute is already past")
	assert.False(t, IsFutureOrNow(time.Date(2025, 6, 8, 13, 59, 0, 0, time.UTC), now))
}

func TestHasConflict(t *testing.T) {
	existing := []*Appointment{
		{ID: 1, DoctorID: 1, Time: "2025-06-08 14:00", Status: StatusScheduled},
		{ID: 2, DoctorID: 2, Time: "2025-06-08 15:00", Status: StatusCancelled},
	}
	assert.True(t, HasConflict(existing, 1, "2025-06-08 14:00", 0))
	assert.False(t, HasConflict(existing, 1, "2025-06-08 14:00", 1), "an appointment never conflicts with itself")
	assert.False(t, HasConflict(existing, 2, "2025-06-08 15:00", 0), "cancelled appointments free the slot")
	assert.False(t, HasConflict(existing, 3, "2025-06-08 14:00", 0))
}

func TestIsWithinVideoWindow(t *testing.T) {
	slot, err := ParseSlotTime("2025-06-08 14:00", time.UTC)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"six minutes early", -6 * time.Minute, false},
		{"five minutes early", -5 * time.Minute, true},
		{"four minutes early", -4 * time.Minute, true},
		{"on time", 0, true},
		{"thirty minutes late", 30 * time.Minute, true},
		{"thirty one minutes late", 31 * time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWithinVideoWindow(slot, slot.Add(tt.offset)))
		})
	}
}

func TestIsExpired(t *testing.T) {
	slot := time.Date(2025, 6, 8, 14, 0, 0, 0, time.UTC)
	assert.False(t, IsExpired(slot, slot.Add(30*time.Minute)))
	assert.True(t, IsExpired(slot, slot.Add(30*time.Minute+time.Second)))
}
