package appointments

import (
	"strings"
	"time"
)

// TimeLayout is the lexical form appointment times are exchanged and stored in.
const TimeLayout = "2006-01-02 15:04"

const (
	// VideoLeadTime is how early a participant may join before the slot.
	VideoLeadTime = 5 * time.Minute
	// VideoGracePeriod is how long after the slot a call may still be joined.
	VideoGracePeriod = 30 * time.Minute
)

// ParseSlotTime parses raw in TimeLayout within loc.
func ParseSlotTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, ErrInvalidTimeFormat
	}
	return t, nil
}

// FormatSlotTime renders t in TimeLayout.
func FormatSlotTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// IsFutureOrNow rejects strictly past slots.
func IsFutureOrNow(slot, now time.Time) bool {
	return !slot.Before(now)
}

// HasConflict reports whether another Scheduled appointment holds the same doctor and time.
// excludeID skips the appointment being rescheduled; pass 0 when booking.
func HasConflict(existing []*Appointment, doctorID int64, slot string, excludeID int64) bool {
	for _, a := range existing {
		if a.ID == excludeID && excludeID != 0 {
			continue
		}
		if a.DoctorID == doctorID && a.Time == slot && a.Status == StatusScheduled {
			return true
		}
	}
	return false
}

// IsWithinVideoWindow reports whether now falls in [slot-5m, slot+30m], both ends inclusive.
func IsWithinVideoWindow(slot, now time.Time) bool {
	return !now.Before(slot.Add(-VideoLeadTime)) && !now.After(slot.Add(VideoGracePeriod))
}

// IsExpired reports whether a Scheduled slot has passed its video window.
func IsExpired(slot, now time.Time) bool {
	return now.After(slot.Add(VideoGracePeriod))
}
