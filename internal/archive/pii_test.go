package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashUserID(t *testing.T) {
	h1 := HashUserID(42)
	h2 := HashUserID(42)
	h3 := HashUserID(43)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"greeting email", "Hello patient@example.com! How can I help you today?", "Hello [EMAIL]! How can I help you today?"},
		{"phone", "call me at (330) 333-2654", "call me at[PHONE]"},
		{"slot kept", "2026-10-20 14:30", "2026-10-20 14:30"},
		{"reminder time kept", "08:00", "08:00"},
		{"age kept", "35", "35"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ScrubPII(tt.input))
		})
	}
}
