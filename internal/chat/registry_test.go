package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"idle", idleState, true},
		{"idle with step", State{Flow: FlowNone, Step: StepAge}, false},
		{"idle with slots", State{Flow: FlowNone, Slots: map[string]string{"x": "y"}}, false},
		{"booking doctor", State{Flow: FlowBookAppointment, Step: StepSelectDoctor}, true},
		{"booking with reminder step", State{Flow: FlowBookAppointment, Step: StepReminderTime}, false},
		{"onboarding history", State{Flow: FlowOnboarding, Step: StepMedicalHistory}, true},
		{"show appointments never waits", State{Flow: FlowShowAppointments, Step: StepSelectAppointment}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.state.Valid())
		})
	}
}

func TestFlowStateViewsAreValid(t *testing.T) {
	states := []flowState{
		&bookState{step: StepSelectDoctor},
		&bookState{step: StepSelectTime, doctorID: 1, doctorName: "Dr. X"},
		&bookState{step: StepEnterReason, doctorID: 1, slot: "2030-01-01 10:00"},
		&cancelState{},
		&reminderState{step: StepMedicationName},
		&reminderState{step: StepReminderTime, medication: "Insulin"},
		&onboardingState{step: StepName},
		&onboardingState{step: StepAge, name: "Jane"},
		&onboardingState{step: StepMedicalHistory, name: "Jane", age: 30},
	}
	for _, fs := range states {
		assert.True(t, viewOf(fs).Valid(), "%#v", fs)
	}
	assert.Equal(t, idleState, viewOf(nil))
}

func TestRegistryDropsIdleEntries(t *testing.T) {
	r := NewStateRegistry()

	sess := r.acquire("1")
	sess.set(&reminderState{step: StepMedicationName})
	sess.release()
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, FlowSetReminder, r.Snapshot("1").Flow)

	sess = r.acquire("1")
	sess.reset()
	sess.release()
	assert.Equal(t, 0, r.Len())

	assert.True(t, r.Snapshot("2").Idle())
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySerialisesSameKey(t *testing.T) {
	r := NewStateRegistry()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := r.acquire("42")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			sess.release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, r.Len())
}
