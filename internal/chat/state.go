package chat

import "strconv"

// Flow is the multi-turn task a user is in the middle of.
type Flow string

const (
	FlowNone              Flow = "none"
	FlowBookAppointment   Flow = "book_appointment"
	FlowCancelAppointment Flow = "cancel_appointment"
	FlowSetReminder       Flow = "set_reminder"
	FlowOnboarding        Flow = "onboarding"
	FlowShowAppointments  Flow = "show_appointments"
)

// Step is the slot a flow is waiting for.
type Step string

const (
	StepNone              Step = ""
	StepSelectDoctor      Step = "select_doctor"
	StepSelectTime        Step = "select_time"
	StepEnterReason       Step = "enter_reason"
	StepSelectAppointment Step = "select_appointment"
	StepMedicationName    Step = "medication_name"
	StepReminderTime      Step = "reminder_time"
	StepName              Step = "name"
	StepAge               Step = "age"
	StepMedicalHistory    Step = "medical_history"
)

// flowSteps lists the non-terminal steps of each flow in order. ShowAppointments
// is answered in a single turn and never waits for input.
var flowSteps = map[Flow][]Step{
	FlowBookAppointment:   {StepSelectDoctor, StepSelectTime, StepEnterReason},
	FlowCancelAppointment: {StepSelectAppointment},
	FlowSetReminder:       {StepMedicationName, StepReminderTime},
	FlowOnboarding:        {StepName, StepAge, StepMedicalHistory},
}

// State is a read-only view of a user's conversation position.
type State struct {
	Flow  Flow
	Step  Step
	Slots map[string]string
}

// Idle reports whether no flow is in progress.
func (s State) Idle() bool { return s.Flow == FlowNone }

// Valid reports whether Step belongs to Flow.
func (s State) Valid() bool {
	if s.Flow == FlowNone {
		return s.Step == StepNone && len(s.Slots) == 0
	}
	for _, step := range flowSteps[s.Flow] {
		if step == s.Step {
			return true
		}
	}
	return false
}

var idleState = State{Flow: FlowNone}

// flowState is the live, mutable position inside one flow. Each flow has
// its own concrete type so a step can only carry the slots it has collected.
type flowState interface {
	view() State
}

type bookState struct {
	step       Step
	doctorID   int64
	doctorName string
	slot       string
}

func (s *bookState) view() State {
	slots := map[string]string{}
	if s.doctorID > 0 {
		slots["doctor_id"] = strconv.FormatInt(s.doctorID, 10)
	}
	if s.slot != "" {
		slots["time"] = s.slot
	}
	return State{Flow: FlowBookAppointment, Step: s.step, Slots: slots}
}

type cancelState struct{}

func (s *cancelState) view() State {
	return State{Flow: FlowCancelAppointment, Step: StepSelectAppointment, Slots: map[string]string{}}
}

type reminderState struct {
	step       Step
	medication string
}

func (s *reminderState) view() State {
	slots := map[string]string{}
	if s.medication != "" {
		slots["medication"] = s.medication
	}
	return State{Flow: FlowSetReminder, Step: s.step, Slots: slots}
}

type onboardingState struct {
	step Step
	name string
	age  int
}

func (s *onboardingState) view() State {
	slots := map[string]string{}
	if s.name != "" {
		slots["name"] = s.name
	}
	if s.age > 0 {
		slots["age"] = strconv.Itoa(s.age)
	}
	return State{Flow: FlowOnboarding, Step: s.step, Slots: slots}
}

func viewOf(fs flowState) State {
	if fs == nil {
		return idleState
	}
	return fs.view()
}
