package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/apperrors"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/observability/metrics"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
	"github.com/wolfman30/telehealth-platform/internal/users"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// ErrEmptyMessage is returned for blank chat input.
var ErrEmptyMessage = apperrors.Validation("Message must be a non-empty string")

const defaultActionTimeout = 5 * time.Second

var firstInteger = regexp.MustCompile(`\d+`)

// Archiver keeps a copy of a transcript before it is purged.
type Archiver interface {
	Archive(ctx context.Context, userID int64, messages []Message) error
}

// Inbound is one chat message. UserID 0 means an anonymous caller.
type Inbound struct {
	UserID int64
	Text   string
}

// Response is the reply to one turn plus the position it left the user in.
type Response struct {
	Reply string
	State State
}

// Engine runs the rule-based assistant: it classifies idle messages, walks
// users through multi-turn flows and executes completed flows through the
// Gateway.
type Engine struct {
	registry      *StateRegistry
	gateway       Gateway
	transcript    Transcript
	archiver      Archiver
	metrics       *metrics.ChatMetrics
	actionTimeout time.Duration
	logger        *logging.Logger
}

// Option customises an Engine.
type Option func(*Engine)

func WithArchiver(a Archiver) Option {
	return func(e *Engine) { e.archiver = a }
}

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithActionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.actionTimeout = d
		}
	}
}

func WithRegistry(r *StateRegistry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

func NewEngine(gateway Gateway, transcript Transcript, logger *logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if transcript == nil {
		transcript = NewMemoryTranscript(0)
	}
	e := &Engine{
		registry:      NewStateRegistry(),
		gateway:       gateway,
		transcript:    transcript,
		actionTimeout: defaultActionTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit processes one message and returns the reply.
func (e *Engine) Submit(ctx context.Context, in Inbound) (*Response, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if in.UserID <= 0 {
		reply := e.anonymousTurn(ctx, strings.ToLower(text))
		e.metrics.ObserveTurn(string(FlowNone), "anonymous")
		return &Response{Reply: reply, State: idleState}, nil
	}

	sess := e.registry.acquire(userKey(in.UserID))
	defer sess.release()

	log := e.logger.FromContext(ctx).With("user_id", in.UserID)
	inbound, err := e.transcript.Append(ctx, Message{UserID: in.UserID, Sender: SenderUser, Text: text})
	if err != nil {
		log.Error("failed to store inbound chat message", "error", err)
		e.metrics.ObserveTranscriptError("append")
		sess.reset()
		e.metrics.ObserveTurn(string(FlowNone), "storage_failure")
		return &Response{Reply: replyStorageFailure, State: idleState}, nil
	}

	t := &turn{engine: e, sess: sess, userID: in.UserID, text: text, lower: strings.ToLower(text), log: log}
	reply := t.run(ctx)

	if _, err := e.transcript.Append(ctx, Message{UserID: in.UserID, Sender: SenderBot, Text: reply}); err != nil {
		log.Error("failed to store chat reply", "error", err)
		e.metrics.ObserveTranscriptError("append")
		if rmErr := e.transcript.Remove(ctx, in.UserID, inbound.Seq); rmErr != nil {
			log.Error("failed to roll back inbound chat message", "seq", inbound.Seq, "error", rmErr)
			e.metrics.ObserveTranscriptError("remove")
		}
		sess.reset()
		e.metrics.ObserveTurn(string(t.flow), "storage_failure")
		return &Response{Reply: replyStorageFailure, State: idleState}, nil
	}

	e.metrics.ObserveTurn(string(t.flow), t.outcome)
	return &Response{Reply: reply, State: viewOf(sess.state())}, nil
}

// History returns a user's transcript in chronological order.
func (e *Engine) History(ctx context.Context, userID int64) ([]Message, error) {
	msgs, err := e.transcript.List(ctx, userID)
	if err != nil {
		e.metrics.ObserveTranscriptError("list")
		return nil, err
	}
	return msgs, nil
}

// State returns a user's current dialogue position.
func (e *Engine) State(userID int64) State {
	return e.registry.Snapshot(userKey(userID))
}

// ResetSession archives and purges the transcript and drops any flow in
// progress. It runs at login and logout.
func (e *Engine) ResetSession(ctx context.Context, userID int64) error {
	sess := e.registry.acquire(userKey(userID))
	defer sess.release()
	sess.reset()

	if e.archiver != nil {
		msgs, err := e.transcript.List(ctx, userID)
		if err != nil {
			e.metrics.ObserveTranscriptError("list")
			e.logger.Warn("failed to load transcript for archive", "user_id", userID, "error", err)
		} else if len(msgs) > 0 {
			if err := e.archiver.Archive(ctx, userID, msgs); err != nil {
				e.logger.Warn("failed to archive transcript", "user_id", userID, "error", err)
			}
		}
	}
	if err := e.transcript.Purge(ctx, userID); err != nil {
		e.metrics.ObserveTranscriptError("purge")
		return fmt.Errorf("chat: reset session: %w", err)
	}
	return nil
}

func (e *Engine) anonymousTurn(ctx context.Context, lower string) string {
	if IsRestricted(lower) {
		return replyLoginRequired
	}
	intent, faq := Classify(lower)
	switch intent {
	case IntentGreeting:
		return greeting("")
	case IntentFAQ:
		return faq
	case IntentListDoctors:
		t := &turn{engine: e, log: e.logger}
		return t.listDoctors(ctx)
	case IntentShowAppointments:
		return "Please log in to view your appointments."
	case IntentCancelAppointment:
		return "Please log in to cancel an appointment."
	case IntentBookAppointment:
		return "Please log in to book an appointment."
	case IntentSetReminder:
		return "Please log in to set a reminder."
	case IntentOnboarding:
		return "Please log in to complete onboarding."
	}
	return replyFallback
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// turn carries the state of a single authenticated message.
type turn struct {
	engine  *Engine
	sess    *session
	userID  int64
	text    string
	lower   string
	log     *logging.Logger
	flow    Flow
	outcome string
}

func (t *turn) run(ctx context.Context) string {
	t.outcome = "answered"
	switch st := t.sess.state().(type) {
	case nil:
		t.flow = FlowNone
		return t.idle(ctx)
	case *bookState:
		t.flow = FlowBookAppointment
		return t.book(ctx, st)
	case *cancelState:
		t.flow = FlowCancelAppointment
		return t.cancel(ctx)
	case *reminderState:
		t.flow = FlowSetReminder
		return t.reminder(ctx, st)
	case *onboardingState:
		t.flow = FlowOnboarding
		return t.onboarding(ctx, st)
	default:
		t.log.Error("unknown dialogue state; resetting", "state", fmt.Sprintf("%T", st))
		t.sess.reset()
		return replyFallback
	}
}

func (t *turn) idle(ctx context.Context) string {
	intent, faq := Classify(t.lower)
	switch intent {
	case IntentGreeting:
		email, err := t.userEmail(ctx)
		if err != nil {
			t.log.Warn("greeting lookup failed", "error", err)
		}
		return greeting(email)
	case IntentFAQ:
		return faq
	case IntentListDoctors:
		return t.listDoctors(ctx)
	case IntentShowAppointments:
		t.flow = FlowShowAppointments
		return t.showAppointments(ctx)
	case IntentCancelAppointment:
		t.flow = FlowCancelAppointment
		return t.startCancel(ctx)
	case IntentBookAppointment:
		t.flow = FlowBookAppointment
		return t.startBook(ctx)
	case IntentSetReminder:
		t.flow = FlowSetReminder
		t.sess.set(&reminderState{step: StepMedicationName})
		t.outcome = "prompted"
		return "Let’s set a medication reminder. What’s the medication name (e.g., Insulin)?"
	case IntentOnboarding:
		t.flow = FlowOnboarding
		return t.startOnboarding(ctx)
	}
	t.outcome = "fallback"
	return replyFallback
}

// call runs a gateway call under the action timeout and records its latency.
// It returns when fn does or when the timeout fires, whichever comes first; a
// call that ignores its context is abandoned rather than waited on.
func call[T any](ctx context.Context, t *turn, action string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, t.engine.actionTimeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("chat: %s panicked: %v", action, r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		select {
		case res = <-done:
		default:
			res.err = ctx.Err()
		}
	}
	t.engine.metrics.ObserveAction(action, res.err, time.Since(start))
	if res.err != nil && !apperrors.IsUserFacing(res.err) {
		t.log.Error("chat action failed", "action", action, "error", res.err)
	}
	return res.value, res.err
}

// act is call for gateway operations without a result.
func (t *turn) act(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	_, err := call(ctx, t, action, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// failure renders a gateway error and ends the current flow.
func (t *turn) failure(prefix string, err error) string {
	t.sess.reset()
	t.outcome = "action_failed"
	return prefix + ": " + failureMessage(err)
}

func failureMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return replyActionTimeout
	}
	return apperrors.Message(err, replyActionUnavailable)
}

func (t *turn) userEmail(ctx context.Context) (string, error) {
	return call(ctx, t, "user_email", func(ctx context.Context) (string, error) {
		return t.engine.gateway.UserEmail(ctx, t.userID)
	})
}

func (t *turn) fetchDoctors(ctx context.Context) ([]*doctors.Doctor, error) {
	return call(ctx, t, "list_doctors", t.engine.gateway.ListDoctors)
}

func (t *turn) listDoctors(ctx context.Context) string {
	docs, err := t.fetchDoctors(ctx)
	if err != nil {
		t.outcome = "action_failed"
		return "Failed to fetch doctors: " + failureMessage(err)
	}
	if len(docs) == 0 {
		return replyNoDoctors
	}
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("- %s (%s, Available: %s)", d.Name, d.Specialization, d.Availability))
	}
	return "Our doctors:\n" + strings.Join(lines, "\n") + "\nWould you like to book an appointment?"
}

func (t *turn) fetchAppointments(ctx context.Context) ([]appointments.View, error) {
	return call(ctx, t, "list_appointments", func(ctx context.Context) ([]appointments.View, error) {
		return t.engine.gateway.ListAppointments(ctx, t.userID)
	})
}

func (t *turn) showAppointments(ctx context.Context) string {
	list, err := t.fetchAppointments(ctx)
	if err != nil {
		return t.failure("Failed to fetch appointments", err)
	}
	t.outcome = "completed"
	if len(list) == 0 {
		return "You have no appointments scheduled."
	}
	return renderAppointments(list)
}

func renderAppointments(list []appointments.View) string {
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, fmt.Sprintf("- ID %d: %s on %s (Reason: %s, Status: %s)", a.ID, a.DoctorName, a.Time, a.Reason, a.Status))
	}
	return "Your appointments:\n" + strings.Join(lines, "\n")
}

func (t *turn) startCancel(ctx context.Context) string {
	list, err := t.fetchAppointments(ctx)
	if err != nil {
		return t.failure("Failed to fetch appointments", err)
	}
	if len(list) == 0 {
		t.outcome = "completed"
		return "You have no appointments to cancel."
	}
	t.sess.set(&cancelState{})
	t.outcome = "prompted"
	return renderAppointments(list) + "\nPlease reply with the appointment ID (e.g., '1') to cancel."
}

func (t *turn) cancel(ctx context.Context) string {
	id, ok := extractID(t.text)
	if !ok {
		t.outcome = "invalid_input"
		return "Please provide a valid appointment ID (e.g., '1')."
	}
	err := t.act(ctx, "cancel_appointment", func(ctx context.Context) error {
		return t.engine.gateway.CancelAppointment(ctx, t.userID, id)
	})
	if err != nil {
		return t.failure("Failed to cancel appointment", err)
	}
	t.sess.reset()
	t.outcome = "completed"
	return "Appointment cancelled successfully!"
}

func (t *turn) startBook(ctx context.Context) string {
	docs, err := t.fetchDoctors(ctx)
	if err != nil {
		return t.failure("Failed to fetch doctors", err)
	}
	if len(docs) == 0 {
		t.outcome = "completed"
		return replyNoDoctors
	}
	lines := make([]string, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, fmt.Sprintf("- %d: %s (%s)", d.ID, d.Name, d.Specialization))
	}
	t.sess.set(&bookState{step: StepSelectDoctor})
	t.outcome = "prompted"
	return "Let’s book an appointment. Available doctors:\n" + strings.Join(lines, "\n") +
		"\nReply with the doctor’s ID (e.g., '1') to select."
}

func (t *turn) book(ctx context.Context, st *bookState) string {
	switch st.step {
	case StepSelectDoctor:
		id, ok := extractID(t.text)
		if !ok {
			t.outcome = "invalid_input"
			return "Please provide a valid doctor ID (e.g., '1')."
		}
		doctor, err := call(ctx, t, "get_doctor", func(ctx context.Context) (*doctors.Doctor, error) {
			return t.engine.gateway.GetDoctor(ctx, id)
		})
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				t.outcome = "invalid_input"
				return "Invalid doctor ID. Please select a valid ID from the list."
			}
			return t.failure("Failed to book appointment", err)
		}
		t.sess.set(&bookState{step: StepSelectTime, doctorID: doctor.ID, doctorName: doctor.Name})
		t.outcome = "prompted"
		return fmt.Sprintf("Selected %s. Please provide the appointment time (e.g., '2025-06-08 14:00').", doctor.Name)

	case StepSelectTime:
		slot, err := t.engine.gateway.ValidateSlot(t.text)
		switch {
		case errors.Is(err, appointments.ErrPastTime):
			t.outcome = "invalid_input"
			return "Cannot book appointments in the past. Please choose a future time."
		case err != nil:
			t.outcome = "invalid_input"
			return "Invalid time format. Please use 'YYYY-MM-DD HH:MM' (e.g., '2025-06-08 14:00')."
		}
		next := *st
		next.step, next.slot = StepEnterReason, slot
		t.sess.set(&next)
		t.outcome = "prompted"
		return "Great! What’s the reason for your visit?"

	case StepEnterReason:
		if len([]rune(t.text)) < 5 {
			t.outcome = "invalid_input"
			return "Please provide a detailed reason for the visit."
		}
		err := t.act(ctx, "book_appointment", func(ctx context.Context) error {
			_, err := t.engine.gateway.BookAppointment(ctx, t.userID, st.doctorID, st.slot, t.text)
			return err
		})
		if err != nil {
			return t.failure("Failed to book appointment", err)
		}
		t.sess.reset()
		t.outcome = "completed"
		return "Appointment booked successfully! Check your dashboard for details."
	}
	return t.corrupt(st.step)
}

func (t *turn) reminder(ctx context.Context, st *reminderState) string {
	switch st.step {
	case StepMedicationName:
		name, err := reminders.ValidateMedication(t.text)
		if err != nil {
			t.outcome = "invalid_input"
			return "Please provide a valid medication name (at least 2 characters)."
		}
		t.sess.set(&reminderState{step: StepReminderTime, medication: name})
		t.outcome = "prompted"
		return fmt.Sprintf("Got it, %s. What time should I remind you (e.g., '08:00')?", name)

	case StepReminderTime:
		if err := reminders.ValidateTime(t.text); err != nil {
			t.outcome = "invalid_input"
			return "Please provide a valid time in HH:MM format (e.g., '08:00')."
		}
		err := t.act(ctx, "create_reminder", func(ctx context.Context) error {
			_, err := t.engine.gateway.CreateReminder(ctx, t.userID, st.medication, t.text)
			return err
		})
		if err != nil {
			return t.failure("Failed to set reminder", err)
		}
		t.sess.reset()
		t.outcome = "completed"
		return fmt.Sprintf("Reminder set for %s at %s daily! Check your dashboard for details.", st.medication, t.text)
	}
	return t.corrupt(st.step)
}

func (t *turn) startOnboarding(ctx context.Context) string {
	exists, err := call(ctx, t, "has_profile", func(ctx context.Context) (bool, error) {
		return t.engine.gateway.HasProfile(ctx, t.userID)
	})
	if err != nil {
		return t.failure("Failed to start onboarding", err)
	}
	if exists {
		t.outcome = "completed"
		return replyAlreadyOnboarded
	}
	t.sess.set(&onboardingState{step: StepName})
	t.outcome = "prompted"
	return "Let’s set up your profile. What’s your full name?"
}

func (t *turn) onboarding(ctx context.Context, st *onboardingState) string {
	switch st.step {
	case StepName:
		if err := users.ValidateName(t.text); err != nil {
			t.outcome = "invalid_input"
			return "Please provide a valid name."
		}
		t.sess.set(&onboardingState{step: StepAge, name: t.text})
		t.outcome = "prompted"
		return "Thanks! How old are you?"

	case StepAge:
		age, err := users.ParseAge(t.text)
		if err != nil {
			t.outcome = "invalid_input"
			return "Please provide a valid age (e.g., '30')."
		}
		t.sess.set(&onboardingState{step: StepMedicalHistory, name: st.name, age: age})
		t.outcome = "prompted"
		return "Got it. Please share any relevant medical history (e.g., conditions, allergies) or type 'none'."

	case StepMedicalHistory:
		history := users.NormalizeHistory(t.text)
		err := t.act(ctx, "create_profile", func(ctx context.Context) error {
			return t.engine.gateway.CreateProfile(ctx, t.userID, st.name, st.age, history)
		})
		if errors.Is(err, users.ErrProfileExists) {
			t.sess.reset()
			t.outcome = "completed"
			return replyAlreadyOnboarded
		}
		if err != nil {
			return t.failure("Failed to complete onboarding", err)
		}
		t.sess.reset()
		t.outcome = "completed"
		return "Onboarding complete! Your profile is set up. Want to book an appointment or explore FAQs?"
	}
	return t.corrupt(st.step)
}

func (t *turn) corrupt(step Step) string {
	t.log.Error("dialogue step not valid for flow; resetting", "flow", t.flow, "step", step)
	t.sess.reset()
	t.outcome = "reset"
	return replyFallback
}

// extractID returns the first run of digits in text. ok is false only when
// text has no digits; a run that is zero or overflows int64 yields id 0,
// which never names a record, so the lookup reports it as unknown.
func extractID(text string) (id int64, ok bool) {
	match := firstInteger.FindString(text)
	if match == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, true
	}
	return id, true
}
