package reminders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/internal/notify"
	"github.com/wolfman30/telehealth-platform/internal/observability/metrics"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// RecipientLookup resolves a patient's e-mail address.
type RecipientLookup interface {
	UserEmail(ctx context.Context, userID int64) (string, error)
}

// ReminderSender delivers a single reminder notice.
type ReminderSender interface {
	SendReminder(ctx context.Context, n notify.ReminderNotice) error
}

// Dispatcher sends each reminder once per day at its scheduled minute.
type Dispatcher struct {
	service    *Service
	recipients RecipientLookup
	sender     ReminderSender
	ledger     SentLedger
	events     events.Publisher
	metrics    *metrics.SchedulingMetrics
	loc        *time.Location
	interval   time.Duration
	logger     *logging.Logger
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLedger(l SentLedger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.ledger = l
		}
	}
}

func WithDispatchLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.loc = loc
		}
	}
}

func WithDispatchInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

func WithDispatchMetrics(m *metrics.SchedulingMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithDispatchPublisher(p events.Publisher) DispatcherOption {
	return func(d *Dispatcher) {
		if p != nil {
			d.events = p
		}
	}
}

func NewDispatcher(service *Service, recipients RecipientLookup, sender ReminderSender, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		service:    service,
		recipients: recipients,
		sender:     sender,
		ledger:     NewMemoryLedger(),
		events:     events.NopPublisher{},
		loc:        time.Local,
		interval:   30 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start polls until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("reminder dispatcher started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.DispatchDue(ctx, time.Now()); err != nil {
				d.logger.Error("reminder dispatch failed", "error", err)
			}
		}
	}
}

// DispatchDue sends every reminder scheduled for the minute of now that has
// not been sent today. It returns the number of reminders sent.
func (d *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	local := now.In(d.loc)
	due, err := d.service.DueAt(ctx, local.Format("15:04"))
	if err != nil {
		return 0, fmt.Errorf("reminders: list due: %w", err)
	}
	sent := 0
	for _, rem := range due {
		ok, err := d.dispatchOne(ctx, rem, local)
		if err != nil {
			d.metrics.ObserveReminderSent("error")
			d.logger.Error("reminder dispatch failed", "reminder_id", rem.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, rem *Reminder, now time.Time) (bool, error) {
	claimed, err := d.ledger.Claim(ctx, occurrenceKey(rem.ID, now))
	if err != nil {
		return false, err
	}
	if !claimed {
		d.metrics.ObserveReminderSent("duplicate")
		return false, nil
	}
	to, err := d.recipients.UserEmail(ctx, rem.UserID)
	if err != nil {
		return false, fmt.Errorf("resolve recipient: %w", err)
	}
	if err := d.sender.SendReminder(ctx, notify.ReminderNotice{To: to, Medication: rem.Medication, Time: rem.Time}); err != nil {
		return false, err
	}
	d.metrics.ObserveReminderSent("sent")
	if err := d.events.Publish(ctx, "reminder:"+strconv.FormatInt(rem.ID, 10), events.TypeReminderSent, events.ReminderEventV1{
		ReminderID: rem.ID,
		UserID:     rem.UserID,
		Medication: rem.Medication,
		Time:       rem.Time,
		OccurredAt: now.UTC(),
	}); err != nil {
		d.logger.Warn("failed to publish reminder sent event", "reminder_id", rem.ID, "error", err)
	}
	return true, nil
}
