package bootstrap

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/chat"
	appconfig "github.com/wolfman30/telehealth-platform/internal/config"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/events"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
	"github.com/wolfman30/telehealth-platform/internal/users"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

// Repositories groups the storage backends the services are built on.
type Repositories struct {
	Backend      string
	Users        users.Repository
	Doctors      doctors.Repository
	Appointments appointments.Repository
	Reminders    reminders.Repository
	Publisher    events.Publisher
	Outbox       events.Source
	Processed    *events.ProcessedStore
}

// BuildRepositories uses PostgreSQL when a pool is available and falls back
// to in-memory storage otherwise.
func BuildRepositories(pool *pgxpool.Pool) Repositories {
	if pool == nil {
		outbox := events.NewMemoryOutbox()
		return Repositories{
			Backend:      "memory",
			Users:        users.NewInMemoryRepository(),
			Doctors:      doctors.NewInMemoryRepository(),
			Appointments: appointments.NewInMemoryRepository(),
			Reminders:    reminders.NewInMemoryRepository(),
			Publisher:    outbox,
			Outbox:       outbox,
		}
	}
	outbox := events.NewOutboxStore(pool)
	return Repositories{
		Backend:      "postgres",
		Users:        users.NewPostgresRepository(pool),
		Doctors:      doctors.NewPostgresRepository(pool),
		Appointments: appointments.NewPostgresRepository(pool),
		Reminders:    reminders.NewPostgresRepository(pool),
		Publisher:    outbox,
		Outbox:       outbox,
		Processed:    events.NewProcessedStore(pool),
	}
}

// BuildTranscript picks the chat transcript store. "auto" prefers Redis, then
// PostgreSQL, then memory. An explicit choice whose backend is missing falls
// back to memory with a warning.
func BuildTranscript(cfg *appconfig.Config, redisClient *redis.Client, db *sql.DB, logger *logging.Logger) (chat.Transcript, string) {
	if logger == nil {
		logger = logging.Default()
	}
	mode := "auto"
	maxMessages := 0
	var ttl time.Duration
	if cfg != nil {
		if cfg.ChatTranscriptStore != "" {
			mode = cfg.ChatTranscriptStore
		}
		maxMessages = cfg.ChatTranscriptMaxMessages
		ttl = cfg.ChatTranscriptTTL
	}

	useRedis := func() (chat.Transcript, string) {
		return chat.NewRedisTranscript(redisClient, maxMessages, ttl), "redis"
	}
	usePostgres := func() (chat.Transcript, string) {
		return chat.NewPostgresTranscript(db), "postgres"
	}

	switch mode {
	case "memory":
	case "redis":
		if redisClient != nil {
			return useRedis()
		}
		logger.Warn("redis transcript store requested but redis is unavailable; using memory")
	case "postgres":
		if db != nil {
			return usePostgres()
		}
		logger.Warn("postgres transcript store requested but database is unavailable; using memory")
	default:
		if redisClient != nil {
			return useRedis()
		}
		if db != nil {
			return usePostgres()
		}
	}
	return chat.NewMemoryTranscript(maxMessages), "memory"
}

// BuildReminderLedger prefers the durable processed-events table, then Redis.
func BuildReminderLedger(processed *events.ProcessedStore, redisClient *redis.Client) reminders.SentLedger {
	switch {
	case processed != nil:
		return reminders.NewProcessedLedger(processed)
	case redisClient != nil:
		return reminders.NewRedisLedger(redisClient)
	default:
		return reminders.NewMemoryLedger()
	}
}

// Directory resolves patients and doctors for notifications.
type Directory struct {
	Users   *users.Service
	Doctors *doctors.Service
}

func (d Directory) UserEmail(ctx context.Context, userID int64) (string, error) {
	u, err := d.Users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func (d Directory) DoctorName(ctx context.Context, doctorID int64) (string, error) {
	doc, err := d.Doctors.Get(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return doc.Name, nil
}
