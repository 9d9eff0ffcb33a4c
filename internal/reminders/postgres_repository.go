package reminders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores reminders in PostgreSQL.
type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("reminders: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rem *Reminder) (*Reminder, error) {
	stored := *rem
	err := r.db.QueryRow(ctx, `
		INSERT INTO reminders (user_id, medication, time)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`, rem.UserID, rem.Medication, rem.Time).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reminders: insert: %w", err)
	}
	return &stored, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Reminder, error) {
	var rem Reminder
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, medication, time, created_at
		FROM reminders
		WHERE id = $1`, id).Scan(&rem.ID, &rem.UserID, &rem.Medication, &rem.Time, &rem.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reminders: get: %w", err)
	}
	return &rem, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, medication, time, created_at
		FROM reminders
		WHERE user_id = $1
		ORDER BY time ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("reminders: list by user: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresRepository) ListAt(ctx context.Context, hhmm string) ([]*Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, medication, time, created_at
		FROM reminders
		WHERE time = $1
		ORDER BY id ASC`, hhmm)
	if err != nil {
		return nil, fmt.Errorf("reminders: list at: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("reminders: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminders(rows pgx.Rows) ([]*Reminder, error) {
	var out []*Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.Medication, &rem.Time, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("reminders: scan: %w", err)
		}
		out = append(out, &rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reminders: rows: %w", err)
	}
	return out, nil
}
