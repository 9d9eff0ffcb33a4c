package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
)

var transcriptTracer = otel.Tracer("telehealth.internal.chat.postgres_transcript")

// PostgresTranscript stores transcripts in the chat_messages table. The
// BIGSERIAL id doubles as the per-user sequence.
type PostgresTranscript struct {
	db *sql.DB
}

func NewPostgresTranscript(db *sql.DB) *PostgresTranscript {
	if db == nil {
		panic("chat: sql db required")
	}
	return &PostgresTranscript{db: db}
}

func (s *PostgresTranscript) Append(ctx context.Context, msg Message) (Message, error) {
	ctx, span := transcriptTracer.Start(ctx, "chat.postgres_transcript.append")
	defer span.End()

	msg = stamp(msg)
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (message_id, user_id, sender, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, msg.ID, msg.UserID, string(msg.Sender), msg.Text, msg.Timestamp).Scan(&msg.Seq)
	if err != nil {
		span.RecordError(err)
		return msg, classify("append transcript message", err)
	}
	return msg, nil
}

func (s *PostgresTranscript) Remove(ctx context.Context, userID, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1 AND id = $2`, userID, seq); err != nil {
		return classify("remove transcript message", err)
	}
	return nil
}

func (s *PostgresTranscript) List(ctx context.Context, userID int64) ([]Message, error) {
	ctx, span := transcriptTracer.Start(ctx, "chat.postgres_transcript.list")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, user_id, sender, text, created_at
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY id ASC`, userID)
	if err != nil {
		span.RecordError(err)
		return nil, classify("list transcript", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			msg    Message
			sender string
		)
		if err := rows.Scan(&msg.Seq, &msg.ID, &msg.UserID, &sender, &msg.Text, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("chat: scan transcript: %w", err)
		}
		msg.Sender = Sender(sender)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat: transcript rows: %w", err)
	}
	return out, nil
}

func (s *PostgresTranscript) Purge(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return classify("purge transcript", err)
	}
	return nil
}

// ErrTranscriptSchemaMissing means migrations have not created chat_messages.
var ErrTranscriptSchemaMissing = errors.New("chat: chat_messages table missing; run migrations")

func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "undefined_table" {
		return ErrTranscriptSchemaMissing
	}
	return fmt.Errorf("chat: %s: %w", op, err)
}
