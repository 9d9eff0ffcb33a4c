package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisTranscriptPrefix    = "chat_transcript:"
	redisTranscriptSeqPrefix = "chat_transcript_seq:"
)

// RedisTranscript stores each user's transcript as a capped Redis list with
// a separate sequence counter.
type RedisTranscript struct {
	redis       *redis.Client
	tracer      trace.Tracer
	maxMessages int64
	ttl         time.Duration
}

func NewRedisTranscript(client *redis.Client, maxMessages int, ttl time.Duration) *RedisTranscript {
	if client == nil {
		panic("chat: redis client required")
	}
	return &RedisTranscript{
		redis:       client,
		tracer:      otel.Tracer("telehealth.internal.chat.redis_transcript"),
		maxMessages: int64(maxMessages),
		ttl:         ttl,
	}
}

func (s *RedisTranscript) Append(ctx context.Context, msg Message) (Message, error) {
	if msg.UserID <= 0 {
		return msg, errors.New("chat: transcript user id required")
	}
	ctx, span := s.tracer.Start(ctx, "chat.redis_transcript.append")
	defer span.End()

	seq, err := s.redis.Incr(ctx, seqKey(msg.UserID)).Result()
	if err != nil {
		span.RecordError(err)
		return msg, fmt.Errorf("chat: next transcript seq: %w", err)
	}
	msg = stamp(msg)
	msg.Seq = seq

	data, err := json.Marshal(msg)
	if err != nil {
		return msg, fmt.Errorf("chat: marshal transcript message: %w", err)
	}

	key := transcriptKey(msg.UserID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, seqKey(msg.UserID), s.ttl)
	}
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, key, -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return msg, fmt.Errorf("chat: append transcript message: %w", err)
	}
	return msg, nil
}

func (s *RedisTranscript) Remove(ctx context.Context, userID, seq int64) error {
	ctx, span := s.tracer.Start(ctx, "chat.redis_transcript.remove")
	defer span.End()

	key := transcriptKey(userID)
	raw, err := s.redis.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return fmt.Errorf("chat: load transcript: %w", err)
	}
	for i := len(raw) - 1; i >= 0; i-- {
		var msg Message
		if json.Unmarshal([]byte(raw[i]), &msg) != nil || msg.Seq != seq {
			continue
		}
		if err := s.redis.LRem(ctx, key, 1, raw[i]).Err(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("chat: remove transcript message: %w", err)
		}
		return nil
	}
	return nil
}

func (s *RedisTranscript) List(ctx context.Context, userID int64) ([]Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.redis_transcript.list")
	defer span.End()

	raw, err := s.redis.LRange(ctx, transcriptKey(userID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: list transcript: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisTranscript) Purge(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "chat.redis_transcript.purge")
	defer span.End()

	if err := s.redis.Del(ctx, transcriptKey(userID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: purge transcript: %w", err)
	}
	return nil
}

func transcriptKey(userID int64) string {
	return redisTranscriptPrefix + strconv.FormatInt(userID, 10)
}

func seqKey(userID int64) string {
	return redisTranscriptSeqPrefix + strconv.FormatInt(userID, 10)
}
