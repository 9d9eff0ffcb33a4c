package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/wolfman30/telehealth-platform/internal/chat"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

const keyPrefix = "chat-transcripts/v1"

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store copies chat transcripts to S3 before a session purge.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

var _ chat.Archiver = (*Store)(nil)

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Archive writes the transcript as a TranscriptRecord and records it in the monthly manifest.
// Empty transcripts are skipped.
func (s *Store) Archive(ctx context.Context, userID int64, messages []chat.Message) error {
	if !s.Enabled() || len(messages) == 0 {
		return nil
	}
	record := s.buildRecord(userID, messages)

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	at := record.ArchivedAt
	key := fmt.Sprintf("%s/by-date/%d/%02d/%02d/%s.json",
		keyPrefix, at.Year(), at.Month(), at.Day(), record.SessionID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	log := s.logger.FromContext(ctx)
	log.Info("archived chat transcript",
		"session_id", record.SessionID,
		"s3_key", key,
		"message_count", record.MessageCount,
	)

	entry := ManifestEntry{
		SessionID:    record.SessionID,
		S3Key:        key,
		UserHash:     record.UserHash,
		ArchivedAt:   at.Format(time.RFC3339),
		MessageCount: record.MessageCount,
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		// the transcript itself is already stored
		log.Warn("failed to append manifest", "error", err, "session_id", record.SessionID)
	}
	return nil
}

func (s *Store) buildRecord(userID int64, messages []chat.Message) *TranscriptRecord {
	record := &TranscriptRecord{
		Version:      "1.0",
		SessionID:    uuid.NewString(),
		UserHash:     HashUserID(userID),
		ArchivedAt:   s.now().UTC(),
		StartedAt:    messages[0].Timestamp.UTC(),
		EndedAt:      messages[len(messages)-1].Timestamp.UTC(),
		MessageCount: len(messages),
		Messages:     make([]Message, 0, len(messages)),
	}
	for _, m := range messages {
		if m.Sender == chat.SenderUser {
			record.UserTurns++
		}
		record.Messages = append(record.Messages, Message{
			Sender:    string(m.Sender),
			Text:      ScrubPII(m.Text),
			Timestamp: m.Timestamp.UTC(),
		})
	}
	return record
}

// AppendManifest appends a JSONL line to the monthly manifest file.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("%s/manifests/%d-%02d.jsonl", keyPrefix, now.Year(), now.Month())

	existing, err := s.readObject(ctx, manifestKey)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

// readObject returns nil content when the key does not exist yet.
func (s *Store) readObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			s.logger.Debug("manifest not found, creating new", "key", key)
			return nil, nil
		}
		return nil, fmt.Errorf("archive: s3 get %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", key, err)
	}
	return data, nil
}
