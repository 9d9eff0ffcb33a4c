package archive

import "time"

// TranscriptRecord is the JSON document written to S3 when a chat session is reset.
type TranscriptRecord struct {
	Version      string    `json:"version"` // "1.0"
	SessionID    string    `json:"session_id"`
	UserHash     string    `json:"user_hash"` // sha256 of the user id
	ArchivedAt   time.Time `json:"archived_at"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	MessageCount int       `json:"message_count"`
	UserTurns    int       `json:"user_turns"`
	Messages     []Message `json:"messages"`
}

// Message is a single archived transcript entry with PII scrubbed.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	SessionID    string `json:"session_id"`
	S3Key        string `json:"s3_key"`
	UserHash     string `json:"user_hash"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
