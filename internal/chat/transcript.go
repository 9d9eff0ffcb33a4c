package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one transcript entry. Seq increases monotonically per user.
type Message struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Seq       int64     `json:"seq"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the append-only chat log used for history replay.
type Transcript interface {
	// Append stores msg and returns it with ID, Seq and Timestamp set.
	Append(ctx context.Context, msg Message) (Message, error)
	// Remove deletes a single entry, used to roll back a failed turn.
	Remove(ctx context.Context, userID, seq int64) error
	List(ctx context.Context, userID int64) ([]Message, error)
	Purge(ctx context.Context, userID int64) error
}

func stamp(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}

// MemoryTranscript keeps transcripts in process memory.
type MemoryTranscript struct {
	mu          sync.Mutex
	seq         map[int64]int64
	messages    map[int64][]Message
	maxMessages int
}

func NewMemoryTranscript(maxMessages int) *MemoryTranscript {
	return &MemoryTranscript{
		seq:         make(map[int64]int64),
		messages:    make(map[int64][]Message),
		maxMessages: maxMessages,
	}
}

func (t *MemoryTranscript) Append(ctx context.Context, msg Message) (Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg = stamp(msg)
	t.seq[msg.UserID]++
	msg.Seq = t.seq[msg.UserID]
	list := append(t.messages[msg.UserID], msg)
	if t.maxMessages > 0 && len(list) > t.maxMessages {
		list = list[len(list)-t.maxMessages:]
	}
	t.messages[msg.UserID] = list
	return msg, nil
}

func (t *MemoryTranscript) Remove(ctx context.Context, userID, seq int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.messages[userID]
	for i, m := range list {
		if m.Seq == seq {
			t.messages[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *MemoryTranscript) List(ctx context.Context, userID int64) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Message, len(t.messages[userID]))
	copy(out, t.messages[userID])
	return out, nil
}

// Purge drops the messages but keeps the sequence counter so later
// entries still sort after anything an archive already holds.
func (t *MemoryTranscript) Purge(ctx context.Context, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.messages, userID)
	return nil
}
