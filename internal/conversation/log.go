package conversation

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrAudioAttached   = errors.New("audio handle already attached")
)

// Log is an append-only ordered sequence of messages. Insertion order is
// display order. There is no deletion; the only
// post-append mutation is attaching an audio handle to an existing message.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	nextID   int64
}

// NewLog creates an empty conversation log.
func NewLog() *Log {
	return &Log{
		messages: make([]Message, 0, 16),
		nextID:   1,
	}
}

// Append adds a message, assigning it the next monotonic id and stamping its
// creation time if unset. The stored message is returned.
func (l *Log) Append(msg Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg.ID = l.nextID
	l.nextID++
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	l.messages = append(l.messages, msg)
	return msg
}

// AttachAudio records the synthesis handle for a message. A handle may be
// attached at most once per message.
func (l *Log) AttachAudio(id int64, handle string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.messages {
		if l.messages[i].ID != id {
			continue
		}
		if l.messages[i].AudioHandle != "" {
			return ErrAudioAttached
		}
		l.messages[i].AudioHandle = handle
		return nil
	}
	return ErrMessageNotFound
}

// Get returns the message with the given id.
func (l *Log) Get(id int64) (Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, msg := range l.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return Message{}, ErrMessageNotFound
}

// Messages returns a snapshot of the full transcript in display order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Each walks the transcript in order, stopping early if fn returns false.
// Iteration works on a snapshot, so it is restartable and safe against
// concurrent appends.
func (l *Log) Each(fn func(Message) bool) {
	for _, msg := range l.Messages() {
		if !fn(msg) {
			return
		}
	}
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message, if any.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}
