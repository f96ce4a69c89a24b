// Package conversation holds the transcript exchanged during a session.
package conversation

import (
	"time"

	"github.com/Atharv1136/KisanDhan/internal/diagnosis"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation. Messages are never mutated after
// creation except to attach an audio handle once synthesis completes.
type Message struct {
	ID          int64             `json:"id"`
	Role        Role              `json:"role"`
	Text        string            `json:"text"`
	CreatedAt   time.Time         `json:"createdAt"`
	Language    string            `json:"language"`
	AudioHandle string            `json:"audioHandle,omitempty"`
	Diagnosis   *diagnosis.Record `json:"diagnosis,omitempty"`
}
