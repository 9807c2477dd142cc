package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Domain models for a single chat session with the clinical record service.

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Senders lists every sender a Message can carry, in display order.
func Senders() []Sender {
	return []Sender{SenderUser, SenderAgent}
}

// Message is one entry of the conversation history. It is never mutated after
// the store creates it.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// State is a consistent view of the history and the lifecycle flag.
type State struct {
	History []Message `json:"history"`
	Pending bool      `json:"pending"`
}

// newMessageID returns a time-ordered identifier so that IDs sort in append order.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
