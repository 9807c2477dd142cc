package conversation

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrBusy       = errors.New("conversation: a request is already pending")
	ErrNotPending = errors.New("conversation: no request is pending")
)

// Store holds the ordered history and the pending flag. Append is the only
// mutation; the two lifecycle transitions are Begin (idle -> busy) and
// Complete (busy -> idle).
type Store struct {
	mu      sync.Mutex
	history []Message
	pending bool
	now     func() time.Time
}

// NewStore returns an empty, idle store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Begin accepts a new send: it appends the user message with text exactly as
// given and marks the store pending. A send while busy is rejected without
// touching the history.
func (s *Store) Begin(text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return Message{}, ErrBusy
	}
	msg := s.appendLocked(SenderUser, text)
	s.pending = true
	return msg, nil
}

// Complete appends the agent message for the outstanding request and returns
// the store to idle.
func (s *Store) Complete(text string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return Message{}, ErrNotPending
	}
	msg := s.appendLocked(SenderAgent, text)
	s.pending = false
	return msg, nil
}

// Exchange appends a user message immediately followed by its agent answer.
// Used for turns that are settled locally and never go pending.
func (s *Store) Exchange(userText, agentText string) (Message, Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return Message{}, Message{}, ErrBusy
	}
	user := s.appendLocked(SenderUser, userText)
	agent := s.appendLocked(SenderAgent, agentText)
	return user, agent, nil
}

// History returns a copy of the messages in display order.
func (s *Store) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Pending reports whether a request is in flight.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Snapshot returns history and pending flag read under the same lock.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{History: s.copyLocked(), Pending: s.pending}
}

// Reset drops the history. It is refused while a request is pending so the
// outstanding reply never lands in a cleared conversation.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return ErrBusy
	}
	s.history = nil
	return nil
}

func (s *Store) appendLocked(sender Sender, text string) Message {
	msg := Message{
		ID:        newMessageID(),
		Sender:    sender,
		Text:      text,
		CreatedAt: s.now(),
	}
	s.history = append(s.history, msg)
	return msg
}

func (s *Store) copyLocked() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}
