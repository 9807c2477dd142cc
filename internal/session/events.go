package session

import (
	"context"
	"fmt"

	"github.com/medassist/internal/conversation"
	"github.com/medassist/internal/transport"
	"github.com/medassist/internal/upload"
)

// Event is a user action forwarded by the presentation layer.
type Event interface {
	event()
}

// SendRequested asks for a chat turn. RecordID is optional.
type SendRequested struct {
	Text     string
	RecordID string
}

// UploadRequested asks for a batch upload.
type UploadRequested struct {
	Request upload.Request
}

func (SendRequested) event()   {}
func (UploadRequested) event() {}

// Outcome is what a dispatched event produced. Reply is set for chat turns
// that reached the history; Status is set for uploads.
type Outcome struct {
	Reply  *conversation.Message
	Status string
	Result transport.Result
}

// Dispatch handles ev synchronously through the matching entry point.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case SendRequested:
		msg, err := s.Send(ctx, e.Text, e.RecordID)
		if msg.ID == "" {
			return Outcome{}, err
		}
		return Outcome{Reply: &msg}, err
	case UploadRequested:
		status, result := s.SubmitUpload(ctx, e.Request)
		return Outcome{Status: status, Result: result}, nil
	default:
		return Outcome{}, fmt.Errorf("unsupported event %T", ev)
	}
}
