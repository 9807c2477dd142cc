// Package session is the entry point used by presentation code. It wires
// request resolution, the conversation store and the transport together.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/medassist/internal/conversation"
	"github.com/medassist/internal/query"
	"github.com/medassist/internal/transport"
	"github.com/medassist/internal/upload"
)

// ChatSender performs one chat call.
type ChatSender interface {
	SendChat(ctx context.Context, req query.ChatRequest) transport.Result
}

// UploadSubmitter validates and submits one upload batch.
type UploadSubmitter interface {
	Submit(ctx context.Context, req upload.Request) transport.Result
}

// Sink receives every message appended to the history and every failure.
// Implementations must not block.
type Sink interface {
	RecordMessage(msg conversation.Message)
	RecordFailure(op string, f *transport.Failure)
}

// Session owns one conversation.
type Session struct {
	store   *conversation.Store
	chat    ChatSender
	uploads UploadSubmitter
	sink    Sink
}

// Option customises a Session.
type Option func(*Session)

// WithSink attaches a sink, e.g. a transcript logger.
func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithStore replaces the conversation store.
func WithStore(store *conversation.Store) Option {
	return func(s *Session) { s.store = store }
}

// New returns a session with an empty history.
func New(chat ChatSender, uploads UploadSubmitter, opts ...Option) *Session {
	s := &Session{
		store:   conversation.NewStore(),
		chat:    chat,
		uploads: uploads,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send runs one chat turn and returns the agent message appended for it.
//
// Blank text and sends while another turn is pending are refused without
// touching the history. Text that does not resolve to a request is answered
// locally with a validation message and never reaches the network. Otherwise
// the user message is appended before the call is made, and the reply or the
// rendered failure is appended after it settles; a failed call also returns
// its *transport.Failure.
func (s *Session) Send(ctx context.Context, text, explicitID string) (conversation.Message, error) {
	if strings.TrimSpace(text) == "" {
		return conversation.Message{}, &query.ValidationError{Field: "message", Reason: "message is empty"}
	}
	if s.store.Pending() {
		return conversation.Message{}, conversation.ErrBusy
	}

	req, err := query.BuildChatRequest(text, explicitID)
	if err != nil {
		var vErr *query.ValidationError
		if !errors.As(err, &vErr) {
			return conversation.Message{}, err
		}
		failure := &transport.Failure{Kind: transport.KindValidation, Detail: vErr.Reason, Err: vErr}
		user, agent, xErr := s.store.Exchange(text, failure.Message())
		if xErr != nil {
			return conversation.Message{}, xErr
		}
		s.record(user)
		s.record(agent)
		s.recordFailure("chat", failure)
		return agent, vErr
	}

	user, err := s.store.Begin(text)
	if err != nil {
		return conversation.Message{}, err
	}
	s.record(user)

	log.Debug().Str("patient_id", req.RecordID).Msg("Chat request accepted")

	result := s.chat.SendChat(ctx, req)

	agent, err := s.store.Complete(result.Message())
	if err != nil {
		return conversation.Message{}, err
	}
	s.record(agent)

	if !result.OK() {
		s.recordFailure("chat", result.Failure)
		return agent, result.Failure
	}
	return agent, nil
}

// SubmitUpload submits a batch and returns the status line with the raw result.
func (s *Session) SubmitUpload(ctx context.Context, req upload.Request) (string, transport.Result) {
	result := s.uploads.Submit(ctx, req)
	if !result.OK() {
		s.recordFailure("upload", result.Failure)
	}
	return upload.Status(result), result
}

// History returns the conversation in display order.
func (s *Session) History() []conversation.Message {
	return s.store.History()
}

// Pending reports whether a chat turn is in flight.
func (s *Session) Pending() bool {
	return s.store.Pending()
}

// Snapshot returns history and pending flag consistently.
func (s *Session) Snapshot() conversation.State {
	return s.store.Snapshot()
}

// Reset clears the conversation.
func (s *Session) Reset() error {
	return s.store.Reset()
}

func (s *Session) record(msg conversation.Message) {
	if s.sink != nil {
		s.sink.RecordMessage(msg)
	}
}

func (s *Session) recordFailure(op string, f *transport.Failure) {
	log.Warn().Str("op", op).Str("kind", string(f.Kind)).Str("detail", f.Detail).Msg("Turn failed")
	if s.sink != nil {
		s.sink.RecordFailure(op, f)
	}
}
