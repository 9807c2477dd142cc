package query

import (
	"fmt"
	"strings"
)

// ChatRequest is the body of a chat call. Build it with BuildChatRequest.
type ChatRequest struct {
	RecordID string `json:"patient_id"`
	Message  string `json:"message"`
}

// ValidationError reports input that cannot become a request. It is raised
// before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BuildChatRequest resolves text and gates the result: both the record
// identifier and the message must be present.
func BuildChatRequest(text, explicitID string) (ChatRequest, error) {
	res, err := Resolve(text, explicitID)
	if err != nil {
		return ChatRequest{}, err
	}

	if !res.Found || strings.TrimSpace(res.RecordID) == "" {
		return ChatRequest{}, &ValidationError{
			Field:  "patient_id",
			Reason: `no patient ID found; mention "patient <ID>" in the message or set one explicitly`,
		}
	}

	if strings.TrimSpace(res.Message) == "" {
		return ChatRequest{}, &ValidationError{Field: "message", Reason: "message is empty"}
	}

	return ChatRequest{RecordID: res.RecordID, Message: res.Message}, nil
}
