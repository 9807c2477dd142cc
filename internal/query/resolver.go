// Package query turns free-form chat input into a request for the clinical
// record service.
package query

import (
	"regexp"
	"strings"
)

// DefaultHistoryMessage is sent when the input names a patient and nothing else.
const DefaultHistoryMessage = "Show me the patient history"

var patientPattern = regexp.MustCompile(`(?i)\bpatient\s+(?:id\s+)?(\d+)\b`)

// Resolution is the outcome of scanning user input for a record identifier.
type Resolution struct {
	RecordID string
	Message  string
	// Found is false when neither an explicit identifier nor a "patient <digits>"
	// phrase was available.
	Found bool
	// Extracted is true when RecordID came from the text rather than the caller.
	Extracted bool
}

// Resolve extracts the record identifier and the residual message from text.
// An explicit identifier wins over anything in the text and leaves the text
// untouched. Blank input is rejected.
func Resolve(text, explicitID string) (Resolution, error) {
	if strings.TrimSpace(text) == "" {
		return Resolution{}, &ValidationError{Field: "message", Reason: "message is empty"}
	}

	if id := strings.TrimSpace(explicitID); id != "" {
		return Resolution{RecordID: id, Message: text, Found: true}, nil
	}

	loc := patientPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return Resolution{Message: text}, nil
	}

	recordID := text[loc[2]:loc[3]]
	residual := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	if residual == "" {
		residual = DefaultHistoryMessage
	}

	return Resolution{
		RecordID:  recordID,
		Message:   residual,
		Found:     true,
		Extracted: true,
	}, nil
}
