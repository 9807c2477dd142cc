package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errFieldMissing = errors.New("response is missing the expected field")

// serverDetail prefers the service's own "error" message and falls back to a
// status-coded one.
func serverDetail(status int, body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Error) > 0 {
		var msg string
		if err := json.Unmarshal(payload.Error, &msg); err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// extractField returns the string value of field from a JSON object body.
// Anything other than a non-empty JSON string is rejected; the value itself
// is returned untouched.
func extractField(body []byte, field string) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("response is not a JSON object: %w", err)
	}
	if obj == nil {
		return "", fmt.Errorf("response is not a JSON object")
	}

	raw, ok := obj[field]
	if !ok || string(raw) == "null" {
		return "", errFieldMissing
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("field %q is not a string", field)
	}
	if value == "" {
		return "", errFieldMissing
	}
	return value, nil
}
