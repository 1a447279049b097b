package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnavailable means the commerce API could not be reached or the circuit
// breaker is open.
var ErrUnavailable = errors.New("commerce api unavailable")

// APIError is a rejection returned by the commerce API. Message carries the
// collaborator's own reason and is safe to show to shoppers.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("commerce api: status %d", e.Status)
	}
	return fmt.Sprintf("commerce api: status %d: %s", e.Status, e.Message)
}

// NotFound reports whether the collaborator answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Message extracts the collaborator's message from err, or "" when err is
// not an APIError or carries no message.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: parseDetail(body)}
}

// parseDetail understands {"detail": "..."} and the validation form
// {"detail": [{"msg": "...", "loc": [...]}]}, plus {"message"} and {"error"}.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil {
			return text
		}
		var items []struct {
			Msg string        `json:"msg"`
			Loc []interface{} `json:"loc"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg == "" {
					continue
				}
				if field := lastLoc(it.Loc); field != "" {
					msgs = append(msgs, field+": "+it.Msg)
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}

func lastLoc(loc []interface{}) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}
