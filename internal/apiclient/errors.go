package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned for any response with status 401. The session has already been ended.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid JSON response from server")
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	// Detail is the backend's message, empty when the body carried none.
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("error %d", e.StatusCode)
}

// DetailMessage extracts the message from an error body of the form
// {"detail": "..."} or {"detail": [{"msg": "..."}, ...]}. List entries are
// joined with "; "; entries without msg are rendered as raw JSON.
func DetailMessage(body []byte) (string, bool) {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(payload.Detail, &items); err != nil {
		return "", false
	}
	msgs := make([]string, 0, len(items))
	for _, raw := range items {
		var item struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &item); err == nil && item.Msg != "" {
			msgs = append(msgs, item.Msg)
			continue
		}
		msgs = append(msgs, string(raw))
	}
	return strings.Join(msgs, "; "), true
}

// DecodeError reads resp's body and returns the matching APIError. The body is consumed but not closed.
func DecodeError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return e
	}
	if msg, ok := DetailMessage(body); ok {
		e.Detail = msg
	}
	return e
}
