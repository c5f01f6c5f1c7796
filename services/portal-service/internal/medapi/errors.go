package medapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

var (
	ErrUnauthorized = errors.New("medapi: unauthorized")
	ErrNotFound     = errors.New("medapi: not found")
	ErrConflict     = errors.New("medapi: conflict")
)

// StatusError is any non-2xx reply. It matches ErrUnauthorized, ErrNotFound and
// ErrConflict through errors.Is for the corresponding codes.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("medapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("medapi: status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// IsRejection reports whether the API refused the request itself (400, 409, 422)
// rather than failing to process it.
func IsRejection(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

const maxMessageLen = 200

func statusError(code int, body []byte) *StatusError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	} else {
		msg = strings.TrimSpace(string(body))
	}
	return &StatusError{StatusCode: code, Message: truncateMessage(msg, maxMessageLen)}
}

// truncateMessage cuts msg to at most n bytes without splitting a rune.
func truncateMessage(msg string, n int) string {
	msg = strings.ToValidUTF8(msg, "")
	if len(msg) <= n {
		return msg
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
