package purchase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/purchase-insights/internal/platform/sanitize"
)

// GenericQueryMessage is shown when the service error payload carries no message.
const GenericQueryMessage = "An unexpected error occurred."

var (
	// ErrStaleTicket is returned when a newer fetch for the same slot was started.
	ErrStaleTicket = errors.New("purchase: stale fetch ticket")
	// ErrUnknownSlot is returned for slot names outside the report table.
	ErrUnknownSlot = errors.New("purchase: unknown slot")
	// ErrNoRoute is returned when no report matches the view.
	ErrNoRoute = errors.New("purchase: no report for view")
)

// ValidationError blocks a fetch because required inputs are missing.
type ValidationError struct {
	Missing []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return "purchase: validation failed: " + strings.ReplaceAll(e.Message, "\n", " ")
	}
	return "purchase: validation failed: " + strings.Join(e.Missing, ", ")
}

// QueryError wraps a failed call to the query service.
type QueryError struct {
	Resource Resource
	Message  string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("purchase: query %s: %s", e.Resource, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ServiceError is returned by query service adapters that received an error
// response; Body holds the raw payload for message extraction.
type ServiceError struct {
	Status int
	Body   []byte
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("query service responded %d", e.Status)
}

// NewQueryError builds a QueryError, extracting a human message from a
// ServiceError payload when one is present.
func NewQueryError(resource Resource, err error) *QueryError {
	msg := GenericQueryMessage
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		msg = ParseServiceMessage(svcErr.Body)
	}
	return &QueryError{Resource: resource, Message: msg, Err: err}
}

// ParseServiceMessage reads error.message.value from a gateway error body,
// stripped of markup, and falls back to GenericQueryMessage.
func ParseServiceMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message struct {
				Value string `json:"value"`
			} `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return GenericQueryMessage
	}
	if msg := sanitize.Text(payload.Error.Message.Value); msg != "" {
		return msg
	}
	return GenericQueryMessage
}
