package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the server and its clients.
const (
	CodeCapacityExhausted = "capacity_exhausted"
	CodeUnavailable       = "unavailable"

	// DBFullMessage is the error text of every capacity failure.
	DBFullMessage = "DB_FULL"
)

// APIError is a structured error returned by the HTTP API.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return "api error"
}

// IsCapacityExhausted reports whether the server's database is full.
func (e *APIError) IsCapacityExhausted() bool {
	return e != nil && (e.Code == CodeCapacityExhausted || e.Status == http.StatusInsufficientStorage)
}

// IsUnavailable reports whether the server could not reach its database.
func (e *APIError) IsUnavailable() bool {
	return e != nil && (e.Code == CodeUnavailable || e.Status == http.StatusServiceUnavailable)
}

// IsNotFound reports whether the record or file does not exist.
func (e *APIError) IsNotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// IsServerFault reports a 5xx that is neither capacity nor availability.
func (e *APIError) IsServerFault() bool {
	return e != nil && e.Status >= 500 && !e.IsCapacityExhausted() && !e.IsUnavailable()
}

// FromCatalog reports whether the response came from a catalog server.
// Only catalog servers attach an error code.
func (e *APIError) FromCatalog() bool {
	return e != nil && e.Code != ""
}

// AsAPIError finds an APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
