package quotes

import (
	"errors"
	"fmt"
)

// ErrNoQuote is returned when the provider answered but had no price for the symbol.
var ErrNoQuote = errors.New("no quote")

// APIError is a non-2xx response or a non-zero status.error_code in the payload.
type APIError struct {
	StatusCode int
	Code       int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider %s: status %d, error_code %d: %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}
