package types

import (
	"fmt"
	"net/http"
)

// Response is the envelope every API endpoint wraps its payload in.
type Response struct {
	Success bool   `json:"success" description:"Indicates if the request was successful"`
	Message string `json:"message,omitempty" description:"Message of the response"`
	Data    any    `json:"data,omitempty" description:"JSON data of the response"`
}

// FieldError is a single validation failure as reported by the API.
// Older endpoints use field/message, newer ones use path/msg.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// Name returns the field the error refers to, whichever shape it came in.
func (f FieldError) Name() string {
	if f.Field != "" {
		return f.Field
	}
	return f.Path
}

// Text returns the human readable message, whichever shape it came in.
func (f FieldError) Text() string {
	if f.Message != "" {
		return f.Message
	}
	return f.Msg
}

// APIError is a failed API call: a non-2xx status or an envelope with
// success=false.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func (e *APIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.Status >= 500
}
