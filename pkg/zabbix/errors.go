package zabbix

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotLoggedIn is returned when a call needing authentication is made before Login.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is the error object of a JSON-RPC response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error %d: %s, %s", e.Code, e.Message, e.Data)
}

// HTTPStatusError represents an HTTP error response with status code and response details.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP status %s", e.Status)
	}
	return fmt.Sprintf("HTTP status %s: %s", e.Status, e.Body)
}

// StatusText returns the HTTP status text for this error's status code.
func (e *HTTPStatusError) StatusText() string {
	return http.StatusText(e.StatusCode)
}
