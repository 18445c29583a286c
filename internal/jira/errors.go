package jira

import (
	"errors"
	"fmt"
	"net/http"

	gojira "github.com/andygrunwald/go-jira"
)

// Error is a failed JIRA call. Status is 0 when no response arrived.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("jira %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("jira %s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, resp *gojira.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &Error{Op: op, Status: status, Err: err}
}

// StatusCode returns the status JIRA answered with, or 0.
func StatusCode(err error) int {
	var jerr *Error
	if errors.As(err, &jerr) {
		return jerr.Status
	}
	return 0
}

// ClientStatus maps err to the status the API returns to its own clients.
// JIRA 400 and 404 pass through; anything else, 401 included, is a bad gateway
// so that clients never mistake it for an expired session.
func ClientStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDomain), errors.Is(err, ErrInvalidKey), errors.Is(err, ErrMissingCredential):
		return http.StatusBadRequest
	}
	switch s := StatusCode(err); s {
	case http.StatusBadRequest, http.StatusNotFound:
		return s
	default:
		return http.StatusBadGateway
	}
}
