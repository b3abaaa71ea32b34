package client

import (
	"fmt"
	"strings"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
)

// TransportError means the call never produced a domain answer: connection
// refused, timeout, non-200, undecodable body. Retrying may help; the
// client itself never retries.
type TransportError struct {
	Op  dispatch.Op
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DomainError is a Status:0 answer from the server. The message is passed
// through verbatim; retrying without changing the request will not help.
type DomainError struct {
	Op      dispatch.Op
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ValidationError carries the full list of failed checks, whether raised
// client-side before any network I/O or returned by a validate operation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
