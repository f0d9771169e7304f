package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTransport      = errors.New("transport fault")
	ErrSigning        = errors.New("signing failed")
	ErrPersistence    = errors.New("ticket persistence failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrRemote         = errors.New("remote service error")
	ErrInvalidTicket  = errors.New("invalid ticket")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrConfig         = errors.New("invalid configuration")
)

// FaultCodeHTTP marks a FaultError raised without a SOAP fault: the endpoint
// could not be reached or answered with something other than an envelope.
const FaultCodeHTTP = "HTTP"

// FaultError is a SOAP fault or a failure to reach the remote endpoint.
type FaultError struct {
	Code    string
	Message string
	Err     error
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("SOAP Fault: %s", e.Message)
	}
	return fmt.Sprintf("SOAP Fault: %s\n%s", e.Code, e.Message)
}

func (e *FaultError) Is(target error) bool { return target == ErrTransport }

// Answered reports whether the remote returned a SOAP fault, as opposed to
// not being reachable at all.
func (e *FaultError) Answered() bool { return e.Code != "" && e.Code != FaultCodeHTTP }

func (e *FaultError) Unwrap() error { return e.Err }

// RemoteError is returned by the billing read operations when the call
// faulted or the response carried an Errors list.
type RemoteError struct {
	Method  string
	Entries []RemoteMessage
	Err     error
}

func (e *RemoteError) Error() string {
	if len(e.Entries) == 0 {
		if e.Err != nil {
			return fmt.Sprintf("Method=%s; %v", e.Method, e.Err)
		}
		return fmt.Sprintf("Method=%s; unknown error", e.Method)
	}
	lines := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		lines = append(lines, fmt.Sprintf("Method=%s; Error=%d %s", e.Method, entry.Code, entry.Msg))
	}
	return strings.Join(lines, "\n")
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

func (e *RemoteError) Unwrap() error { return e.Err }
