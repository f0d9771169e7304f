package core

import (
	"errors"
	"strings"
)

// MessageOK is the Outcome message when no error was collected.
const MessageOK = "OK"

// Outcome is the {success, message} envelope returned by operations without
// a richer payload. Errors keeps the collected errors for errors.Is checks.
type Outcome struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Errors  []error `json:"-"`
}

// NewOutcome builds an Outcome from the errors collected during one call.
func NewOutcome(errs ...error) Outcome {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	if len(collected) == 0 {
		return Outcome{Success: true, Message: MessageOK}
	}
	msgs := make([]string, 0, len(collected))
	for _, err := range collected {
		msgs = append(msgs, err.Error())
	}
	return Outcome{Success: false, Message: strings.Join(msgs, ", "), Errors: collected}
}

// Err returns nil on success, otherwise the collected errors joined.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	if len(o.Errors) == 0 {
		return errors.New(o.Message)
	}
	return errors.Join(o.Errors...)
}

// TicketResult is returned by GetValidTicket.
type TicketResult struct {
	Outcome
	Ticket *Ticket `json:"-"`
}
