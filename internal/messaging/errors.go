package messaging

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload marks a body that failed classification or schema
// validation. The dispatcher absorbs it: a malformed payload is dropped, not
// reported to the caller.
var ErrMalformedPayload = errors.New("malformed payload")

// rejectf wraps ErrMalformedPayload with a reason suitable for logs.
func rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPayload, fmt.Sprintf(format, args...))
}

// RecipientFailure pairs a recipient with the cause of its failed delivery.
type RecipientFailure struct {
	Recipient string
	Err       error
}

// AggregateBroadcastError reports every failed recipient of one broadcast, in
// recipient order. It is produced only after all recipients were attempted.
type AggregateBroadcastError struct {
	Attempted int
	Failures  []RecipientFailure
}

func (e *AggregateBroadcastError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "broadcast failed for %d of %d recipients", len(e.Failures), e.Attempted)
	for i, f := range e.Failures {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Recipient, f.Err)
	}
	return b.String()
}

// Unwrap exposes every cause to errors.Is and errors.As.
func (e *AggregateBroadcastError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// Recipients returns the failed recipient ids in order.
func (e *AggregateBroadcastError) Recipients() []string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.Recipient)
	}
	return ids
}
