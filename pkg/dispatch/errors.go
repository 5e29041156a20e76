package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEvent is returned for event kinds the engine does not handle.
	ErrUnknownEvent = errors.New("dispatch: unknown event kind")
	// ErrMissingCourse is returned when an event omits the course id.
	ErrMissingCourse = errors.New("dispatch: event requires a course id")
	// ErrMissingStudent is returned when an event omits the student id.
	ErrMissingStudent = errors.New("dispatch: event requires a student id")
)

// DeliveryFailure records one recipient whose durable write failed.
type DeliveryFailure struct {
	Recipient string
	Err       error
}

// Result aggregates one fan-out: how many recipients got a durable
// notification and which ones did not. Successful recipients are never
// rolled back on partial failure; each one is an independent unit of work.
type Result struct {
	Delivered int
	Failed    []DeliveryFailure
}

// merge folds another result into this one.
func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.Delivered += other.Delivered
	r.Failed = append(r.Failed, other.Failed...)
}

// Err returns a *PartialDeliveryError when any recipient failed, nil otherwise.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &PartialDeliveryError{Delivered: r.Delivered, Failures: r.Failed}
}

// PartialDeliveryError reports the recipients a fan-out could not persist a
// notification for. Delivered counts the recipients that did succeed.
type PartialDeliveryError struct {
	Delivered int
	Failures  []DeliveryFailure
}

func (e *PartialDeliveryError) Error() string {
	recipients := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		recipients[i] = f.Recipient
	}
	return fmt.Sprintf("dispatch: delivery failed for %d of %d recipients (%s)",
		len(e.Failures), e.Delivered+len(e.Failures), strings.Join(recipients, ", "))
}

// Unwrap exposes the underlying store errors for errors.Is/As.
func (e *PartialDeliveryError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
