package order

import "github.com/go-faster/errors"

// Status is the closed set of order lifecycle states.
type Status string

const (
	StatusOrdered   Status = "ORDERED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// successor maps each state to its single legal forward transition.
// Cancellation is handled separately: it is only legal from ORDERED.
var successor = map[Status]Status{
	StatusOrdered:   StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusCompleted,
}

// ParseStatus validates a wire-format status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOrdered, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown status %q", s)
}

// CanTransitionTo reports whether moving from s to target is a legal
// edge. Stages cannot be skipped.
func (s Status) CanTransitionTo(target Status) bool {
	if target == StatusCancelled {
		return s == StatusOrdered
	}
	next, ok := successor[s]
	return ok && next == target
}

// Active reports whether the order still occupies the kitchen queue.
func (s Status) Active() bool {
	switch s {
	case StatusOrdered, StatusPreparing, StatusReady:
		return true
	}
	return false
}

// ActiveStatuses lists the states counted by the live dashboard gauge.
func ActiveStatuses() []Status {
	return []Status{StatusOrdered, StatusPreparing, StatusReady}
}
