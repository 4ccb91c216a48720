package machine

import "fmt"

// Status is the operational state of a machine. It is a closed set: every
// switch over a Status in this package is exhaustive, so an unknown status
// can only originate outside the domain and is rejected by ParseStatus.
type Status string

const (
	StatusActive       Status = "active"
	StatusMaintenance  Status = "maintenance"
	StatusOutOfService Status = "out_of_service"
	StatusRetired      Status = "retired"
)

// ParseStatus converts a raw status code into a Status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusActive, StatusMaintenance, StatusOutOfService, StatusRetired:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
}

// IsOperational reports whether a machine in this status is performing work.
func (s Status) IsOperational() bool {
	return s == StatusActive
}

// AllowsProviderAssignment reports whether a provider may be assigned while
// the machine is in this status.
func (s Status) AllowsProviderAssignment() bool {
	switch s {
	case StatusActive, StatusMaintenance:
		return true
	case StatusOutOfService, StatusRetired:
		return false
	}
	return false
}

// ValidTransitions returns the statuses reachable from s. Retired is
// terminal and returns nothing.
func (s Status) ValidTransitions() []Status {
	switch s {
	case StatusActive:
		return []Status{StatusMaintenance, StatusOutOfService, StatusRetired}
	case StatusMaintenance:
		return []Status{StatusActive, StatusOutOfService, StatusRetired}
	case StatusOutOfService:
		return []Status{StatusActive, StatusMaintenance, StatusRetired}
	case StatusRetired:
		return nil
	}
	return nil
}

// CanTransitionTo reports whether the table permits moving from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range s.ValidTransitions() {
		if t == target {
			return true
		}
	}
	return false
}

// onExit runs when a machine leaves this status. Retired refuses to be left,
// which keeps the state terminal even for callers that skip the table check.
func (s Status) onExit() error {
	if s == StatusRetired {
		return fmt.Errorf("%w: retired is a terminal status", ErrInvalidTransition)
	}
	return nil
}

// onEnter runs when a machine enters this status. All current statuses accept
// entry unconditionally; the hook is the seam for future per-status rules.
func (s Status) onEnter() error {
	return nil
}
