package machine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bounds on a quick check record.
const (
	MaxQuickCheckHistory    = 100
	maxResponsibleNameLen   = 100
	maxResponsibleWorkerLen = 50
)

// QuickCheckResult is the overall outcome of an inspection.
type QuickCheckResult string

const (
	QuickCheckApproved     QuickCheckResult = "approved"
	QuickCheckDisapproved  QuickCheckResult = "disapproved"
	QuickCheckNotInitiated QuickCheckResult = "not_initiated"
)

// ItemResult is the outcome of a single checklist item.
type ItemResult string

const (
	ItemApproved    ItemResult = "approved"
	ItemDisapproved ItemResult = "disapproved"
	ItemOmitted     ItemResult = "omitted"
)

// QuickCheckItem is one entry of the inspection checklist.
type QuickCheckItem struct {
	Name   string     `json:"name"`
	Result ItemResult `json:"result"`
}

// QuickCheck is a point-in-time inspection record. It is append-only: once
// accepted onto a machine it is never mutated.
type QuickCheck struct {
	ID                  uuid.UUID
	Result              QuickCheckResult
	Items               []QuickCheckItem
	ResponsibleName     string
	ResponsibleWorkerID string
	CreatedAt           time.Time
}

// validate checks a candidate record for internal consistency against the
// machine's current status. The rules are checked in full before the record
// may be appended, so a rejected record leaves no trace.
func (qc *QuickCheck) validate(current Status) error {
	if current == StatusRetired {
		return fmt.Errorf("%w: cannot record a quick check on a retired machine", ErrDomainRule)
	}
	if qc.ResponsibleName == "" {
		return fmt.Errorf("%w: responsible name is required", ErrValidation)
	}
	if len(qc.ResponsibleName) > maxResponsibleNameLen {
		return fmt.Errorf("%w: responsible name exceeds %d characters", ErrValidation, maxResponsibleNameLen)
	}
	if qc.ResponsibleWorkerID == "" {
		return fmt.Errorf("%w: responsible worker id is required", ErrValidation)
	}
	if len(qc.ResponsibleWorkerID) > maxResponsibleWorkerLen {
		return fmt.Errorf("%w: responsible worker id exceeds %d characters", ErrValidation, maxResponsibleWorkerLen)
	}
	switch qc.Result {
	case QuickCheckApproved, QuickCheckDisapproved, QuickCheckNotInitiated:
	default:
		return fmt.Errorf("%w: unknown quick check result %q", ErrValidation, qc.Result)
	}
	if len(qc.Items) == 0 {
		return fmt.Errorf("%w: quick check requires at least one item", ErrValidation)
	}

	allApproved, anyDisapproved, allOmitted := true, false, true
	for _, item := range qc.Items {
		switch item.Result {
		case ItemApproved:
			allOmitted = false
		case ItemDisapproved:
			anyDisapproved = true
			allApproved = false
			allOmitted = false
		case ItemOmitted:
			allApproved = false
		default:
			return fmt.Errorf("%w: unknown item result %q for item %q", ErrValidation, item.Result, item.Name)
		}
	}

	if allApproved && qc.Result != QuickCheckApproved {
		return fmt.Errorf("%w: all items approved but overall result is %q", ErrDomainRule, qc.Result)
	}
	if anyDisapproved && qc.Result == QuickCheckApproved {
		return fmt.Errorf("%w: cannot approve a quick check with disapproved items", ErrDomainRule)
	}
	if qc.Result == QuickCheckNotInitiated && !allOmitted {
		return fmt.Errorf("%w: a not-initiated quick check must have all items omitted", ErrDomainRule)
	}
	return nil
}
