package machine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxNameLen = 256

// Specs holds the technical characteristics of a machine. OperatingHours is
// the cumulative meter reading reported by the field; the engine trusts the
// caller and does not enforce monotonicity.
type Specs struct {
	EnginePower    float64
	Capacity       float64
	FuelType       string
	Year           int
	WeightKg       float64
	OperatingHours float64
}

// Location is where the machine is currently deployed.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

// Machine is the aggregate root for one physical asset. It owns the current
// status, the embedded histories, and the maintenance alarms, and is the only
// mutation entry point for all of them. Every operation either fully applies
// or returns an error with the aggregate unchanged.
//
// The aggregate is an in-memory snapshot: it never reaches for persistence,
// network, or clock services. Callers load it, apply one mutation, and save
// it back; the store's version check keeps writers exclusive per machine id.
type Machine struct {
	ID     uuid.UUID
	Name   string
	Status Status

	Specs    *Specs
	Location *Location

	AssignedProviderID *uuid.UUID
	ProviderAssignedAt *time.Time

	// QuickChecks is newest-first and hard-capped at MaxQuickCheckHistory;
	// the oldest record is evicted when the cap is exceeded.
	QuickChecks []QuickCheck
	Events      []Event
	Alarms      []Alarm

	// EvaluatedHours is the operating-hours reading already fed into the
	// alarms, maintained by the evaluator between runs.
	EvaluatedHours float64

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic concurrency token managed by the store.
	Version int64
}

// New builds a machine aggregate in the Active status.
func New(name string, specs *Specs, location *Location, now time.Time) (*Machine, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrValidation)
	}
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: machine name exceeds %d characters", ErrValidation, maxNameLen)
	}
	if specs != nil {
		if err := validateSpecs(specs); err != nil {
			return nil, err
		}
	}
	m := &Machine{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusActive,
		Specs:     specs,
		Location:  location,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if specs != nil {
		m.EvaluatedHours = specs.OperatingHours
	}
	return m, nil
}

func validateSpecs(specs *Specs) error {
	if specs.OperatingHours < 0 {
		return fmt.Errorf("%w: operating hours must not be negative", ErrValidation)
	}
	if specs.EnginePower < 0 || specs.Capacity < 0 || specs.WeightKg < 0 {
		return fmt.Errorf("%w: spec values must not be negative", ErrValidation)
	}
	return nil
}

// ChangeStatus moves the machine to the requested status. The transition
// table and both lifecycle hooks are checked before the status field is
// written, so a rejected change leaves the aggregate untouched.
func (m *Machine) ChangeStatus(requested Status, now time.Time) error {
	if m.Status == requested {
		return fmt.Errorf("%w: %s", ErrAlreadyInStatus, requested)
	}
	if !m.Status.CanTransitionTo(requested) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, requested)
	}
	if err := m.Status.onExit(); err != nil {
		return err
	}
	if err := requested.onEnter(); err != nil {
		return err
	}
	previous := m.Status
	m.Status = requested
	m.appendEvent(newSystemEvent(fmt.Sprintf("status changed from %s to %s", previous, requested), now))
	m.touch(now)
	return nil
}

// AssignProvider assigns a provider organization to the machine. Assignment
// is rejected while the status disallows it and when the same provider is
// already assigned (the duplicate is a conflict, not a silent success).
func (m *Machine) AssignProvider(providerID uuid.UUID, now time.Time) error {
	if providerID == uuid.Nil {
		return fmt.Errorf("%w: provider id is required", ErrValidation)
	}
	if m.Status == StatusRetired {
		return fmt.Errorf("%w: cannot assign a provider to a retired machine", ErrDomainRule)
	}
	if !m.Status.AllowsProviderAssignment() {
		return fmt.Errorf("%w: status %s does not allow provider assignment", ErrDomainRule, m.Status)
	}
	if m.AssignedProviderID != nil && *m.AssignedProviderID == providerID {
		return fmt.Errorf("%w: provider %s is already assigned", ErrDomainRule, providerID)
	}
	at := now.UTC()
	m.AssignedProviderID = &providerID
	m.ProviderAssignedAt = &at
	m.appendEvent(newSystemEvent(fmt.Sprintf("provider %s assigned", providerID), now))
	m.touch(now)
	return nil
}

// RemoveProvider clears the current provider assignment.
func (m *Machine) RemoveProvider(now time.Time) error {
	if m.AssignedProviderID == nil {
		return fmt.Errorf("%w: no provider assigned", ErrNotFound)
	}
	removed := *m.AssignedProviderID
	m.AssignedProviderID = nil
	m.ProviderAssignedAt = nil
	m.appendEvent(newSystemEvent(fmt.Sprintf("provider %s removed", removed), now))
	m.touch(now)
	return nil
}

// UpdateSpecs replaces the machine's technical specs.
func (m *Machine) UpdateSpecs(specs Specs, now time.Time) error {
	if err := validateSpecs(&specs); err != nil {
		return err
	}
	m.Specs = &specs
	m.touch(now)
	return nil
}

// UpdateLocation replaces the machine's deployment location.
func (m *Machine) UpdateLocation(location Location, now time.Time) error {
	if location.Address == "" {
		return fmt.Errorf("%w: location address is required", ErrValidation)
	}
	m.Location = &location
	m.touch(now)
	return nil
}

// RecordQuickCheck validates and appends an inspection record. The record is
// prepended so the history stays newest-first; once the hard cap is exceeded
// the oldest entry is evicted.
func (m *Machine) RecordQuickCheck(qc QuickCheck, now time.Time) (QuickCheck, error) {
	if err := qc.validate(m.Status); err != nil {
		return QuickCheck{}, err
	}
	if qc.ID == uuid.Nil {
		qc.ID = uuid.New()
	}
	qc.CreatedAt = now.UTC()
	m.QuickChecks = append([]QuickCheck{qc}, m.QuickChecks...)
	if len(m.QuickChecks) > MaxQuickCheckHistory {
		m.QuickChecks = m.QuickChecks[:MaxQuickCheckHistory]
	}
	m.touch(now)
	return qc, nil
}

// RecordEvent appends a manual history entry.
func (m *Machine) RecordEvent(description string, now time.Time) (Event, error) {
	if description == "" {
		return Event{}, fmt.Errorf("%w: event description is required", ErrValidation)
	}
	ev := Event{
		ID:          uuid.New(),
		Kind:        EventManual,
		Description: description,
		CreatedAt:   now.UTC(),
	}
	m.appendEvent(ev)
	m.touch(now)
	return ev, nil
}

// AddAlarm attaches a new maintenance alarm to the machine.
func (m *Machine) AddAlarm(name string, intervalHours float64, now time.Time) (Alarm, error) {
	alarm, err := NewAlarm(name, intervalHours, now)
	if err != nil {
		return Alarm{}, err
	}
	m.Alarms = append(m.Alarms, alarm)
	m.touch(now)
	return alarm, nil
}

// UpdateAlarm changes an alarm's name and interval. The accumulated hours are
// never rescaled to the new interval; see Alarm.update.
func (m *Machine) UpdateAlarm(alarmID uuid.UUID, name string, intervalHours float64, now time.Time) error {
	alarm, err := m.findAlarm(alarmID)
	if err != nil {
		return err
	}
	if err := alarm.update(name, intervalHours, now); err != nil {
		return err
	}
	m.touch(now)
	return nil
}

// DeactivateAlarm soft-deletes an alarm, keeping it for audit.
func (m *Machine) DeactivateAlarm(alarmID uuid.UUID, now time.Time) error {
	alarm, err := m.findAlarm(alarmID)
	if err != nil {
		return err
	}
	alarm.deactivate(now)
	m.touch(now)
	return nil
}

// TickAlarm feeds elapsed operating hours into one alarm and appends one
// system event per crossed maintenance cycle. The returned triggers are the
// caller's cue to send notifications after a successful save.
func (m *Machine) TickAlarm(alarmID uuid.UUID, deltaHours float64, now time.Time) (TickOutcome, error) {
	alarm, err := m.findAlarm(alarmID)
	if err != nil {
		return TickOutcome{}, err
	}
	outcome, err := alarm.tick(deltaHours, now)
	if err != nil {
		return TickOutcome{}, err
	}
	for range outcome.Triggers {
		m.appendEvent(newSystemEvent(fmt.Sprintf("maintenance due: %s (every %v hours)", alarm.Name, alarm.IntervalHours), now))
	}
	m.touch(now)
	return outcome, nil
}

// TickAlarms feeds the same elapsed hours into every active alarm and
// collects all triggers. Deactivated alarms are skipped.
func (m *Machine) TickAlarms(deltaHours float64, now time.Time) ([]Trigger, error) {
	if deltaHours < 0 {
		return nil, fmt.Errorf("%w: delta hours must not be negative, got %v", ErrValidation, deltaHours)
	}
	var triggers []Trigger
	for i := range m.Alarms {
		if !m.Alarms[i].IsActive {
			continue
		}
		outcome, err := m.TickAlarm(m.Alarms[i].ID, deltaHours, now)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, outcome.Triggers...)
	}
	return triggers, nil
}

func (m *Machine) findAlarm(alarmID uuid.UUID) (*Alarm, error) {
	for i := range m.Alarms {
		if m.Alarms[i].ID == alarmID {
			return &m.Alarms[i], nil
		}
	}
	return nil, fmt.Errorf("%w: alarm %s", ErrNotFound, alarmID)
}

func (m *Machine) appendEvent(ev Event) {
	m.Events = append([]Event{ev}, m.Events...)
}

func (m *Machine) touch(now time.Time) {
	m.UpdatedAt = now.UTC()
}
