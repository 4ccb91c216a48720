package machine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const maxAlarmNameLen = 100

// Alarm is a recurring maintenance threshold on accumulated operating hours.
// It is created once per maintenance policy and mutated in place by Tick.
type Alarm struct {
	ID               uuid.UUID
	Name             string
	IntervalHours    float64
	AccumulatedHours float64
	IsActive         bool
	TimesTriggered   int
	LastTriggeredAt  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Trigger describes one crossed maintenance cycle. The engine performs no
// I/O: each trigger is the caller's cue to emit one machine event and one
// notification after a successful save.
type Trigger struct {
	AlarmID     uuid.UUID
	AlarmName   string
	Cycle       int
	TriggeredAt time.Time
}

// TickOutcome is the result of feeding elapsed hours into one alarm.
type TickOutcome struct {
	Triggers         []Trigger
	AccumulatedHours float64
}

// NewAlarm builds a maintenance alarm. A positive interval is enforced here,
// not at tick time, which keeps Tick total and free of infinite loops.
func NewAlarm(name string, intervalHours float64, now time.Time) (Alarm, error) {
	if err := validateAlarmFields(name, intervalHours); err != nil {
		return Alarm{}, err
	}
	return Alarm{
		ID:            uuid.New(),
		Name:          name,
		IntervalHours: intervalHours,
		IsActive:      true,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

func validateAlarmFields(name string, intervalHours float64) error {
	if name == "" {
		return fmt.Errorf("%w: alarm name is required", ErrValidation)
	}
	if len(name) > maxAlarmNameLen {
		return fmt.Errorf("%w: alarm name exceeds %d characters", ErrValidation, maxAlarmNameLen)
	}
	if intervalHours <= 0 {
		return fmt.Errorf("%w: alarm interval must be positive, got %v", ErrValidation, intervalHours)
	}
	return nil
}

// tick adds elapsed operating hours to the accumulator and drains every fully
// crossed maintenance cycle. Missed cycles are caught up one trigger at a
// time rather than collapsed, and the remainder is carried forward, so the
// final accumulator is always in [0, IntervalHours).
func (a *Alarm) tick(deltaHours float64, now time.Time) (TickOutcome, error) {
	if !a.IsActive {
		return TickOutcome{}, fmt.Errorf("%w: alarm %s is deactivated", ErrDomainRule, a.ID)
	}
	if deltaHours < 0 {
		return TickOutcome{}, fmt.Errorf("%w: delta hours must not be negative, got %v", ErrValidation, deltaHours)
	}

	newAccumulated := a.AccumulatedHours + deltaHours
	var triggers []Trigger
	for cycle := 1; newAccumulated >= a.IntervalHours; cycle++ {
		newAccumulated -= a.IntervalHours
		a.TimesTriggered++
		at := now.UTC()
		a.LastTriggeredAt = &at
		triggers = append(triggers, Trigger{
			AlarmID:     a.ID,
			AlarmName:   a.Name,
			Cycle:       cycle,
			TriggeredAt: at,
		})
	}
	a.AccumulatedHours = newAccumulated
	a.UpdatedAt = now.UTC()
	return TickOutcome{Triggers: triggers, AccumulatedHours: newAccumulated}, nil
}

// update replaces name and interval. The accumulator is deliberately left
// untouched: shortening the interval can cause an immediate trigger on the
// next tick, which favors over-maintenance over under-maintenance.
func (a *Alarm) update(name string, intervalHours float64, now time.Time) error {
	if err := validateAlarmFields(name, intervalHours); err != nil {
		return err
	}
	a.Name = name
	a.IntervalHours = intervalHours
	a.UpdatedAt = now.UTC()
	return nil
}

// deactivate soft-deletes the alarm. It is excluded from evaluation but kept
// for its audit counters.
func (a *Alarm) deactivate(now time.Time) {
	a.IsActive = false
	a.UpdatedAt = now.UTC()
}
