package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/model"
)

// Store errors. The engine itself never raises these; they belong to the
// persistence collaborator.
var (
	// ErrMachineNotFound marks a load for a machine id with no row.
	ErrMachineNotFound = errors.New("machine not found")

	// ErrVersionConflict marks a save that lost an optimistic-lock race.
	// The caller reloads the aggregate and retries the mutation.
	ErrVersionConflict = errors.New("machine was modified concurrently")
)

// recentEventsLimit bounds how much event history is hydrated onto the
// aggregate snapshot. Full history is read through ListEvents.
const recentEventsLimit = 100

// Store defines the persistence contract around the machine aggregate. The
// engine assumes a fully hydrated snapshot on load and an atomic write on
// save; everything transactional lives here.
type Store interface {
	DB() *gorm.DB

	CreateMachine(ctx context.Context, m *machine.Machine) error
	LoadMachine(ctx context.Context, id uuid.UUID) (*machine.Machine, error)
	SaveMachine(ctx context.Context, m *machine.Machine) error
	ListMachines(ctx context.Context) ([]model.Machine, error)
	ListMachineIDs(ctx context.Context) ([]uuid.UUID, error)
	ListEvents(ctx context.Context, machineID uuid.UUID, page, pageSize int) ([]model.MachineEvent, int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the raw handle for collaborators that query outside the
// aggregate boundary (providers, push subscriptions).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateMachine inserts a freshly constructed aggregate.
func (s *gormStore) CreateMachine(ctx context.Context, m *machine.Machine) error {
	row := machineToRow(m)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create machine %s: %w", m.ID, err)
		}
		return saveChildren(tx, m)
	})
}

// LoadMachine hydrates a full aggregate snapshot: root row, all alarms, the
// capped quick-check history, and a recent window of events.
func (s *gormStore) LoadMachine(ctx context.Context, id uuid.UUID) (*machine.Machine, error) {
	var row model.Machine
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, id)
		}
		return nil, fmt.Errorf("failed to load machine %s: %w", id, err)
	}

	var alarmRows []model.MaintenanceAlarm
	if err := s.db.WithContext(ctx).
		Where("machine_id = ?", id).
		Order("created_at ASC").
		Find(&alarmRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load alarms for machine %s: %w", id, err)
	}

	var qcRows []model.QuickCheck
	if err := s.db.WithContext(ctx).
		Where("machine_id = ?", id).
		Order("created_at DESC").
		Limit(machine.MaxQuickCheckHistory).
		Find(&qcRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load quick checks for machine %s: %w", id, err)
	}

	var eventRows []model.MachineEvent
	if err := s.db.WithContext(ctx).
		Where("machine_id = ?", id).
		Order("created_at DESC").
		Limit(recentEventsLimit).
		Find(&eventRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load events for machine %s: %w", id, err)
	}

	return machineFromRows(row, alarmRows, qcRows, eventRows)
}

// SaveMachine persists the aggregate atomically. The root row update is
// guarded by the version the snapshot was loaded with, which guarantees
// at-most-one concurrent writer per machine id.
func (s *gormStore) SaveMachine(ctx context.Context, m *machine.Machine) error {
	row := machineToRow(m)
	row.Version = m.Version + 1

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Machine{}).
			Where("id = ? AND version = ?", m.ID, m.Version).
			Select("*").Omit("id", "created_at").
			Updates(&row)
		if res.Error != nil {
			return fmt.Errorf("failed to update machine %s: %w", m.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Machine{}).Where("id = ?", m.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check machine %s: %w", m.ID, err)
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", ErrMachineNotFound, m.ID)
			}
			return fmt.Errorf("%w: %s", ErrVersionConflict, m.ID)
		}
		return saveChildren(tx, m)
	})
	if err != nil {
		return err
	}
	m.Version++
	return nil
}

// saveChildren writes alarms, quick checks, and events. Quick checks and
// events are immutable, so re-inserting an already persisted record is a
// no-op; alarms are mutable and upserted in full. Quick-check rows evicted
// from the capped history are pruned.
func saveChildren(tx *gorm.DB, m *machine.Machine) error {
	if len(m.Alarms) > 0 {
		alarmRows := alarmsToRows(m)
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&alarmRows).Error; err != nil {
			return fmt.Errorf("failed to upsert alarms for machine %s: %w", m.ID, err)
		}
	}

	if len(m.QuickChecks) > 0 {
		qcRows := quickChecksToRows(m)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&qcRows).Error; err != nil {
			return fmt.Errorf("failed to insert quick checks for machine %s: %w", m.ID, err)
		}
		kept := make([]uuid.UUID, len(m.QuickChecks))
		for i, qc := range m.QuickChecks {
			kept[i] = qc.ID
		}
		if err := tx.Where("machine_id = ? AND id NOT IN ?", m.ID, kept).
			Delete(&model.QuickCheck{}).Error; err != nil {
			return fmt.Errorf("failed to prune quick checks for machine %s: %w", m.ID, err)
		}
	}

	if len(m.Events) > 0 {
		eventRows := eventsToRows(m)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&eventRows).Error; err != nil {
			return fmt.Errorf("failed to insert events for machine %s: %w", m.ID, err)
		}
	}
	return nil
}

// ListMachines returns all machine root rows ordered by name.
func (s *gormStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	var rows []model.Machine
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return rows, nil
}

// ListMachineIDs returns the ids of all machines, used by the alarm
// evaluator to walk the fleet.
func (s *gormStore) ListMachineIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&model.Machine{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list machine ids: %w", err)
	}
	return ids, nil
}

// ListEvents returns one page of a machine's event history, newest first,
// together with the total row count.
func (s *gormStore) ListEvents(ctx context.Context, machineID uuid.UUID, page, pageSize int) ([]model.MachineEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	q := s.db.WithContext(ctx).Model(&model.MachineEvent{}).Where("machine_id = ?", machineID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events for machine %s: %w", machineID, err)
	}

	var rows []model.MachineEvent
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list events for machine %s: %w", machineID, err)
	}
	return rows, total, nil
}
