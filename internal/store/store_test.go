package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/model"
)

// newTestStore opens a fresh in-memory SQLite database with the full schema.
func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.Machine{},
		&model.QuickCheck{},
		&model.MachineEvent{},
		&model.MaintenanceAlarm{},
		&model.Provider{},
		&model.PushSubscription{},
	))
	return NewGormStore(db)
}

func newPersistedMachine(t *testing.T, s Store) *machine.Machine {
	t.Helper()
	m, err := machine.New("Excavator CAT-320", &machine.Specs{
		FuelType:       "diesel",
		Year:           2019,
		OperatingHours: 4200,
	}, &machine.Location{Address: "Yard 3, Hamburg"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateMachine(context.Background(), m))
	return m
}

func TestCreateAndLoadMachine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	m := newPersistedMachine(t, s)
	alarm, err := m.AddAlarm("oil change", 500, now)
	require.NoError(t, err)
	_, err = m.RecordQuickCheck(machine.QuickCheck{
		Result:              machine.QuickCheckApproved,
		Items:               []machine.QuickCheckItem{{Name: "oil level", Result: machine.ItemApproved}},
		ResponsibleName:     "Alex Fischer",
		ResponsibleWorkerID: "W-1042",
	}, now)
	require.NoError(t, err)
	require.NoError(t, s.SaveMachine(ctx, m))

	loaded, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)

	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, "Excavator CAT-320", loaded.Name)
	assert.Equal(t, machine.StatusActive, loaded.Status)
	require.NotNil(t, loaded.Specs)
	assert.Equal(t, 4200.0, loaded.Specs.OperatingHours)
	require.NotNil(t, loaded.Location)
	assert.Equal(t, "Yard 3, Hamburg", loaded.Location.Address)

	require.Len(t, loaded.Alarms, 1)
	assert.Equal(t, alarm.ID, loaded.Alarms[0].ID)
	assert.Equal(t, 500.0, loaded.Alarms[0].IntervalHours)

	require.Len(t, loaded.QuickChecks, 1)
	assert.Equal(t, machine.QuickCheckApproved, loaded.QuickChecks[0].Result)
	require.Len(t, loaded.QuickChecks[0].Items, 1)
	assert.Equal(t, "oil level", loaded.QuickChecks[0].Items[0].Name)
}

func TestLoadMachineNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadMachine(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

func TestSaveMachineBumpsVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := newPersistedMachine(t, s)
	require.Zero(t, m.Version)

	require.NoError(t, m.ChangeStatus(machine.StatusMaintenance, time.Now()))
	require.NoError(t, s.SaveMachine(ctx, m))
	assert.Equal(t, int64(1), m.Version)

	loaded, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusMaintenance, loaded.Status)
	assert.Equal(t, int64(1), loaded.Version)
	require.NotEmpty(t, loaded.Events, "status change event must be persisted")
	assert.Contains(t, loaded.Events[0].Description, "maintenance")
}

// TestSaveMachineVersionConflict loads the same machine twice and saves both
// snapshots: the second writer loses the optimistic-lock race.
func TestSaveMachineVersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := newPersistedMachine(t, s)

	first, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)
	second, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)

	require.NoError(t, first.ChangeStatus(machine.StatusMaintenance, time.Now()))
	require.NoError(t, s.SaveMachine(ctx, first))

	require.NoError(t, second.ChangeStatus(machine.StatusOutOfService, time.Now()))
	err = s.SaveMachine(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)

	loaded, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, machine.StatusMaintenance, loaded.Status, "losing writer must not be applied")
}

func TestSaveMachineMissingRow(t *testing.T) {
	s := newTestStore(t)
	m, err := machine.New("Ghost", nil, nil, time.Now())
	require.NoError(t, err)

	err = s.SaveMachine(context.Background(), m)
	assert.ErrorIs(t, err, ErrMachineNotFound)
}

// TestQuickCheckRowsArePruned pushes the history past the cap and checks
// that the table holds exactly the capped window after save.
func TestQuickCheckRowsArePruned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-200 * time.Minute)

	m := newPersistedMachine(t, s)
	for i := 0; i < machine.MaxQuickCheckHistory+5; i++ {
		_, err := m.RecordQuickCheck(machine.QuickCheck{
			Result:              machine.QuickCheckApproved,
			Items:               []machine.QuickCheckItem{{Name: fmt.Sprintf("check-%d", i), Result: machine.ItemApproved}},
			ResponsibleName:     "Alex Fischer",
			ResponsibleWorkerID: "W-1042",
		}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, s.SaveMachine(ctx, m))
	}

	var count int64
	require.NoError(t, s.DB().Model(&model.QuickCheck{}).Where("machine_id = ?", m.ID).Count(&count).Error)
	assert.Equal(t, int64(machine.MaxQuickCheckHistory), count)

	loaded, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, loaded.QuickChecks, machine.MaxQuickCheckHistory)
	assert.Equal(t, fmt.Sprintf("check-%d", machine.MaxQuickCheckHistory+4), loaded.QuickChecks[0].Items[0].Name)
}

func TestAlarmStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	m := newPersistedMachine(t, s)
	alarm, err := m.AddAlarm("oil change", 500, now)
	require.NoError(t, err)
	require.NoError(t, s.SaveMachine(ctx, m))

	outcome, err := m.TickAlarm(alarm.ID, 1200, now)
	require.NoError(t, err)
	require.Len(t, outcome.Triggers, 2)
	require.NoError(t, s.SaveMachine(ctx, m))

	loaded, err := s.LoadMachine(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Alarms, 1)
	assert.Equal(t, 200.0, loaded.Alarms[0].AccumulatedHours)
	assert.Equal(t, 2, loaded.Alarms[0].TimesTriggered)
	require.NotNil(t, loaded.Alarms[0].LastTriggeredAt)
}

func TestListEventsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	m := newPersistedMachine(t, s)
	for i := 0; i < 7; i++ {
		_, err := m.RecordEvent(fmt.Sprintf("event %d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveMachine(ctx, m))

	page1, total, err := s.ListEvents(ctx, m.ID, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, page1, 3)
	assert.Equal(t, "event 6", page1[0].Description)

	page3, total, err := s.ListEvents(ctx, m.ID, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, page3, 1)
	assert.Equal(t, "event 0", page3[0].Description)
}

func TestListMachines(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Crane B", "Crane A"} {
		m, err := machine.New(name, nil, nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, s.CreateMachine(ctx, m))
	}

	rows, err := s.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Crane A", rows[0].Name)

	ids, err := s.ListMachineIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
