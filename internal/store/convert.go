package store

import (
	"fmt"

	"fleet-maintenance-backend/internal/machine"
	"fleet-maintenance-backend/internal/model"
)

// Conversions between the in-memory aggregate and its row representation.
// The domain package stays free of gorm tags; this file is the only place
// that knows both shapes.

func machineToRow(m *machine.Machine) model.Machine {
	row := model.Machine{
		ID:                 m.ID,
		Name:               m.Name,
		Status:             string(m.Status),
		AssignedProviderID: m.AssignedProviderID,
		ProviderAssignedAt: m.ProviderAssignedAt,
		EvaluatedHours:     m.EvaluatedHours,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Specs != nil {
		row.Specs = &model.MachineSpecs{
			EnginePower:    m.Specs.EnginePower,
			Capacity:       m.Specs.Capacity,
			FuelType:       m.Specs.FuelType,
			Year:           m.Specs.Year,
			WeightKg:       m.Specs.WeightKg,
			OperatingHours: m.Specs.OperatingHours,
		}
	}
	if m.Location != nil {
		row.Location = &model.MachineLocation{
			Address:   m.Location.Address,
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	}
	return row
}

func alarmsToRows(m *machine.Machine) []model.MaintenanceAlarm {
	rows := make([]model.MaintenanceAlarm, len(m.Alarms))
	for i, a := range m.Alarms {
		rows[i] = model.MaintenanceAlarm{
			ID:               a.ID,
			MachineID:        m.ID,
			Name:             a.Name,
			IntervalHours:    a.IntervalHours,
			AccumulatedHours: a.AccumulatedHours,
			IsActive:         a.IsActive,
			TimesTriggered:   a.TimesTriggered,
			LastTriggeredAt:  a.LastTriggeredAt,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		}
	}
	return rows
}

func quickChecksToRows(m *machine.Machine) []model.QuickCheck {
	rows := make([]model.QuickCheck, len(m.QuickChecks))
	for i, qc := range m.QuickChecks {
		items := make([]model.QuickCheckItem, len(qc.Items))
		for j, item := range qc.Items {
			items[j] = model.QuickCheckItem{Name: item.Name, Result: string(item.Result)}
		}
		rows[i] = model.QuickCheck{
			ID:                  qc.ID,
			MachineID:           m.ID,
			Result:              string(qc.Result),
			Items:               items,
			ResponsibleName:     qc.ResponsibleName,
			ResponsibleWorkerID: qc.ResponsibleWorkerID,
			CreatedAt:           qc.CreatedAt,
		}
	}
	return rows
}

func eventsToRows(m *machine.Machine) []model.MachineEvent {
	rows := make([]model.MachineEvent, len(m.Events))
	for i, ev := range m.Events {
		rows[i] = model.MachineEvent{
			ID:          ev.ID,
			MachineID:   m.ID,
			Kind:        string(ev.Kind),
			Description: ev.Description,
			CreatedAt:   ev.CreatedAt,
		}
	}
	return rows
}

func machineFromRows(row model.Machine, alarms []model.MaintenanceAlarm, quickChecks []model.QuickCheck, events []model.MachineEvent) (*machine.Machine, error) {
	status, err := machine.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("machine %s has corrupt status %q: %w", row.ID, row.Status, err)
	}

	m := &machine.Machine{
		ID:                 row.ID,
		Name:               row.Name,
		Status:             status,
		AssignedProviderID: row.AssignedProviderID,
		ProviderAssignedAt: row.ProviderAssignedAt,
		EvaluatedHours:     row.EvaluatedHours,
		Version:            row.Version,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	if row.Specs != nil {
		m.Specs = &machine.Specs{
			EnginePower:    row.Specs.EnginePower,
			Capacity:       row.Specs.Capacity,
			FuelType:       row.Specs.FuelType,
			Year:           row.Specs.Year,
			WeightKg:       row.Specs.WeightKg,
			OperatingHours: row.Specs.OperatingHours,
		}
	}
	if row.Location != nil {
		m.Location = &machine.Location{
			Address:   row.Location.Address,
			Latitude:  row.Location.Latitude,
			Longitude: row.Location.Longitude,
		}
	}

	m.Alarms = make([]machine.Alarm, len(alarms))
	for i, a := range alarms {
		m.Alarms[i] = machine.Alarm{
			ID:               a.ID,
			Name:             a.Name,
			IntervalHours:    a.IntervalHours,
			AccumulatedHours: a.AccumulatedHours,
			IsActive:         a.IsActive,
			TimesTriggered:   a.TimesTriggered,
			LastTriggeredAt:  a.LastTriggeredAt,
			CreatedAt:        a.CreatedAt,
			UpdatedAt:        a.UpdatedAt,
		}
	}

	m.QuickChecks = make([]machine.QuickCheck, len(quickChecks))
	for i, qc := range quickChecks {
		items := make([]machine.QuickCheckItem, len(qc.Items))
		for j, item := range qc.Items {
			items[j] = machine.QuickCheckItem{Name: item.Name, Result: machine.ItemResult(item.Result)}
		}
		m.QuickChecks[i] = machine.QuickCheck{
			ID:                  qc.ID,
			Result:              machine.QuickCheckResult(qc.Result),
			Items:               items,
			ResponsibleName:     qc.ResponsibleName,
			ResponsibleWorkerID: qc.ResponsibleWorkerID,
			CreatedAt:           qc.CreatedAt,
		}
	}

	m.Events = make([]machine.Event, len(events))
	for i, ev := range events {
		m.Events[i] = machine.Event{
			ID:          ev.ID,
			Kind:        machine.EventKind(ev.Kind),
			Description: ev.Description,
			CreatedAt:   ev.CreatedAt,
		}
	}
	return m, nil
}
