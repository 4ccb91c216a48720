package model

import (
	"time"

	"github.com/google/uuid"
)

// MachineSpecs is the technical data sheet of a machine, stored as one JSON
// column since it is read and written as a unit.
type MachineSpecs struct {
	EnginePower    float64 `json:"engine_power"`
	Capacity       float64 `json:"capacity"`
	FuelType       string  `json:"fuel_type"`
	Year           int     `json:"year"`
	WeightKg       float64 `json:"weight_kg"`
	OperatingHours float64 `json:"operating_hours"`
}

// MachineLocation is the machine's deployment site, stored as one JSON column.
type MachineLocation struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Machine is the root row of one asset. Version is the optimistic lock token:
// the store only applies an update when the stored version matches the one
// the aggregate was loaded with.
type Machine struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name   string    `gorm:"size:256;not null"`
	Status string    `gorm:"size:32;not null;index"`

	Specs    *MachineSpecs    `gorm:"serializer:json"`
	Location *MachineLocation `gorm:"serializer:json"`

	AssignedProviderID *uuid.UUID `gorm:"type:uuid;index"`
	ProviderAssignedAt *time.Time

	EvaluatedHours float64 `gorm:"not null;default:0"`
	Version        int64   `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	QuickChecks []QuickCheck       `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
	Events      []MachineEvent     `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
	Alarms      []MaintenanceAlarm `gorm:"foreignKey:MachineID;constraint:OnDelete:CASCADE"`
}
