package model

import (
	"time"

	"github.com/google/uuid"
)

// MaintenanceAlarm is the persisted accumulator state of one alarm
// subdocument. Deactivated alarms stay in the table for audit.
type MaintenanceAlarm struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	MachineID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Name             string    `gorm:"size:100;not null"`
	IntervalHours    float64   `gorm:"not null"`
	AccumulatedHours float64   `gorm:"not null;default:0"`
	IsActive         bool      `gorm:"not null;default:true"`
	TimesTriggered   int       `gorm:"not null;default:0"`
	LastTriggeredAt  *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}
