package model

import (
	"time"

	"github.com/google/uuid"
)

// QuickCheckItem is one checklist entry of an inspection record.
type QuickCheckItem struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// QuickCheck is one immutable inspection record. The newest 100 rows per
// machine mirror the aggregate's history; older rows are pruned on save.
type QuickCheck struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey"`
	MachineID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_quick_checks_machine_created"`
	Result              string           `gorm:"size:32;not null"`
	Items               []QuickCheckItem `gorm:"serializer:json;not null"`
	ResponsibleName     string           `gorm:"size:100;not null"`
	ResponsibleWorkerID string           `gorm:"size:50;not null"`
	CreatedAt           time.Time        `gorm:"not null;index:idx_quick_checks_machine_created"`
}
