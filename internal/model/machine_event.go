package model

import (
	"time"

	"github.com/google/uuid"
)

// MachineEvent is one immutable history entry. The table is unbounded and
// read through paginated queries.
type MachineEvent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	MachineID   uuid.UUID `gorm:"type:uuid;not null;index:idx_machine_events_machine_created"`
	Kind        string    `gorm:"size:16;not null"`
	Description string    `gorm:"size:1024;not null"`
	CreatedAt   time.Time `gorm:"not null;index:idx_machine_events_machine_created"`
}
