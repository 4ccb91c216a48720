package model

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a service organization that machines can be assigned to.
type Provider struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"uniqueIndex;size:128;not null"`
	ContactEmail string    `gorm:"size:256"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`

	// Associations
	Machines []Machine `gorm:"foreignKey:AssignedProviderID"`
}
