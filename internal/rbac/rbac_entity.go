package rbac

import (
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:100;uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EmployeeRole struct {
	EmployeeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoleID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

type RolePermission struct {
	RoleID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Resource string    `gorm:"size:100;primaryKey"`
	Action   string    `gorm:"size:100;primaryKey"`
}
