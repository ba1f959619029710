package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Employee is the read-only directory record the leave engine works from.
// Records are owned by the HR master-data system; nothing here mutates them.
type Employee struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index"`
	FullName     string     `gorm:"size:255;not null"`
	Email        string     `gorm:"uniqueIndex"`
	HireDate     *time.Time `gorm:"type:date"`
	Active       bool       `gorm:"not null;default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
