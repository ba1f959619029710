package department

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Department struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
	Name     string     `gorm:"size:255;not null"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
