package audit

import (
	"time"

	"github.com/google/uuid"
)

// Log is the persisted audit trail row written by the kafka consumer.
type Log struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action     string    `gorm:"size:100;not null;index"`
	ActorID    string    `gorm:"size:100;not null;index"`
	EmployeeID string    `gorm:"size:100;index"`
	Details    []byte    `gorm:"type:jsonb"`
	OccurredAt time.Time `gorm:"not null;index"`
	CreatedAt  time.Time
}

func (Log) TableName() string { return "audit_logs" }
