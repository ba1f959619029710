package holiday

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// TypeHoliday marks a date off work; it only consumes leave when
	// DeductLeave is set (statutory holidays that still count against the
	// annual allowance).
	TypeHoliday = "holiday"
	// TypeWorkday designates a weekend date as a working day.
	TypeWorkday = "workday"
)

type Holiday struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index:idx_holidays_dept_date"`
	Name         string     `gorm:"size:255;not null"`
	Date         time.Time  `gorm:"type:date;not null;index:idx_holidays_dept_date"`
	Type         string     `gorm:"type:varchar(20);not null;default:'holiday'"`
	DeductLeave  bool       `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Day is the calendar view consumed by the leave day counter.
type Day struct {
	Date         time.Time
	IsWorkday    bool // weekend designated as working
	DeductsLeave bool // off work but still consumes allowance
}
