package audit

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Append(ctx context.Context, log *Log) error
	FindByEmployee(ctx context.Context, employeeID string, since time.Time) ([]Log, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, log *Log) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string, since time.Time) ([]Log, error) {
	var logs []Log
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("occurred_at >= ?", since).
		Order("occurred_at DESC").
		Find(&logs).Error
	return logs, err
}
