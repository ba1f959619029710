package employee

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindAllActive(ctx context.Context) ([]Employee, error)
	FindAllActiveByDepartments(ctx context.Context, departmentIDs []string) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAllActive(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindAllActiveByDepartments(ctx context.Context, departmentIDs []string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("department_id IN ?", departmentIDs).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
