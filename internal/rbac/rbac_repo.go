package rbac

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	GetEmployeeRoles(ctx context.Context) ([]EmployeeRole, error)
	GetRolePermissions(ctx context.Context) ([]RolePermission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEmployeeRoles(ctx context.Context) ([]EmployeeRole, error) {
	var roles []EmployeeRole
	err := r.db.WithContext(ctx).Find(&roles).Error
	return roles, err
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermission, error) {
	var perms []RolePermission
	err := r.db.WithContext(ctx).Find(&perms).Error
	return perms, err
}
