package holiday

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, h *Holiday) error
	Update(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Holiday, error)
	FindAll(ctx context.Context, departmentIDs []string) ([]Holiday, error)
	// FindForDateRange returns department-specific rows for the given
	// department plus global rows (department_id IS NULL), date ascending.
	FindForDateRange(ctx context.Context, start, end time.Time, departmentID *string) ([]Holiday, error)
	ExistsOnDate(ctx context.Context, date time.Time, departmentID *string, excludeID *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, h *Holiday) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *repository) Update(ctx context.Context, h *Holiday) error {
	return r.db.WithContext(ctx).Save(h).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Holiday{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Holiday, error) {
	var h Holiday
	err := r.db.WithContext(ctx).First(&h, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *repository) FindAll(ctx context.Context, departmentIDs []string) ([]Holiday, error) {
	db := r.db.WithContext(ctx).Model(&Holiday{})
	if departmentIDs != nil {
		db = db.Where("department_id IS NULL OR department_id IN ?", departmentIDs)
	}

	var holidays []Holiday
	err := db.Order("date ASC").Find(&holidays).Error
	return holidays, err
}

func (r *repository) FindForDateRange(ctx context.Context, start, end time.Time, departmentID *string) ([]Holiday, error) {
	db := r.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", start, end)

	if departmentID != nil {
		db = db.Where("department_id IS NULL OR department_id = ?", *departmentID)
	} else {
		db = db.Where("department_id IS NULL")
	}

	var holidays []Holiday
	err := db.Order("date ASC").Find(&holidays).Error
	return holidays, err
}

func (r *repository) ExistsOnDate(ctx context.Context, date time.Time, departmentID *string, excludeID *string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&Holiday{}).
		Where("date = ?", date)

	if departmentID != nil {
		db = db.Where("department_id = ?", *departmentID)
	} else {
		db = db.Where("department_id IS NULL")
	}
	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}
