package department

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*Department, error)
	// SubtreeIDs returns the given department plus all transitive children.
	SubtreeIDs(ctx context.Context, rootID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Department, error) {
	var d Department
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) SubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	query := `
WITH RECURSIVE subtree AS (
	SELECT id FROM departments WHERE id = ? AND deleted_at IS NULL
	UNION ALL
	SELECT d.id FROM departments d
	JOIN subtree s ON d.parent_id = s.id
	WHERE d.deleted_at IS NULL
)
SELECT id::text FROM subtree
`
	var ids []string
	err := r.db.WithContext(ctx).Raw(query, rootID).Scan(&ids).Error
	return ids, err
}
