package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilters narrows approver-facing request listings. A nil
// DepartmentIDs slice means the caller's visibility is unrestricted; an empty
// slice matches nothing.
type RequestFilters struct {
	Status        *string
	EmployeeID    *string
	DepartmentIDs []string
}

type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx *gorm.DB) Repository

	FindEntitlement(ctx context.Context, employeeID string, year int) (*Entitlement, error)
	// FindEntitlementForUpdate takes a row lock; it is the serialization
	// point for every balance mutation of one employee-year.
	FindEntitlementForUpdate(ctx context.Context, employeeID string, year int) (*Entitlement, error)
	// FindEntitlementsForUpdate locks all of an employee's entitlement rows,
	// earliest year first.
	FindEntitlementsForUpdate(ctx context.Context, employeeID string) ([]Entitlement, error)
	CreateEntitlement(ctx context.Context, e *Entitlement) error
	UpdateEntitlementTotals(ctx context.Context, e *Entitlement) error
	ListEntitlements(ctx context.Context, employeeID string) ([]Entitlement, error)

	AppendTransaction(ctx context.Context, txn *LedgerTransaction) error
	GrantExists(ctx context.Context, employeeID string, year int, kind string) (bool, error)
	SumTransactions(ctx context.Context, employeeID string, year int) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, employeeID string, year *int) ([]LedgerTransaction, error)

	CreateRequest(ctx context.Context, req *Request) error
	FindRequestByID(ctx context.Context, id string) (*Request, error)
	FindRequestByIDForUpdate(ctx context.Context, id string) (*Request, error)
	UpdateRequest(ctx context.Context, req *Request) error
	HasOverlappingActiveRequest(ctx context.Context, employeeID string, start, end time.Time) (bool, error)
	FindRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	FindRequestsByFilters(ctx context.Context, filters RequestFilters) ([]Request, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindEntitlement(ctx context.Context, employeeID string, year int) (*Entitlement, error) {
	var e Entitlement
	err := r.db.WithContext(ctx).
		First(&e, "employee_id = ? AND grant_year = ?", employeeID, year).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindEntitlementForUpdate(ctx context.Context, employeeID string, year int) (*Entitlement, error) {
	var e Entitlement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, "employee_id = ? AND grant_year = ?", employeeID, year).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindEntitlementsForUpdate(ctx context.Context, employeeID string) ([]Entitlement, error) {
	var list []Entitlement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Order("grant_year ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) CreateEntitlement(ctx context.Context, e *Entitlement) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) UpdateEntitlementTotals(ctx context.Context, e *Entitlement) error {
	return r.db.WithContext(ctx).
		Model(&Entitlement{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"granted_total": e.GrantedTotal,
			"used_total":    e.UsedTotal,
		}).Error
}

func (r *repository) ListEntitlements(ctx context.Context, employeeID string) ([]Entitlement, error) {
	var list []Entitlement
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("grant_year ASC").
		Find(&list).Error
	return list, err
}

func (r *repository) AppendTransaction(ctx context.Context, txn *LedgerTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) GrantExists(ctx context.Context, employeeID string, year int, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LedgerTransaction{}).
		Where("employee_id = ? AND grant_year = ? AND kind = ?", employeeID, year, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SumTransactions(ctx context.Context, employeeID string, year int) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&LedgerTransaction{}).
		Select("SUM(amount)").
		Where("employee_id = ? AND grant_year = ?", employeeID, year).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repository) ListTransactions(ctx context.Context, employeeID string, year *int) ([]LedgerTransaction, error) {
	query := r.db.WithContext(ctx).Where("employee_id = ?", employeeID)
	if year != nil {
		query = query.Where("grant_year = ?", *year)
	}

	var txns []LedgerTransaction
	err := query.Order("created_at ASC").Find(&txns).Error
	return txns, err
}

func (r *repository) CreateRequest(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindRequestByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindRequestByIDForUpdate(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) UpdateRequest(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) HasOverlappingActiveRequest(ctx context.Context, employeeID string, start, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", activeStatuses).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error) {
	var reqs []Request
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *repository) FindRequestsByFilters(ctx context.Context, filters RequestFilters) ([]Request, error) {
	query := r.db.WithContext(ctx).Model(&Request{})

	if filters.Status != nil {
		query = query.Where("requests.status = ?", *filters.Status)
	}
	if filters.EmployeeID != nil {
		query = query.Where("requests.employee_id = ?", *filters.EmployeeID)
	}
	if filters.DepartmentIDs != nil {
		query = query.
			Joins("JOIN employees ON employees.id = requests.employee_id").
			Where("employees.department_id IN ?", filters.DepartmentIDs)
	}

	var reqs []Request
	err := query.Order("requests.start_date DESC").Find(&reqs).Error
	return reqs, err
}
