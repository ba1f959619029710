package leave

import (
	"context"
	"errors"
	"fmt"

	"muni-hris/internal/employee"
	leaveerrors "muni-hris/internal/leave/errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BulkResult reports a bulk operation without aborting on individual
// failures: one employee's bad record never blocks the rest of the run.
type BulkResult struct {
	SuccessCount int           `json:"success_count"`
	Failures     []BulkFailure `json:"failures"`
}

type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// GrantPreview shows what an annual grant run would credit one employee,
// without writing anything.
type GrantPreview struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Base       string `json:"base"`
	Seniority  string `json:"seniority"`
	Monthly    string `json:"monthly"`
	Total      string `json:"total"`
}

// AdminService bundles the year-end batch operations run by HR staff.
type AdminService interface {
	// GrantAnnualLeaveForYear credits every active employee's entitlement
	// for the year. Safe to re-run: grants already on the ledger are skipped.
	GrantAnnualLeaveForYear(ctx context.Context, year int, actorID string) (BulkResult, error)
	PreviewAnnualGrant(ctx context.Context, year int, departmentIDs []string) ([]GrantPreview, error)
	// ExpireForYear zeroes every remaining balance of the year.
	ExpireForYear(ctx context.Context, year int, actorID string) (BulkResult, error)
	BulkApprove(ctx context.Context, requestIDs []string, approverID string) (BulkResult, error)
	// GrantInitialMonthlyLeave credits a new hire's monthly accrual for the
	// hire year, typically triggered at onboarding.
	GrantInitialMonthlyLeave(ctx context.Context, employeeID, actorID string) error
	ManualAdjustment(ctx context.Context, req AdjustmentRequest, actorID string) error
	// Reconcile cross-checks one employee-year's ledger against its
	// materialized totals.
	Reconcile(ctx context.Context, employeeID string, year int) error
}

type adminService struct {
	ledger    Ledger
	workflow  Service
	employees employee.Repository
	logger    *zap.Logger
}

func NewAdminService(
	ledger Ledger,
	workflow Service,
	employees employee.Repository,
	logger ...*zap.Logger,
) AdminService {
	l := zap.L().Named("leave.admin")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.admin")
	}
	return &adminService{
		ledger:    ledger,
		workflow:  workflow,
		employees: employees,
		logger:    l,
	}
}

func (s *adminService) GrantAnnualLeaveForYear(ctx context.Context, year int, actorID string) (BulkResult, error) {
	employees, err := s.employees.FindAllActive(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{Failures: []BulkFailure{}}
	reason := fmt.Sprintf("annual grant %d", year)

	for _, emp := range employees {
		if emp.HireDate == nil {
			result.Failures = append(result.Failures, BulkFailure{
				ID:    emp.ID.String(),
				Error: leaveerrors.ErrMissingHireDate.Message,
			})
			continue
		}

		accrual := CalculateEntitlement(*emp.HireDate, year)
		if accrual.IsZero() {
			continue
		}

		if err := s.grantComponents(ctx, emp.ID.String(), year, accrual, reason, actorID); err != nil {
			result.Failures = append(result.Failures, BulkFailure{
				ID:    emp.ID.String(),
				Error: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("annual grant run finished",
		zap.Int("grant_year", year),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// grantComponents credits each non-zero accrual component, tolerating grants
// that already exist so the whole run stays idempotent.
func (s *adminService) grantComponents(ctx context.Context, employeeID string, year int, accrual Accrual, reason, actorID string) error {
	components := []struct {
		kind   string
		amount decimal.Decimal
	}{
		{TxnGrantBase, accrual.Base},
		{TxnGrantSeniority, accrual.Seniority},
		{TxnGrantMonthly, accrual.Monthly},
	}

	for _, c := range components {
		if c.amount.IsZero() {
			continue
		}
		err := s.ledger.Grant(ctx, employeeID, year, c.kind, c.amount, reason, actorID)
		if err != nil && !errors.Is(err, leaveerrors.ErrDuplicateGrant) {
			return err
		}
	}
	return nil
}

func (s *adminService) PreviewAnnualGrant(ctx context.Context, year int, departmentIDs []string) ([]GrantPreview, error) {
	var (
		emps []employee.Employee
		err  error
	)
	if departmentIDs == nil {
		emps, err = s.employees.FindAllActive(ctx)
	} else {
		emps, err = s.employees.FindAllActiveByDepartments(ctx, departmentIDs)
	}
	if err != nil {
		return nil, err
	}

	previews := make([]GrantPreview, 0, len(emps))
	for _, emp := range emps {
		if emp.HireDate == nil {
			continue
		}
		accrual := CalculateEntitlement(*emp.HireDate, year)
		previews = append(previews, GrantPreview{
			EmployeeID: emp.ID.String(),
			FullName:   emp.FullName,
			Base:       accrual.Base.String(),
			Seniority:  accrual.Seniority.String(),
			Monthly:    accrual.Monthly.String(),
			Total:      accrual.Total().String(),
		})
	}
	return previews, nil
}

func (s *adminService) ExpireForYear(ctx context.Context, year int, actorID string) (BulkResult, error) {
	employees, err := s.employees.FindAllActive(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{Failures: []BulkFailure{}}
	reason := fmt.Sprintf("year-end expiration %d", year)

	for _, emp := range employees {
		if _, err := s.ledger.Expire(ctx, emp.ID.String(), year, reason, actorID); err != nil {
			result.Failures = append(result.Failures, BulkFailure{
				ID:    emp.ID.String(),
				Error: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("expiration run finished",
		zap.Int("grant_year", year),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

func (s *adminService) BulkApprove(ctx context.Context, requestIDs []string, approverID string) (BulkResult, error) {
	result := BulkResult{Failures: []BulkFailure{}}

	for _, id := range requestIDs {
		if _, err := s.workflow.Approve(ctx, id, approverID); err != nil {
			result.Failures = append(result.Failures, BulkFailure{
				ID:    id,
				Error: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func (s *adminService) GrantInitialMonthlyLeave(ctx context.Context, employeeID, actorID string) error {
	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrEmployeeNotFound
		}
		return err
	}
	if emp.HireDate == nil {
		return leaveerrors.ErrMissingHireDate
	}

	year := emp.HireDate.Year()
	accrual := CalculateEntitlement(*emp.HireDate, year)
	if accrual.Monthly.IsZero() {
		return nil
	}

	reason := fmt.Sprintf("initial monthly accrual %d", year)
	return s.ledger.Grant(ctx, employeeID, year, TxnGrantMonthly, accrual.Monthly, reason, actorID)
}

func (s *adminService) Reconcile(ctx context.Context, employeeID string, year int) error {
	return s.ledger.Verify(ctx, employeeID, year)
}

func (s *adminService) ManualAdjustment(ctx context.Context, req AdjustmentRequest, actorID string) error {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return leaveerrors.ErrInvalidAmount
	}
	return s.ledger.Adjust(ctx, req.EmployeeID, req.GrantYear, amount, req.Reason, actorID)
}
