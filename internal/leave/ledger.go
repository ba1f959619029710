package leave

import (
	"context"
	"errors"
	"slices"

	"muni-hris/internal/audit"
	"muni-hris/internal/events"
	leaveerrors "muni-hris/internal/leave/errors"
	"muni-hris/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SystemActor marks ledger transactions initiated by scheduled or bulk jobs
// rather than a signed-in user.
const SystemActor = "system"

var grantKinds = []string{TxnGrantBase, TxnGrantSeniority, TxnGrantMonthly}

// YearBalance is one row of an employee's balance breakdown.
type YearBalance struct {
	GrantYear    int
	GrantedTotal decimal.Decimal
	UsedTotal    decimal.Decimal
	Balance      decimal.Decimal
}

// Ledger owns every balance mutation. Each operation locks the entitlement
// row, appends an immutable transaction and updates the materialized totals
// in one database transaction, so concurrent submissions for the same
// employee-year serialize on the row lock.
type Ledger interface {
	// WithTx returns a ledger enlisted in the caller's transaction; its
	// operations then commit or roll back with the caller.
	WithTx(tx *gorm.DB) Ledger

	Grant(ctx context.Context, employeeID string, year int, kind string, amount decimal.Decimal, reason, actorID string) error
	Consume(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error
	Restore(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error
	Adjust(ctx context.Context, employeeID string, year *int, amount decimal.Decimal, reason, actorID string) error
	Expire(ctx context.Context, employeeID string, year int, reason, actorID string) (decimal.Decimal, error)

	Breakdown(ctx context.Context, employeeID string) ([]YearBalance, error)
	Transactions(ctx context.Context, employeeID string, year *int) ([]LedgerTransaction, error)
	// Verify reconciles the transaction sum against the materialized totals.
	Verify(ctx context.Context, employeeID string, year int) error
}

type ledger struct {
	db       *gorm.DB // nil when enlisted in an outer transaction
	repo     Repository
	audit    audit.Recorder
	logger   *zap.Logger
	enlisted bool
}

func NewLedger(db *gorm.DB, repo Repository, recorder audit.Recorder, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("leave.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.ledger")
	}
	return &ledger{db: db, repo: repo, audit: recorder, logger: l}
}

func (s *ledger) WithTx(tx *gorm.DB) Ledger {
	return &ledger{
		repo:     s.repo.WithTx(tx),
		audit:    s.audit.WithTx(tx),
		logger:   s.logger,
		enlisted: true,
	}
}

// runInTx executes fn against a transaction-bound ledger. When the receiver
// is already enlisted, fn joins the outer transaction instead of opening its
// own.
func (s *ledger) runInTx(ctx context.Context, fn func(q *ledger) error) error {
	if s.enlisted {
		return fn(s)
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := fn(s.WithTx(tx).(*ledger)); err != nil {
		return err
	}
	return tx.Commit().Error
}

// lockEntitlement locks the employee-year row, creating it first if this is
// the year's first transaction. The insert participates in the surrounding
// transaction, so a later rollback removes it again.
func (q *ledger) lockEntitlement(ctx context.Context, employeeID string, year int) (*Entitlement, error) {
	ent, err := q.repo.FindEntitlementForUpdate(ctx, employeeID, year)
	if err == nil {
		return ent, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	empID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, apperror.InvalidField("employee_id")
	}
	ent = &Entitlement{
		ID:           uuid.New(),
		EmployeeID:   empID,
		GrantYear:    year,
		GrantedTotal: decimal.Zero,
		UsedTotal:    decimal.Zero,
	}
	if err := q.repo.CreateEntitlement(ctx, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

func (q *ledger) append(ctx context.Context, ent *Entitlement, kind string, amount decimal.Decimal, reason string, requestID *uuid.UUID, actorID string) error {
	txn := &LedgerTransaction{
		ID:              uuid.New(),
		EmployeeID:      ent.EmployeeID,
		GrantYear:       ent.GrantYear,
		Kind:            kind,
		Amount:          amount,
		Reason:          reason,
		LinkedRequestID: requestID,
	}
	if actor, err := uuid.Parse(actorID); err == nil {
		txn.ActorID = &actor
	}
	if err := q.repo.AppendTransaction(ctx, txn); err != nil {
		return err
	}
	return q.repo.UpdateEntitlementTotals(ctx, ent)
}

func (s *ledger) Grant(ctx context.Context, employeeID string, year int, kind string, amount decimal.Decimal, reason, actorID string) error {
	if !slices.Contains(grantKinds, kind) {
		return apperror.InvalidField("kind")
	}
	if !amount.IsPositive() {
		return leaveerrors.ErrInvalidAmount
	}

	err := s.runInTx(ctx, func(q *ledger) error {
		ent, err := q.lockEntitlement(ctx, employeeID, year)
		if err != nil {
			return err
		}

		exists, err := q.repo.GrantExists(ctx, employeeID, year, kind)
		if err != nil {
			return err
		}
		if exists {
			return leaveerrors.ErrDuplicateGrant.WithDetails(map[string]any{
				"grant_year": year,
				"kind":       kind,
			})
		}

		ent.GrantedTotal = ent.GrantedTotal.Add(amount)
		if err := q.append(ctx, ent, kind, amount, reason, nil, actorID); err != nil {
			return err
		}

		q.audit.Record(ctx, events.ActionLedgerGrant, actorID, employeeID, map[string]any{
			"grant_year": year,
			"kind":       kind,
			"amount":     amount.String(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("leave granted",
		zap.String("employee_id", employeeID),
		zap.Int("grant_year", year),
		zap.String("kind", kind),
		zap.String("amount", amount.String()),
	)
	return nil
}

func (s *ledger) Consume(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error {
	if !amount.IsPositive() {
		return leaveerrors.ErrInvalidAmount
	}

	return s.runInTx(ctx, func(q *ledger) error {
		ent, err := q.repo.FindEntitlementForUpdate(ctx, employeeID, year)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return leaveerrors.InsufficientBalance(decimal.Zero, amount)
			}
			return err
		}

		if ent.Balance().LessThan(amount) {
			return leaveerrors.InsufficientBalance(ent.Balance(), amount)
		}

		ent.UsedTotal = ent.UsedTotal.Add(amount)
		if err := q.append(ctx, ent, TxnUse, amount.Neg(), "", &requestID, actorID); err != nil {
			return err
		}

		q.audit.Record(ctx, events.ActionLedgerConsume, actorID, employeeID, map[string]any{
			"grant_year": year,
			"amount":     amount.String(),
			"request_id": requestID.String(),
		})
		return nil
	})
}

func (s *ledger) Restore(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error {
	if !amount.IsPositive() {
		return leaveerrors.ErrInvalidAmount
	}

	return s.runInTx(ctx, func(q *ledger) error {
		ent, err := q.repo.FindEntitlementForUpdate(ctx, employeeID, year)
		if err != nil {
			return err
		}

		if ent.UsedTotal.LessThan(amount) {
			// restoring more than was ever consumed means the ledger and the
			// request history disagree
			return leaveerrors.ErrLedgerCorruption.WithDetails(map[string]any{
				"employee_id": employeeID,
				"grant_year":  year,
				"used_total":  ent.UsedTotal.String(),
				"restore":     amount.String(),
			})
		}

		ent.UsedTotal = ent.UsedTotal.Sub(amount)
		if err := q.append(ctx, ent, TxnCancelUse, amount, "", &requestID, actorID); err != nil {
			return err
		}

		q.audit.Record(ctx, events.ActionLedgerRestore, actorID, employeeID, map[string]any{
			"grant_year": year,
			"amount":     amount.String(),
			"request_id": requestID.String(),
		})
		return nil
	})
}

func (s *ledger) Adjust(ctx context.Context, employeeID string, year *int, amount decimal.Decimal, reason, actorID string) error {
	if reason == "" {
		return leaveerrors.ErrAdjustmentReasonRequired
	}
	if amount.IsZero() {
		return leaveerrors.ErrInvalidAmount
	}
	if amount.IsPositive() && year == nil {
		return leaveerrors.ErrAdjustmentYearRequired
	}

	return s.runInTx(ctx, func(q *ledger) error {
		if amount.IsPositive() {
			ent, err := q.lockEntitlement(ctx, employeeID, *year)
			if err != nil {
				return err
			}
			ent.GrantedTotal = ent.GrantedTotal.Add(amount)
			if err := q.append(ctx, ent, TxnAdjustAdd, amount, reason, nil, actorID); err != nil {
				return err
			}
			q.auditAdjust(ctx, actorID, employeeID, *year, amount, reason)
			return nil
		}

		if year != nil {
			return q.subtract(ctx, employeeID, *year, amount.Neg(), reason, actorID)
		}

		// No year given: drain the oldest balances first until the deduction
		// is covered.
		ents, err := q.repo.FindEntitlementsForUpdate(ctx, employeeID)
		if err != nil {
			return err
		}

		remaining := amount.Neg()
		for i := range ents {
			if remaining.IsZero() {
				break
			}
			balance := ents[i].Balance()
			if !balance.IsPositive() {
				continue
			}
			take := decimal.Min(balance, remaining)
			ents[i].GrantedTotal = ents[i].GrantedTotal.Sub(take)
			if err := q.append(ctx, &ents[i], TxnAdjustSubtract, take.Neg(), reason, nil, actorID); err != nil {
				return err
			}
			q.auditAdjust(ctx, actorID, employeeID, ents[i].GrantYear, take.Neg(), reason)
			remaining = remaining.Sub(take)
		}

		if remaining.IsPositive() {
			return leaveerrors.InsufficientBalance(amount.Neg().Sub(remaining), amount.Neg())
		}
		return nil
	})
}

// subtract removes amount (positive) from a single year's balance.
func (q *ledger) subtract(ctx context.Context, employeeID string, year int, amount decimal.Decimal, reason, actorID string) error {
	ent, err := q.repo.FindEntitlementForUpdate(ctx, employeeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.InsufficientBalance(decimal.Zero, amount)
		}
		return err
	}
	if ent.Balance().LessThan(amount) {
		return leaveerrors.InsufficientBalance(ent.Balance(), amount)
	}

	ent.GrantedTotal = ent.GrantedTotal.Sub(amount)
	if err := q.append(ctx, ent, TxnAdjustSubtract, amount.Neg(), reason, nil, actorID); err != nil {
		return err
	}
	q.auditAdjust(ctx, actorID, employeeID, year, amount.Neg(), reason)
	return nil
}

func (q *ledger) auditAdjust(ctx context.Context, actorID, employeeID string, year int, amount decimal.Decimal, reason string) {
	q.audit.Record(ctx, events.ActionLedgerAdjust, actorID, employeeID, map[string]any{
		"grant_year": year,
		"amount":     amount.String(),
		"reason":     reason,
	})
}

// Expire zeroes the remaining balance of one employee-year and returns the
// amount removed. Expiring an already-empty year is a no-op and appends
// nothing.
func (s *ledger) Expire(ctx context.Context, employeeID string, year int, reason, actorID string) (decimal.Decimal, error) {
	expired := decimal.Zero

	err := s.runInTx(ctx, func(q *ledger) error {
		ent, err := q.repo.FindEntitlementForUpdate(ctx, employeeID, year)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		balance := ent.Balance()
		if !balance.IsPositive() {
			return nil
		}

		ent.GrantedTotal = ent.GrantedTotal.Sub(balance)
		if err := q.append(ctx, ent, TxnExpire, balance.Neg(), reason, nil, actorID); err != nil {
			return err
		}

		expired = balance
		q.audit.Record(ctx, events.ActionLedgerExpire, actorID, employeeID, map[string]any{
			"grant_year": year,
			"amount":     balance.String(),
		})
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return expired, nil
}

func (s *ledger) Breakdown(ctx context.Context, employeeID string) ([]YearBalance, error) {
	ents, err := s.repo.ListEntitlements(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	breakdown := make([]YearBalance, len(ents))
	for i, ent := range ents {
		breakdown[i] = YearBalance{
			GrantYear:    ent.GrantYear,
			GrantedTotal: ent.GrantedTotal,
			UsedTotal:    ent.UsedTotal,
			Balance:      ent.Balance(),
		}
	}
	return breakdown, nil
}

func (s *ledger) Transactions(ctx context.Context, employeeID string, year *int) ([]LedgerTransaction, error) {
	return s.repo.ListTransactions(ctx, employeeID, year)
}

func (s *ledger) Verify(ctx context.Context, employeeID string, year int) error {
	ent, err := s.repo.FindEntitlement(ctx, employeeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	sum, err := s.repo.SumTransactions(ctx, employeeID, year)
	if err != nil {
		return err
	}

	if !sum.Equal(ent.Balance()) {
		s.logger.Error("ledger reconciliation mismatch",
			zap.String("employee_id", employeeID),
			zap.Int("grant_year", year),
			zap.String("ledger_sum", sum.String()),
			zap.String("materialized", ent.Balance().String()),
		)
		return leaveerrors.LedgerMismatch(employeeID, year, sum, ent.Balance())
	}
	return nil
}
