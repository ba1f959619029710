package leave

import (
	"context"
	"errors"
	"time"

	"muni-hris/internal/audit"
	"muni-hris/internal/employee"
	"muni-hris/internal/events"
	leaveerrors "muni-hris/internal/leave/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service drives the request workflow. Every transition locks the request
// row, checks the current status, applies the ledger effect and updates the
// request in one transaction.
type Service interface {
	Submit(ctx context.Context, employeeID string, req SubmitRequest) (RequestResponse, error)
	Approve(ctx context.Context, requestID, approverID string) (RequestResponse, error)
	Reject(ctx context.Context, requestID, approverID, reason string) (RequestResponse, error)
	RequestCancellation(ctx context.Context, requestID, employeeID, reason string) (RequestResponse, error)
	ApproveCancellation(ctx context.Context, requestID, approverID string) (RequestResponse, error)
	RejectCancellation(ctx context.Context, requestID, approverID, reason string) (RequestResponse, error)
	SelfCancel(ctx context.Context, requestID, employeeID string) (RequestResponse, error)

	GetByID(ctx context.Context, requestID string) (RequestResponse, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]RequestResponse, error)
	ListRequests(ctx context.Context, filters RequestFilters) ([]RequestResponse, error)
	BalanceBreakdown(ctx context.Context, employeeID string) ([]YearBalanceResponse, error)
	LedgerHistory(ctx context.Context, employeeID string, year *int) ([]TransactionResponse, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	ledger    Ledger
	employees employee.Repository
	counter   *DayCounter
	audit     audit.Recorder
	logger    *zap.Logger
}

func NewService(
	db *gorm.DB,
	repo Repository,
	ledger Ledger,
	employees employee.Repository,
	counter *DayCounter,
	recorder audit.Recorder,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		employees: employees,
		counter:   counter,
		audit:     recorder,
		logger:    l,
	}
}

func (s *service) Submit(ctx context.Context, employeeID string, req SubmitRequest) (RequestResponse, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return RequestResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return RequestResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	if end.Before(start) {
		return RequestResponse{}, leaveerrors.ErrInvalidDateRange
	}
	// a request consumes from exactly one grant year, so ranges crossing
	// January 1 must be split by the employee
	if start.Year() != end.Year() {
		return RequestResponse{}, leaveerrors.ErrCrossYearRange
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if start.Before(today) {
		return RequestResponse{}, leaveerrors.ErrPastStartDate
	}

	kind := req.LeaveKind
	if kind == "" {
		kind = KindFullDay
	}

	emp, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaveerrors.ErrEmployeeNotFound
		}
		return RequestResponse{}, err
	}

	var departmentID *string
	if emp.DepartmentID != nil {
		v := emp.DepartmentID.String()
		departmentID = &v
	}

	dayCount, err := s.counter.Count(ctx, start, end, kind, departmentID)
	if err != nil {
		return RequestResponse{}, err
	}
	if dayCount.IsZero() {
		return RequestResponse{}, leaveerrors.ErrNoLeaveDaysInRange
	}

	request := &Request{
		ID:         uuid.New(),
		EmployeeID: emp.ID,
		StartDate:  start,
		EndDate:    end,
		LeaveKind:  kind,
		DayCount:   dayCount,
		Status:     StatusPending,
		Reason:     req.Reason,
	}

	grantYear := start.Year()
	err = s.inTx(ctx, func(tx *gorm.DB, qtx Repository) error {
		// the entitlement row lock serializes concurrent submissions for the
		// same employee-year
		balance := decimal.Zero
		ent, err := qtx.FindEntitlementForUpdate(ctx, employeeID, grantYear)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if ent != nil {
			balance = ent.Balance()
		}

		overlaps, err := qtx.HasOverlappingActiveRequest(ctx, employeeID, start, end)
		if err != nil {
			return err
		}
		if overlaps {
			return leaveerrors.ErrOverlappingRequest
		}

		if balance.LessThan(dayCount) {
			return leaveerrors.InsufficientBalance(balance, dayCount)
		}

		if err := qtx.CreateRequest(ctx, request); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionRequestSubmitted, employeeID, employeeID, map[string]any{
			"request_id": request.ID.String(),
			"start_date": req.StartDate,
			"end_date":   req.EndDate,
			"day_count":  dayCount.String(),
		})
		return nil
	})
	if err != nil {
		return RequestResponse{}, err
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("employee_id", employeeID),
		zap.String("day_count", dayCount.String()),
	)
	return mapRequestToResponse(*request), nil
}

func (s *service) Approve(ctx context.Context, requestID, approverID string) (RequestResponse, error) {
	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.Status != StatusPending {
			return leaveerrors.InvalidTransition(req.Status, StatusPending)
		}

		err := s.ledger.WithTx(tx).Consume(
			ctx, req.EmployeeID.String(), req.StartDate.Year(), req.DayCount, req.ID, approverID,
		)
		if err != nil {
			return err
		}

		s.decide(req, StatusApproved, approverID, nil)
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionRequestApproved, approverID, req.EmployeeID.String(), map[string]any{
			"request_id": req.ID.String(),
			"day_count":  req.DayCount.String(),
		})
		return nil
	})
}

func (s *service) Reject(ctx context.Context, requestID, approverID, reason string) (RequestResponse, error) {
	if reason == "" {
		return RequestResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.Status != StatusPending {
			return leaveerrors.InvalidTransition(req.Status, StatusPending)
		}

		s.decide(req, StatusRejected, approverID, &reason)
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionRequestRejected, approverID, req.EmployeeID.String(), map[string]any{
			"request_id": req.ID.String(),
			"reason":     reason,
		})
		return nil
	})
}

func (s *service) RequestCancellation(ctx context.Context, requestID, employeeID, reason string) (RequestResponse, error) {
	if reason == "" {
		return RequestResponse{}, leaveerrors.ErrCancellationReasonRequired
	}

	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.EmployeeID.String() != employeeID {
			return leaveerrors.ErrNotRequestOwner
		}
		if req.Status != StatusApproved {
			return leaveerrors.InvalidTransition(req.Status, StatusApproved)
		}

		req.Status = StatusCancellationRequested
		req.DecisionReason = &reason
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionCancellationRequested, employeeID, employeeID, map[string]any{
			"request_id": req.ID.String(),
			"reason":     reason,
		})
		return nil
	})
}

func (s *service) ApproveCancellation(ctx context.Context, requestID, approverID string) (RequestResponse, error) {
	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.Status != StatusCancellationRequested {
			return leaveerrors.InvalidTransition(req.Status, StatusCancellationRequested)
		}

		err := s.ledger.WithTx(tx).Restore(
			ctx, req.EmployeeID.String(), req.StartDate.Year(), req.DayCount, req.ID, approverID,
		)
		if err != nil {
			return err
		}

		s.decide(req, StatusCancelled, approverID, req.DecisionReason)
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionCancellationApproved, approverID, req.EmployeeID.String(), map[string]any{
			"request_id": req.ID.String(),
			"day_count":  req.DayCount.String(),
		})
		return nil
	})
}

func (s *service) RejectCancellation(ctx context.Context, requestID, approverID, reason string) (RequestResponse, error) {
	if reason == "" {
		return RequestResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.Status != StatusCancellationRequested {
			return leaveerrors.InvalidTransition(req.Status, StatusCancellationRequested)
		}

		// the leave stays approved and consumed
		s.decide(req, StatusApproved, approverID, &reason)
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionCancellationRejected, approverID, req.EmployeeID.String(), map[string]any{
			"request_id": req.ID.String(),
			"reason":     reason,
		})
		return nil
	})
}

func (s *service) SelfCancel(ctx context.Context, requestID, employeeID string) (RequestResponse, error) {
	return s.transition(ctx, requestID, func(tx *gorm.DB, qtx Repository, req *Request) error {
		if req.EmployeeID.String() != employeeID {
			return leaveerrors.ErrNotRequestOwner
		}
		if req.Status != StatusPending {
			return leaveerrors.InvalidTransition(req.Status, StatusPending)
		}

		req.Status = StatusCancelled
		if err := qtx.UpdateRequest(ctx, req); err != nil {
			return err
		}

		s.audit.WithTx(tx).Record(ctx, events.ActionRequestSelfCancelled, employeeID, employeeID, map[string]any{
			"request_id": req.ID.String(),
		})
		return nil
	})
}

func (s *service) GetByID(ctx context.Context, requestID string) (RequestResponse, error) {
	req, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaveerrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	return mapRequestToResponse(*req), nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID string) ([]RequestResponse, error) {
	reqs, err := s.repo.FindRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapRequests(reqs), nil
}

func (s *service) ListRequests(ctx context.Context, filters RequestFilters) ([]RequestResponse, error) {
	if filters.DepartmentIDs != nil && len(filters.DepartmentIDs) == 0 {
		return []RequestResponse{}, nil
	}
	reqs, err := s.repo.FindRequestsByFilters(ctx, filters)
	if err != nil {
		return nil, err
	}
	return mapRequests(reqs), nil
}

func (s *service) BalanceBreakdown(ctx context.Context, employeeID string) ([]YearBalanceResponse, error) {
	breakdown, err := s.ledger.Breakdown(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapBreakdownToResponse(breakdown), nil
}

func (s *service) LedgerHistory(ctx context.Context, employeeID string, year *int) ([]TransactionResponse, error) {
	txns, err := s.ledger.Transactions(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	resp := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		resp[i] = mapTransactionToResponse(txn)
	}
	return resp, nil
}

// transition loads and locks the request, applies fn inside a transaction
// and returns the updated request.
func (s *service) transition(
	ctx context.Context,
	requestID string,
	fn func(tx *gorm.DB, qtx Repository, req *Request) error,
) (RequestResponse, error) {
	var updated Request

	err := s.inTx(ctx, func(tx *gorm.DB, qtx Repository) error {
		req, err := qtx.FindRequestByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return leaveerrors.ErrRequestNotFound
			}
			return err
		}
		if err := fn(tx, qtx, req); err != nil {
			return err
		}
		updated = *req
		return nil
	})
	if err != nil {
		return RequestResponse{}, err
	}

	s.logger.Info("leave request transitioned",
		zap.String("request_id", updated.ID.String()),
		zap.String("status", updated.Status),
	)
	return mapRequestToResponse(updated), nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB, qtx Repository) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := fn(tx, s.repo.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit().Error
}

func (s *service) decide(req *Request, status, approverID string, reason *string) {
	now := time.Now().UTC()
	req.Status = status
	req.DecidedAt = &now
	req.DecisionReason = reason
	if actor, err := uuid.Parse(approverID); err == nil {
		req.ApproverID = &actor
	}
}

func mapRequests(reqs []Request) []RequestResponse {
	resp := make([]RequestResponse, len(reqs))
	for i, req := range reqs {
		resp[i] = mapRequestToResponse(req)
	}
	return resp
}
