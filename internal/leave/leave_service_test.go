package leave_test

import (
	"context"
	"testing"
	"time"

	"muni-hris/internal/employee"
	"muni-hris/internal/leave"
	leaveerrors "muni-hris/internal/leave/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeEmployeeRepository struct {
	findAllActiveFn              func(ctx context.Context) ([]employee.Employee, error)
	findAllActiveByDepartmentsFn func(ctx context.Context, departmentIDs []string) ([]employee.Employee, error)
	findByIDFn                   func(ctx context.Context, id string) (*employee.Employee, error)
}

func (f *fakeEmployeeRepository) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	if f.findAllActiveFn != nil {
		return f.findAllActiveFn(ctx)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindAllActiveByDepartments(ctx context.Context, departmentIDs []string) ([]employee.Employee, error) {
	if f.findAllActiveByDepartmentsFn != nil {
		return f.findAllActiveByDepartmentsFn(ctx, departmentIDs)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeLedger struct {
	grantFn        func(ctx context.Context, employeeID string, year int, kind string, amount decimal.Decimal, reason, actorID string) error
	consumeFn      func(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error
	restoreFn      func(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error
	adjustFn       func(ctx context.Context, employeeID string, year *int, amount decimal.Decimal, reason, actorID string) error
	expireFn       func(ctx context.Context, employeeID string, year int, reason, actorID string) (decimal.Decimal, error)
	breakdownFn    func(ctx context.Context, employeeID string) ([]leave.YearBalance, error)
	transactionsFn func(ctx context.Context, employeeID string, year *int) ([]leave.LedgerTransaction, error)
}

func (f *fakeLedger) WithTx(_ *gorm.DB) leave.Ledger { return f }

func (f *fakeLedger) Grant(ctx context.Context, employeeID string, year int, kind string, amount decimal.Decimal, reason, actorID string) error {
	if f.grantFn != nil {
		return f.grantFn(ctx, employeeID, year, kind, amount, reason, actorID)
	}
	return nil
}

func (f *fakeLedger) Consume(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, employeeID, year, amount, requestID, actorID)
	}
	return nil
}

func (f *fakeLedger) Restore(ctx context.Context, employeeID string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error {
	if f.restoreFn != nil {
		return f.restoreFn(ctx, employeeID, year, amount, requestID, actorID)
	}
	return nil
}

func (f *fakeLedger) Adjust(ctx context.Context, employeeID string, year *int, amount decimal.Decimal, reason, actorID string) error {
	if f.adjustFn != nil {
		return f.adjustFn(ctx, employeeID, year, amount, reason, actorID)
	}
	return nil
}

func (f *fakeLedger) Expire(ctx context.Context, employeeID string, year int, reason, actorID string) (decimal.Decimal, error) {
	if f.expireFn != nil {
		return f.expireFn(ctx, employeeID, year, reason, actorID)
	}
	return decimal.Zero, nil
}

func (f *fakeLedger) Breakdown(ctx context.Context, employeeID string) ([]leave.YearBalance, error) {
	if f.breakdownFn != nil {
		return f.breakdownFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLedger) Transactions(ctx context.Context, employeeID string, year *int) ([]leave.LedgerTransaction, error) {
	if f.transactionsFn != nil {
		return f.transactionsFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeLedger) Verify(_ context.Context, _ string, _ int) error { return nil }

type workflowDeps struct {
	deps      *ledgerDeps
	employees *fakeEmployeeRepository
	ledger    *fakeLedger
	service   leave.Service
}

func setupWorkflowTest(t *testing.T) *workflowDeps {
	t.Helper()

	gdb, mock, db := newGormMock(t)
	repo := &fakeLeaveRepository{}
	recorder := &fakeRecorder{}
	employees := &fakeEmployeeRepository{}
	ledger := &fakeLedger{}
	counter := leave.NewDayCounter(&fakeCalendar{})

	return &workflowDeps{
		deps: &ledgerDeps{
			db:       db,
			sqlMock:  mock,
			repo:     repo,
			recorder: recorder,
		},
		employees: employees,
		ledger:    ledger,
		service:   leave.NewService(gdb, repo, ledger, employees, counter, recorder),
	}
}

func pendingRequest(employeeID string) *leave.Request {
	return &leave.Request{
		ID:         uuid.New(),
		EmployeeID: uuid.MustParse(employeeID),
		StartDate:  date("2030-06-03"),
		EndDate:    date("2030-06-07"),
		LeaveKind:  leave.KindFullDay,
		DayCount:   decimal.NewFromInt(5),
		Status:     leave.StatusPending,
	}
}

func TestWorkflow_Submit(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	activeEmployee := func(_ context.Context, id string) (*employee.Employee, error) {
		return &employee.Employee{ID: uuid.MustParse(id), FullName: "Kim Jiyoung", Active: true}, nil
	}

	t.Run("success", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		w.employees.findByIDFn = activeEmployee
		w.deps.repo.findEntitlementForUpdateFn = func(_ context.Context, _ string, year int) (*leave.Entitlement, error) {
			assert.Equal(t, 2030, year)
			return entitlement(employeeID, 2030, "15", "0"), nil
		}
		var created *leave.Request
		w.deps.repo.createRequestFn = func(_ context.Context, req *leave.Request) error {
			created = req
			return nil
		}

		resp, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2030-06-03",
			EndDate:   "2030-06-07",
			Reason:    "family trip",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "5", resp.DayCount)
		assert.Equal(t, leave.StatusPending, created.Status)
		assert.Len(t, w.deps.recorder.records, 1)
		assert.Equal(t, "leave.request.submitted", w.deps.recorder.records[0].action)
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		w.employees.findByIDFn = activeEmployee
		w.deps.repo.findEntitlementForUpdateFn = func(_ context.Context, _ string, _ int) (*leave.Entitlement, error) {
			return entitlement(employeeID, 2030, "15", "12"), nil
		}

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2030-06-03",
			EndDate:   "2030-06-07",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	})

	t.Run("negative overlapping request", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		w.employees.findByIDFn = activeEmployee
		w.deps.repo.findEntitlementForUpdateFn = func(_ context.Context, _ string, _ int) (*leave.Entitlement, error) {
			return entitlement(employeeID, 2030, "15", "0"), nil
		}
		w.deps.repo.hasOverlappingFn = func(_ context.Context, _ string, _, _ time.Time) (bool, error) {
			return true, nil
		}

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2030-06-03",
			EndDate:   "2030-06-07",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrOverlappingRequest)
	})

	t.Run("negative start date in the past", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2020-01-06",
			EndDate:   "2020-01-07",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrPastStartDate)
	})

	t.Run("negative half day across multiple dates", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()

		w.employees.findByIDFn = activeEmployee

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2030-06-03",
			EndDate:   "2030-06-04",
			LeaveKind: leave.KindHalfDay,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrHalfDayMultiDay)
	})

	t.Run("negative malformed date", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "06/03/2030",
			EndDate:   "2030-06-07",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative range spanning calendar years", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()

		w.deps.repo.createRequestFn = func(_ context.Context, _ *leave.Request) error {
			t.Fatal("a request crossing January 1 must not be persisted")
			return nil
		}

		_, err := w.service.Submit(ctx, employeeID, leave.SubmitRequest{
			StartDate: "2030-12-30",
			EndDate:   "2031-01-03",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrCrossYearRange)
	})
}

func TestWorkflow_Approve(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	approverID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := pendingRequest(employeeID)
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		var consumed decimal.Decimal
		w.ledger.consumeFn = func(_ context.Context, eid string, year int, amount decimal.Decimal, requestID uuid.UUID, actorID string) error {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, 2030, year)
			assert.Equal(t, req.ID, requestID)
			assert.Equal(t, approverID, actorID)
			consumed = amount
			return nil
		}

		resp, err := w.service.Approve(ctx, req.ID.String(), approverID)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, "5", consumed.String())
		assert.Equal(t, approverID, *resp.ApproverID)
	})

	t.Run("negative already approved", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		req := pendingRequest(employeeID)
		req.Status = leave.StatusApproved
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		_, err := w.service.Approve(ctx, req.ID.String(), approverID)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStateTransition)
		assert.ErrorContains(t, err, "approved")
		assert.ErrorContains(t, err, "expected pending")
	})

	t.Run("negative insufficient balance leaves request pending", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		req := pendingRequest(employeeID)
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}
		w.ledger.consumeFn = func(_ context.Context, _ string, _ int, amount decimal.Decimal, _ uuid.UUID, _ string) error {
			return leaveerrors.InsufficientBalance(decimal.NewFromInt(2), amount)
		}
		w.deps.repo.updateRequestFn = func(_ context.Context, _ *leave.Request) error {
			t.Fatal("request must not be updated when the ledger rejects")
			return nil
		}

		_, err := w.service.Approve(ctx, req.ID.String(), approverID)

		assert.ErrorIs(t, err, leaveerrors.ErrInsufficientBalance)
	})

	t.Run("negative request not found", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		_, err := w.service.Approve(ctx, uuid.New().String(), approverID)

		assert.ErrorIs(t, err, leaveerrors.ErrRequestNotFound)
	})
}

func TestWorkflow_Reject(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	approverID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := pendingRequest(employeeID)
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		resp, err := w.service.Reject(ctx, req.ID.String(), approverID, "staffing shortage")

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Equal(t, "staffing shortage", *resp.DecisionReason)
	})

	t.Run("negative missing reason", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()

		_, err := w.service.Reject(ctx, uuid.New().String(), approverID, "")

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
	})
}

func TestWorkflow_Cancellation(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	approverID := uuid.New().String()

	approvedRequest := func() *leave.Request {
		req := pendingRequest(employeeID)
		req.Status = leave.StatusApproved
		return req
	}

	t.Run("request cancellation success", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := approvedRequest()
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		resp, err := w.service.RequestCancellation(ctx, req.ID.String(), employeeID, "plans changed")

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancellationRequested, resp.Status)
	})

	t.Run("negative cancellation by another employee", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		req := approvedRequest()
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		_, err := w.service.RequestCancellation(ctx, req.ID.String(), uuid.New().String(), "plans changed")

		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	})

	t.Run("negative cancellation of pending request", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		req := pendingRequest(employeeID)
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		_, err := w.service.RequestCancellation(ctx, req.ID.String(), employeeID, "plans changed")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStateTransition)
	})

	t.Run("approve cancellation restores the balance", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := approvedRequest()
		req.Status = leave.StatusCancellationRequested
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		var restored decimal.Decimal
		w.ledger.restoreFn = func(_ context.Context, _ string, _ int, amount decimal.Decimal, _ uuid.UUID, _ string) error {
			restored = amount
			return nil
		}

		resp, err := w.service.ApproveCancellation(ctx, req.ID.String(), approverID)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.Equal(t, "5", restored.String())
	})

	t.Run("reject cancellation keeps the leave approved", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := approvedRequest()
		req.Status = leave.StatusCancellationRequested
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}
		w.ledger.restoreFn = func(_ context.Context, _ string, _ int, _ decimal.Decimal, _ uuid.UUID, _ string) error {
			t.Fatal("no balance must move on a rejected cancellation")
			return nil
		}

		resp, err := w.service.RejectCancellation(ctx, req.ID.String(), approverID, "critical period")

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
	})

	t.Run("self cancel pending request", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, true)

		req := pendingRequest(employeeID)
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		resp, err := w.service.SelfCancel(ctx, req.ID.String(), employeeID)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
	})

	t.Run("negative self cancel of approved request", func(t *testing.T) {
		w := setupWorkflowTest(t)
		defer w.deps.db.Close()
		expectTx(t, w.deps.sqlMock, false)

		req := approvedRequest()
		w.deps.repo.findRequestByIDForUpdateFn = func(_ context.Context, _ string) (*leave.Request, error) {
			return req, nil
		}

		_, err := w.service.SelfCancel(ctx, req.ID.String(), employeeID)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStateTransition)
	})
}
