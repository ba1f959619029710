package leave

import (
	"net/http"
	"slices"
	"strconv"

	"muni-hris/internal/department"
	"muni-hris/internal/employee"
	"muni-hris/internal/shared/apperror"
	"muni-hris/internal/shared/contextutil"
	"muni-hris/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service   Service
	admin     AdminService
	scope     department.ScopeService
	employees employee.Repository
	logger    *zap.Logger
}

func NewHandler(
	service Service,
	admin AdminService,
	scope department.ScopeService,
	employees employee.Repository,
	logger ...*zap.Logger,
) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{
		service:   service,
		admin:     admin,
		scope:     scope,
		employees: employees,
		logger:    l,
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	resp, err := h.service.Submit(c.Request.Context(), actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	allowed, err := h.canView(c, resp.EmployeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if !allowed {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	actorID := contextutil.GetActorID(c.Request.Context())
	resp, err := h.service.ListByEmployee(c.Request.Context(), actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// List returns requests visible to the actor, optionally filtered by status.
func (h *Handler) List(c *gin.Context) {
	actorID := contextutil.GetActorID(c.Request.Context())
	departmentIDs, err := h.scope.VisibleDepartmentIDs(c.Request.Context(), actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	filters := RequestFilters{DepartmentIDs: departmentIDs}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if employeeID := c.Query("employee_id"); employeeID != "" {
		filters.EmployeeID = &employeeID
	}

	resp, err := h.service.ListRequests(c.Request.Context(), filters)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.Approve(c.Request.Context(), c.Param("id"), actorID)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.Reject(c.Request.Context(), c.Param("id"), actorID, req.Reason)
	})
}

func (h *Handler) RequestCancellation(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.RequestCancellation(c.Request.Context(), c.Param("id"), actorID, req.Reason)
	})
}

func (h *Handler) ApproveCancellation(c *gin.Context) {
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.ApproveCancellation(c.Request.Context(), c.Param("id"), actorID)
	})
}

func (h *Handler) RejectCancellation(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.RejectCancellation(c.Request.Context(), c.Param("id"), actorID, req.Reason)
	})
}

func (h *Handler) SelfCancel(c *gin.Context) {
	h.transition(c, func(actorID string) (RequestResponse, error) {
		return h.service.SelfCancel(c.Request.Context(), c.Param("id"), actorID)
	})
}

func (h *Handler) MyBalance(c *gin.Context) {
	actorID := contextutil.GetActorID(c.Request.Context())
	h.writeBalance(c, actorID)
}

func (h *Handler) EmployeeBalance(c *gin.Context) {
	employeeID := c.Param("employeeId")
	allowed, err := h.canView(c, employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if !allowed {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}
	h.writeBalance(c, employeeID)
}

func (h *Handler) EmployeeLedger(c *gin.Context) {
	employeeID := c.Param("employeeId")
	allowed, err := h.canView(c, employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if !allowed {
		h.writeServiceError(c, apperror.ErrForbidden)
		return
	}

	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			h.writeServiceError(c, apperror.InvalidField("year"))
			return
		}
		year = &y
	}

	resp, err := h.service.LedgerHistory(c.Request.Context(), employeeID, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) AnnualGrant(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	result, err := h.admin.GrantAnnualLeaveForYear(c.Request.Context(), year, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) PreviewAnnualGrant(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	departmentIDs, err := h.scope.VisibleDepartmentIDs(c.Request.Context(), actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	previews, err := h.admin.PreviewAnnualGrant(c.Request.Context(), year, departmentIDs)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, previews, nil)
}

func (h *Handler) ExpireYear(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	result, err := h.admin.ExpireForYear(c.Request.Context(), year, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) BulkApprove(c *gin.Context) {
	var req BulkApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	result, err := h.admin.BulkApprove(c.Request.Context(), req.RequestIDs, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result, nil)
}

func (h *Handler) ManualAdjustment(c *gin.Context) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	actorID := contextutil.GetActorID(c.Request.Context())
	if err := h.admin.ManualAdjustment(c.Request.Context(), req, actorID); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"adjusted": true}, nil)
}

func (h *Handler) Reconcile(c *gin.Context) {
	year, ok := h.yearParam(c)
	if !ok {
		return
	}

	if err := h.admin.Reconcile(c.Request.Context(), c.Param("employeeId"), year); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"consistent": true}, nil)
}

func (h *Handler) InitialMonthlyGrant(c *gin.Context) {
	actorID := contextutil.GetActorID(c.Request.Context())
	err := h.admin.GrantInitialMonthlyLeave(c.Request.Context(), c.Param("employeeId"), actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"granted": true}, nil)
}

func (h *Handler) writeBalance(c *gin.Context, employeeID string) {
	resp, err := h.service.BalanceBreakdown(c.Request.Context(), employeeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) transition(c *gin.Context, fn func(actorID string) (RequestResponse, error)) {
	actorID := contextutil.GetActorID(c.Request.Context())
	resp, err := fn(actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

// canView reports whether the actor may read the employee's leave data: own
// records always, others only inside the actor's visible departments.
func (h *Handler) canView(c *gin.Context, employeeID string) (bool, error) {
	ctx := c.Request.Context()
	actorID := contextutil.GetActorID(ctx)
	if actorID == employeeID {
		return true, nil
	}

	departmentIDs, err := h.scope.VisibleDepartmentIDs(ctx, actorID)
	if err != nil {
		return false, err
	}
	if departmentIDs == nil {
		return true, nil
	}
	if len(departmentIDs) == 0 {
		return false, nil
	}

	emp, err := h.employees.FindByID(ctx, employeeID)
	if err != nil {
		return false, err
	}
	if emp.DepartmentID == nil {
		return false, nil
	}
	return slices.Contains(departmentIDs, emp.DepartmentID.String()), nil
}

func (h *Handler) yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2200 {
		h.writeServiceError(c, apperror.InvalidField("year"))
		return 0, false
	}
	return year, true
}
