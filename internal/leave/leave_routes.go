package leave

import (
	"muni-hris/internal/middleware"
	"muni-hris/internal/rbac"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware(), middleware.RateLimitByEmployee(rate.Limit(10), 20))
	{
		// employee self-service
		leaves.POST("", handler.Submit)
		leaves.GET("/me", handler.ListMine)
		leaves.GET("/me/balance", handler.MyBalance)
		leaves.GET("/:id", handler.GetByID)
		leaves.POST("/:id/cancel", handler.SelfCancel)
		leaves.POST("/:id/cancellation-request", handler.RequestCancellation)

		// approver actions
		approve := middleware.RBACAuthorize(rbacService, "leave", "approve")
		leaves.GET("", approve, handler.List)
		leaves.POST("/:id/approve", approve, handler.Approve)
		leaves.POST("/:id/reject", approve, handler.Reject)
		leaves.POST("/:id/cancellation-approve", approve, handler.ApproveCancellation)
		leaves.POST("/:id/cancellation-reject", approve, handler.RejectCancellation)

		read := middleware.RBACAuthorize(rbacService, "leave", "read")
		leaves.GET("/balances/:employeeId", read, handler.EmployeeBalance)
		leaves.GET("/ledger/:employeeId", read, handler.EmployeeLedger)
	}

	admin := r.Group("/admin/leaves")
	admin.Use(middleware.AuthMiddleware(), middleware.RBACAuthorize(rbacService, "leave", "manage"))
	{
		admin.POST("/grants/:year", handler.AnnualGrant)
		admin.GET("/grants/:year/preview", handler.PreviewAnnualGrant)
		admin.POST("/expirations/:year", handler.ExpireYear)
		admin.POST("/bulk-approve", handler.BulkApprove)
		admin.POST("/adjustments", handler.ManualAdjustment)
		admin.POST("/initial-grants/:employeeId", handler.InitialMonthlyGrant)
		admin.GET("/reconcile/:employeeId/:year", handler.Reconcile)
	}
}
