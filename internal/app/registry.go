package app

import (
	"muni-hris/internal/audit"
	"muni-hris/internal/department"
	"muni-hris/internal/employee"
	"muni-hris/internal/holiday"
	"muni-hris/internal/leave"
	"muni-hris/internal/messaging/kafka"
	"muni-hris/internal/middleware"
	"muni-hris/internal/rbac"
	"muni-hris/internal/rbac/infra"
	"muni-hris/internal/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	db *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(db)
	departmentRepo := department.NewRepository(db)
	employeeRepo := employee.NewRepository(db)
	holidayRepo := holiday.NewRepository(db)
	leaveRepo := leave.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Audit ---
	var recorder audit.Recorder = audit.NewZapRecorder()
	if cfg.KafkaBroker != "" {
		recorder = audit.NewOutboxRecorder(outboxRepo)
	}

	// --- Services ---
	scopeService := department.NewScopeService(departmentRepo, employeeRepo, rbacService)
	holidayService := holiday.NewService(holidayRepo, departmentRepo, rdb)
	dayCounter := leave.NewDayCounter(holidayService)
	ledger := leave.NewLedger(db, leaveRepo, recorder)
	leaveService := leave.NewService(db, leaveRepo, ledger, employeeRepo, dayCounter, recorder)
	adminService := leave.NewAdminService(ledger, leaveService, employeeRepo)

	// --- Handlers ---
	holidayHandler := holiday.NewHandler(holidayService)
	leaveHandler := leave.NewHandler(leaveService, adminService, scopeService, employeeRepo)

	// --- Routes ---
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(zap.L()),
		middleware.RateLimitByIP(rate.Limit(20), 40),
	)

	api := router.Group("/api/v1")
	api.Use(middleware.Idempotency(rdb))
	{
		holiday.RegisterRoutes(api, holidayHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService)
	}

	return nil
}
