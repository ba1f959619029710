package app

import (
	"muni-hris/internal/shared/config"
	"muni-hris/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the infrastructure and wires every module onto the
// router.
func BuildApp(router *gin.Engine, cfg config.Config) error {
	logger := zap.L().Named("app")

	db, err := connection.ConnectGORMWithRetry(
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		// the api degrades gracefully without redis: no idempotency locks,
		// no calendar cache
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	} else {
		logger.Info("redis connection established")
	}

	return registerModules(router, cfg, db, rdb)
}
