package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"muni-hris/internal/audit"
	"muni-hris/internal/events"
	"muni-hris/internal/messaging/kafka/consumer"
	"muni-hris/internal/shared/config"
	"muni-hris/internal/shared/connection"

	"go.uber.org/zap"
)

// RunConsumer starts the audit trail consumer: leave audit events published
// by the worker are persisted to the audit_logs table.
func RunConsumer(cfg config.Config) error {
	logger := zap.L().Named("app.consumer")

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
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	reader := connection.NewKafkaReader(cfg.KafkaBroker, events.LeaveAuditTopic, "muni-hris-audit-trail")
	defer reader.Close()

	auditRepo := audit.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeAuditTrail(ctx, reader, auditRepo, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	return nil
}
