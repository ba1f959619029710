package consumer

import (
	"context"
	"encoding/json"

	"muni-hris/internal/audit"
	"muni-hris/internal/events"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeAuditTrail reads leave audit events and appends them to the
// audit_logs table. Malformed messages are committed and skipped so one bad
// payload cannot wedge the partition.
func ConsumeAuditTrail(
	ctx context.Context,
	reader *kafkago.Reader,
	repo audit.Repository,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.audit_trail")
	log.Info("audit trail consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("audit trail consumer stopped")
				return
			}
			log.Error("fetch audit message failed", zap.Error(err))
			continue
		}

		var event events.LeaveAuditEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode audit event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		details, _ := json.Marshal(event.Details)
		err = repo.Append(ctx, &audit.Log{
			ID:         uuid.New(),
			Action:     event.EventType,
			ActorID:    event.ActorID,
			EmployeeID: event.EmployeeID,
			Details:    details,
			OccurredAt: event.OccurredAt,
		})
		if err != nil {
			log.Error("append audit log failed",
				zap.String("action", event.EventType),
				zap.Error(err),
			)
			// leave uncommitted; retried on next fetch
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit audit message failed", zap.Error(err))
		}
	}
}
