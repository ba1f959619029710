package audit

import (
	"context"
	"encoding/json"
	"time"

	"muni-hris/internal/events"
	"muni-hris/internal/messaging/kafka"
	"muni-hris/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder receives an entry for every workflow transition and ledger
// mutation. Recording is fire-and-forget from the caller's point of view:
// implementations log their own failures and never surface them.
type Recorder interface {
	Record(ctx context.Context, action, actorID, employeeID string, details map[string]any)
	// WithTx returns a recorder enlisted in the given transaction, so the
	// audit write commits or rolls back with the business mutation.
	WithTx(tx *gorm.DB) Recorder
}

// ZapRecorder writes audit entries to the application log. Used when no
// kafka broker is configured.
type ZapRecorder struct {
	logger *zap.Logger
}

func NewZapRecorder(logger ...*zap.Logger) *ZapRecorder {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &ZapRecorder{logger: l}
}

func (r *ZapRecorder) Record(ctx context.Context, action, actorID, employeeID string, details map[string]any) {
	r.logger.Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", action),
		zap.String("actor_id", actorID),
		zap.String("employee_id", employeeID),
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.Any("details", details),
	)
}

func (r *ZapRecorder) WithTx(tx *gorm.DB) Recorder { return r }

// OutboxRecorder stages audit entries in the transactional outbox; the
// producer worker ships them to kafka.
type OutboxRecorder struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxRecorder(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxRecorder {
	l := zap.L().Named("audit.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.outbox")
	}
	return &OutboxRecorder{outbox: outbox, logger: l}
}

func (r *OutboxRecorder) Record(ctx context.Context, action, actorID, employeeID string, details map[string]any) {
	event := events.LeaveAuditEvent{
		EventType:  action,
		ActorID:    actorID,
		EmployeeID: employeeID,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal audit event failed", zap.String("action", action), zap.Error(err))
		return
	}

	err = r.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave",
		AggregateID:   employeeID,
		EventType:     action,
		Topic:         events.LeaveAuditTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
	if err != nil {
		r.logger.Error("stage audit event failed", zap.String("action", action), zap.Error(err))
	}
}

func (r *OutboxRecorder) WithTx(tx *gorm.DB) Recorder {
	return &OutboxRecorder{outbox: r.outbox.WithTx(tx), logger: r.logger}
}
