package events

import "time"

const LeaveAuditTopic = "hr.leave.audit.v1"

// Audit action names recorded on every workflow transition and ledger mutation.
const (
	ActionRequestSubmitted      = "leave.request.submitted"
	ActionRequestApproved       = "leave.request.approved"
	ActionRequestRejected       = "leave.request.rejected"
	ActionCancellationRequested = "leave.request.cancellation_requested"
	ActionCancellationApproved  = "leave.request.cancellation_approved"
	ActionCancellationRejected  = "leave.request.cancellation_rejected"
	ActionRequestSelfCancelled  = "leave.request.self_cancelled"

	ActionLedgerGrant   = "leave.ledger.grant"
	ActionLedgerConsume = "leave.ledger.consume"
	ActionLedgerRestore = "leave.ledger.restore"
	ActionLedgerAdjust  = "leave.ledger.adjust"
	ActionLedgerExpire  = "leave.ledger.expire"
)

type LeaveAuditEvent struct {
	EventType  string         `json:"event_type"`
	ActorID    string         `json:"actor_id"`
	EmployeeID string         `json:"employee_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
