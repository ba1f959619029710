package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request statuses. pending -> approved | rejected | cancelled,
// approved -> cancellation_requested -> cancelled | approved.
const (
	StatusPending               = "pending"
	StatusApproved              = "approved"
	StatusRejected              = "rejected"
	StatusCancellationRequested = "cancellation_requested"
	StatusCancelled             = "cancelled"
)

const (
	KindFullDay = "full_day"
	KindHalfDay = "half_day"
)

// Ledger transaction kinds. Positive amounts grant or restore days, negative
// amounts consume or remove them.
const (
	TxnGrantBase      = "grant_base"
	TxnGrantSeniority = "grant_seniority"
	TxnGrantMonthly   = "grant_monthly"
	TxnUse            = "use"
	TxnCancelUse      = "cancel_use"
	TxnAdjustAdd      = "adjust_add"
	TxnAdjustSubtract = "adjust_subtract"
	TxnExpire         = "expire"
)

// Entitlement is the materialized balance per employee per grant year. It is
// always re-derivable from the ledger: granted_total - used_total must equal
// the sum of the year's transaction amounts after every commit.
type Entitlement struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_entitlements_employee_year"`
	GrantYear    int             `gorm:"not null;uniqueIndex:idx_entitlements_employee_year"`
	GrantedTotal decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	UsedTotal    decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Entitlement) Balance() decimal.Decimal {
	return e.GrantedTotal.Sub(e.UsedTotal)
}

// LedgerTransaction is an immutable, append-only record of a balance change.
// Rows are never updated or deleted; corrections happen via new transactions.
type LedgerTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_employee_year"`
	GrantYear       int             `gorm:"not null;index:idx_ledger_employee_year"`
	Kind            string          `gorm:"type:varchar(30);not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Reason          string          `gorm:"type:text"`
	LinkedRequestID *uuid.UUID      `gorm:"type:uuid;index"`
	ActorID         *uuid.UUID      `gorm:"type:uuid"` // nil for system-initiated grants
	CreatedAt       time.Time
}

// Request is a leave request moving through the approval workflow. DayCount
// is computed at submission and immutable afterwards.
type Request struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;index:idx_requests_employee_dates"`
	StartDate  time.Time       `gorm:"type:date;not null;index:idx_requests_employee_dates"`
	EndDate    time.Time       `gorm:"type:date;not null;index:idx_requests_employee_dates"`
	LeaveKind  string          `gorm:"type:varchar(20);not null;default:'full_day'"`
	DayCount   decimal.Decimal `gorm:"type:numeric(4,1);not null"`
	Status     string          `gorm:"type:varchar(30);not null;default:'pending';index"`
	Reason     string          `gorm:"type:text"`

	DecisionReason *string    `gorm:"type:text"`
	ApproverID     *uuid.UUID `gorm:"type:uuid"`
	DecidedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// activeStatuses are the statuses that block overlapping requests.
var activeStatuses = []string{StatusPending, StatusApproved, StatusCancellationRequested}
