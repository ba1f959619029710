package leave

import "time"

const dateLayout = "2006-01-02"

type SubmitRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	LeaveKind string `json:"leave_kind" binding:"omitempty,oneof=full_day half_day"`
	Reason    string `json:"reason" binding:"omitempty,max=500"`
}

type DecisionRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type AdjustmentRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	GrantYear  *int   `json:"grant_year" binding:"omitempty,min=2000,max=2200"`
	Amount     string `json:"amount" binding:"required"`
	Reason     string `json:"reason" binding:"required,max=500"`
}

type BulkApproveRequest struct {
	RequestIDs []string `json:"request_ids" binding:"required,min=1,dive,uuid"`
}

type RequestResponse struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	LeaveKind      string  `json:"leave_kind"`
	DayCount       string  `json:"day_count"`
	Status         string  `json:"status"`
	Reason         string  `json:"reason,omitempty"`
	DecisionReason *string `json:"decision_reason,omitempty"`
	ApproverID     *string `json:"approver_id,omitempty"`
	DecidedAt      *string `json:"decided_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

type YearBalanceResponse struct {
	GrantYear    int    `json:"grant_year"`
	GrantedTotal string `json:"granted_total"`
	UsedTotal    string `json:"used_total"`
	Balance      string `json:"balance"`
}

type TransactionResponse struct {
	ID              string  `json:"id"`
	GrantYear       int     `json:"grant_year"`
	Kind            string  `json:"kind"`
	Amount          string  `json:"amount"`
	Reason          string  `json:"reason,omitempty"`
	LinkedRequestID *string `json:"linked_request_id,omitempty"`
	ActorID         *string `json:"actor_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func mapRequestToResponse(req Request) RequestResponse {
	resp := RequestResponse{
		ID:             req.ID.String(),
		EmployeeID:     req.EmployeeID.String(),
		StartDate:      req.StartDate.Format(dateLayout),
		EndDate:        req.EndDate.Format(dateLayout),
		LeaveKind:      req.LeaveKind,
		DayCount:       req.DayCount.String(),
		Status:         req.Status,
		Reason:         req.Reason,
		DecisionReason: req.DecisionReason,
		CreatedAt:      req.CreatedAt.Format(time.RFC3339),
	}
	if req.ApproverID != nil {
		v := req.ApproverID.String()
		resp.ApproverID = &v
	}
	if req.DecidedAt != nil {
		v := req.DecidedAt.UTC().Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapBreakdownToResponse(breakdown []YearBalance) []YearBalanceResponse {
	resp := make([]YearBalanceResponse, len(breakdown))
	for i, yb := range breakdown {
		resp[i] = YearBalanceResponse{
			GrantYear:    yb.GrantYear,
			GrantedTotal: yb.GrantedTotal.String(),
			UsedTotal:    yb.UsedTotal.String(),
			Balance:      yb.Balance.String(),
		}
	}
	return resp
}

func mapTransactionToResponse(txn LedgerTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        txn.ID.String(),
		GrantYear: txn.GrantYear,
		Kind:      txn.Kind,
		Amount:    txn.Amount.String(),
		Reason:    txn.Reason,
		CreatedAt: txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.LinkedRequestID != nil {
		v := txn.LinkedRequestID.String()
		resp.LinkedRequestID = &v
	}
	if txn.ActorID != nil {
		v := txn.ActorID.String()
		resp.ActorID = &v
	}
	return resp
}
