package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who changed what. Requeue and return-to-pool are the
// transitions the audit trail exists for; everything else rides along.
type AuditLog struct {
	ID           string
	ActorID      string // operator or "system"
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionWithdrawalCreate AuditAction = "withdrawal.create"
	AuditActionDepositCreate    AuditAction = "deposit.create"
	AuditActionAssign           AuditAction = "transaction.assign"
	AuditActionApprove          AuditAction = "transaction.approve"
	AuditActionReject           AuditAction = "transaction.reject"
	AuditActionRequeue          AuditAction = "transaction.requeue"
	AuditActionReturnToPool     AuditAction = "transaction.return_to_pool"
	AuditActionManualAdjust     AuditAction = "dealer.manual_adjust"
	AuditActionDealerCreate     AuditAction = "dealer.create"
	AuditActionDealerRefresh    AuditAction = "dealer.refresh_balance"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
