package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated  = "transaction.created"
	EventTypeTransactionPooled   = "transaction.pooled"
	EventTypeTransactionAssigned = "transaction.assigned"
	EventTypeTransactionApproved = "transaction.approved"
	EventTypeTransactionRejected = "transaction.rejected"
	EventTypeTransactionRequeued = "transaction.requeued"
	EventTypeDealerPassivated    = "dealer.passivated"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeDealer      = "dealer"
)

// OutboxEvent represents an event to be delivered to the external notifier.
// Rows are written in the same database transaction as the state change and
// drained by the notifier worker after commit.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransactionEventPayload is the wire shape sent on every pool event and
// terminal status change.
type TransactionEventPayload struct {
	TransactionID string `json:"transaction_id"`
	ExternalID    string `json:"external_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason,omitempty"`
}

// NewTransactionEvent builds the outbox payload for a transaction.
func NewTransactionEvent(t *Transaction) map[string]any {
	payload := map[string]any{
		"transaction_id": t.ID,
		"external_id":    t.ExternalUserID,
		"status":         string(t.Status),
		"amount":         t.Amount.StringFixed(2),
		"kind":           string(t.Kind),
	}
	if t.RejectionReason != "" {
		payload["reason"] = t.RejectionReason
	}
	return payload
}
