package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/dto"
	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// PoolService defines the behavior needed by PoolHandler.
type PoolService interface {
	ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
	Assign(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error)
	Approve(ctx context.Context, input usecase.ApproveInput) (*domain.Transaction, error)
	Reject(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
	Requeue(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ReturnToPool(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// PoolHandler handles the admin surface of the assignment pool and the
// transaction state machine.
type PoolHandler struct {
	poolUC PoolService
}

// NewPoolHandler creates a new PoolHandler.
func NewPoolHandler(poolUC PoolService) *PoolHandler {
	return &PoolHandler{poolUC: poolUC}
}

// List lists pooled withdrawals awaiting assignment, oldest first.
func (h *PoolHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	txs, err := h.poolUC.ListPool(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pool", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs))
}

// Assign moves a pooled withdrawal to a dealer.
func (h *PoolHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	txn, err := h.poolUC.Assign(r.Context(), id, req.DealerID)
	if err != nil {
		writeDomainError(w, "failed to assign transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Approve finalizes a pending transaction.
func (h *PoolHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, err := h.poolUC.Approve(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, "failed to approve transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Reject declines a pending transaction with a mandatory reason.
func (h *PoolHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	txn, err := h.poolUC.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeDomainError(w, "failed to reject transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// Requeue reopens a rejected transaction for a fresh decision.
func (h *PoolHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.poolUC.Requeue(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to requeue transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// ReturnToPool detaches a pending withdrawal from its dealer and puts it back
// in the assignment pool.
func (h *PoolHandler) ReturnToPool(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.poolUC.ReturnToPool(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to return transaction to pool", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
