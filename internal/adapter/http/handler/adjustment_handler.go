package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/dto"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// AdjustmentHandler handles manual balance adjustments.
type AdjustmentHandler struct {
	adjustmentUC *usecase.AdjustmentUseCase
}

// NewAdjustmentHandler creates a new AdjustmentHandler.
func NewAdjustmentHandler(adjustmentUC *usecase.AdjustmentUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentUC: adjustmentUC}
}

// Create records a manual credit or debit against a dealer.
func (h *AdjustmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ManualAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	txn, err := h.adjustmentUC.Apply(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to apply adjustment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}
