package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/dto"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// DepositService defines the behavior needed by DepositHandler.
type DepositService interface {
	CreateDeposit(ctx context.Context, input usecase.CreateDepositInput) (*usecase.CreateDepositResult, error)
	ConfirmDeposit(ctx context.Context, token string) (usecase.ConfirmStatus, error)
}

// DepositHandler handles deposit-related HTTP requests.
type DepositHandler struct {
	depositUC DepositService
}

// NewDepositHandler creates a new DepositHandler.
func NewDepositHandler(depositUC DepositService) *DepositHandler {
	return &DepositHandler{depositUC: depositUC}
}

// Create routes a deposit to a randomly picked eligible account.
func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.depositUC.CreateDeposit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositCreatedResponse{
		Transaction: dto.TransactionFromDomain(result.Transaction),
		Account:     dto.BankAccountFromDomain(result.Account),
	})
}

// Confirm resolves a deposit confirmation token.
func (h *DepositHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	status, err := h.depositUC.ConfirmDeposit(r.Context(), req.Token)
	if err != nil {
		writeDomainError(w, "failed to confirm deposit", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfirmDepositResponse{Status: string(status)})
}
