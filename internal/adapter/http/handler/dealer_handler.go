package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/dto"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

// DealerHandler handles dealer and bank account HTTP requests.
type DealerHandler struct {
	dealerUC *usecase.DealerUseCase
}

// NewDealerHandler creates a new DealerHandler.
func NewDealerHandler(dealerUC *usecase.DealerUseCase) *DealerHandler {
	return &DealerHandler{dealerUC: dealerUC}
}

// Create onboards a new dealer.
func (h *DealerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDealerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	dealer, err := h.dealerUC.CreateDealer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create dealer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DealerFromDomain(dealer))
}

// Get retrieves a dealer by ID.
func (h *DealerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing dealer ID", "")
		return
	}

	dealer, err := h.dealerUC.GetDealer(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get dealer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DealerFromDomain(dealer))
}

// List lists dealers with pagination.
func (h *DealerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	dealers, err := h.dealerUC.ListDealers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list dealers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DealersFromDomain(dealers))
}

// RefreshBalance forces a full recomputation of a dealer's balance from its
// approved transactions.
func (h *DealerHandler) RefreshBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing dealer ID", "")
		return
	}

	dealer, err := h.dealerUC.RefreshBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to refresh balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DealerFromDomain(dealer))
}

// CreateBankAccount registers a funding channel for a dealer.
func (h *DealerHandler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	dealerID := chi.URLParam(r, "id")
	if dealerID == "" {
		writeError(w, http.StatusBadRequest, "missing dealer ID", "")
		return
	}

	var req dto.CreateBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	account, err := h.dealerUC.CreateBankAccount(r.Context(), req.ToUseCaseInput(dealerID))
	if err != nil {
		writeDomainError(w, "failed to create bank account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.BankAccountFromDomain(account))
}

// ListBankAccounts lists a dealer's funding channels.
func (h *DealerHandler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	dealerID := chi.URLParam(r, "id")
	if dealerID == "" {
		writeError(w, http.StatusBadRequest, "missing dealer ID", "")
		return
	}

	accounts, err := h.dealerUC.ListBankAccounts(r.Context(), dealerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bank accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BankAccountsFromDomain(accounts))
}

// SetBankAccountActive toggles a funding channel's routing eligibility.
func (h *DealerHandler) SetBankAccountActive(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing bank account ID", "")
		return
	}

	var req dto.SetBankAccountActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.dealerUC.SetBankAccountActive(r.Context(), accountID, req.Active); err != nil {
		writeDomainError(w, "failed to update bank account", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
