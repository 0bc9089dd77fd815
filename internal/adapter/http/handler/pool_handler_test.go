package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyilmaz/dealerpool/internal/adapter/http/dto"
	"github.com/kyilmaz/dealerpool/internal/domain"
	"github.com/kyilmaz/dealerpool/internal/usecase"
)

type poolServiceStub struct {
	listFn    func(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
	assignFn  func(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error)
	approveFn func(ctx context.Context, input usecase.ApproveInput) (*domain.Transaction, error)
	rejectFn  func(ctx context.Context, transactionID, reason string) (*domain.Transaction, error)
	requeueFn func(ctx context.Context, transactionID string) (*domain.Transaction, error)
	returnFn  func(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

func (s *poolServiceStub) ListPool(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *poolServiceStub) Assign(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error) {
	return s.assignFn(ctx, transactionID, dealerID)
}

func (s *poolServiceStub) Approve(ctx context.Context, input usecase.ApproveInput) (*domain.Transaction, error) {
	return s.approveFn(ctx, input)
}

func (s *poolServiceStub) Reject(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
	return s.rejectFn(ctx, transactionID, reason)
}

func (s *poolServiceStub) Requeue(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.requeueFn(ctx, transactionID)
}

func (s *poolServiceStub) ReturnToPool(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.returnFn(ctx, transactionID)
}

func TestPoolHandler_Assign_Success(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		assignFn: func(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error) {
			if transactionID != "tx-1" || dealerID != "dealer-1" {
				t.Fatalf("unexpected args %s %s", transactionID, dealerID)
			}
			return &domain.Transaction{ID: transactionID, Status: domain.StatusPending}, nil
		},
	})

	body, _ := json.Marshal(dto.AssignRequest{DealerID: "dealer-1"})
	req := httptest.NewRequest(http.MethodPost, "/admin/pool/tx-1/assign", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.Assign(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPoolHandler_Assign_InsufficientBalance(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		assignFn: func(ctx context.Context, transactionID, dealerID string) (*domain.Transaction, error) {
			return nil, domain.ErrInsufficientFunds
		},
	})

	body, _ := json.Marshal(dto.AssignRequest{DealerID: "dealer-1"})
	req := httptest.NewRequest(http.MethodPost, "/admin/pool/tx-1/assign", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.Assign(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPoolHandler_Reject_RequiresReason(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		rejectFn: func(ctx context.Context, transactionID, reason string) (*domain.Transaction, error) {
			t.Fatal("Reject should not be called without a reason")
			return nil, nil
		},
	})

	body, _ := json.Marshal(dto.RejectRequest{})
	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/reject", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.Reject(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPoolHandler_Approve_InvalidTransition(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		approveFn: func(ctx context.Context, input usecase.ApproveInput) (*domain.Transaction, error) {
			return nil, domain.ErrInvalidTransition
		},
	})

	body, _ := json.Marshal(dto.ApproveRequest{PayoutAccount: "acct-1", ReceiptRef: "receipt-1"})
	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/approve", bytes.NewReader(body))
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.Approve(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestPoolHandler_List(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.Transaction, error) {
			if limit != 10 || offset != 5 {
				t.Fatalf("unexpected pagination %d %d", limit, offset)
			}
			return []*domain.Transaction{{ID: "tx-1", Status: domain.StatusWaitingAssignment}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/pool?limit=10&offset=5", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPoolHandler_ReturnToPool(t *testing.T) {
	handler := NewPoolHandler(&poolServiceStub{
		returnFn: func(ctx context.Context, transactionID string) (*domain.Transaction, error) {
			return &domain.Transaction{ID: transactionID, Status: domain.StatusWaitingAssignment}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/tx-1/return-to-pool", nil)
	req = setChiURLParam(req, "id", "tx-1")
	rec := httptest.NewRecorder()

	handler.ReturnToPool(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.StatusWaitingAssignment) {
		t.Fatalf("expected pooled status, got %s", resp.Status)
	}
}
