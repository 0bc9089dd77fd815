package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kyilmaz/dealerpool/internal/domain"
)

func TestTransactionFromDomain(t *testing.T) {
	dealerID := "d1"
	processedAt := time.Now()
	txn := &domain.Transaction{
		ID:               "tx-1",
		Token:            "token-1",
		DealerID:         &dealerID,
		Kind:             domain.KindWithdraw,
		Status:           domain.StatusApproved,
		Amount:           decimal.NewFromInt(100),
		CommissionAmount: decimal.NewFromInt(5),
		ReceiptRef:       "receipt-1",
		ProcessedBy:      "op-1",
		ProcessedAt:      &processedAt,
	}

	resp := TransactionFromDomain(txn)

	if resp.ID != "tx-1" || resp.Kind != "WITHDRAW" || resp.Status != "APPROVED" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.DealerID == nil || *resp.DealerID != "d1" {
		t.Fatalf("expected dealer d1, got %v", resp.DealerID)
	}
	if resp.ProcessedAt == nil {
		t.Fatal("expected processed_at carried over")
	}
}

// Zero-value optional fields must not leak into the JSON payload.
func TestTransactionResponse_OmitsEmptyFields(t *testing.T) {
	resp := TransactionFromDomain(&domain.Transaction{
		ID:     "tx-1",
		Kind:   domain.KindWithdraw,
		Status: domain.StatusWaitingAssignment,
		Amount: decimal.NewFromInt(100),
	})

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, field := range []string{"token", "dealer_id", "rejection_reason", "processed_at"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("expected %s omitted, got %s", field, data)
		}
	}
}

func TestDealersFromDomain(t *testing.T) {
	dealers := []*domain.Dealer{
		{ID: "d1", Name: "One", NetBalance: decimal.NewFromInt(100)},
		{ID: "d2", Name: "Two", NetBalance: decimal.NewFromInt(200)},
	}

	resp := DealersFromDomain(dealers)

	if len(resp) != 2 || resp[0].ID != "d1" || resp[1].ID != "d2" {
		t.Fatalf("unexpected responses: %+v", resp)
	}
}

func TestBankAccountFromDomain(t *testing.T) {
	acc := &domain.BankAccount{
		ID:              "acc-1",
		DealerID:        "d1",
		BankName:        "Test Bank",
		IBAN:            "TR330006100519786457841326",
		MaxDepositLimit: decimal.NewFromInt(10000),
		Active:          true,
	}

	resp := BankAccountFromDomain(acc)

	if resp.ID != "acc-1" || resp.DealerID != "d1" || !resp.Active {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
