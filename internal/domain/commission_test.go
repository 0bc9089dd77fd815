package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCommission(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		want   string
	}{
		{"two percent of 500", "500.00", "2.00", "10.00"},
		{"fractional rate", "1000.00", "2.50", "25.00"},
		{"rounds to two places", "333.33", "1.00", "3.33"},
		{"half rounds away from zero", "250.00", "0.05", "0.13"},
		{"zero rate", "500.00", "0", "0"},
		{"negative rate treated as zero", "500.00", "-1", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Commission(dec(tt.amount), dec(tt.rate))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("Commission(%s, %s) = %s, want %s", tt.amount, tt.rate, got, tt.want)
			}
		})
	}
}

func TestNetAmount(t *testing.T) {
	deposit := &Transaction{Kind: KindDeposit, Amount: dec("500"), CommissionAmount: dec("10")}
	if got := deposit.NetAmount(); !got.Equal(dec("490")) {
		t.Errorf("deposit net = %s, want 490", got)
	}

	withdraw := &Transaction{Kind: KindWithdraw, Amount: dec("500"), CommissionAmount: decimal.Zero}
	if got := withdraw.NetAmount(); !got.Equal(dec("500")) {
		t.Errorf("withdraw net = %s, want 500", got)
	}
}
