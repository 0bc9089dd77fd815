package domain

import "testing"

func TestTransactionValidate(t *testing.T) {
	dealerID := "dealer-1"

	tests := []struct {
		name    string
		tx      Transaction
		wantErr error
	}{
		{
			name: "valid pending deposit",
			tx:   Transaction{DealerID: &dealerID, Kind: KindDeposit, Status: StatusPending, Amount: dec("100")},
		},
		{
			name: "valid pooled withdrawal without dealer",
			tx:   Transaction{Kind: KindWithdraw, Status: StatusWaitingAssignment, Amount: dec("100"), TargetIBAN: "TR000001"},
		},
		{
			name:    "zero amount",
			tx:      Transaction{DealerID: &dealerID, Kind: KindDeposit, Status: StatusPending, Amount: dec("0")},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			tx:      Transaction{DealerID: &dealerID, Kind: KindDeposit, Status: StatusPending, Amount: dec("-5")},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "unknown kind",
			tx:      Transaction{DealerID: &dealerID, Kind: "TRANSFER", Status: StatusPending, Amount: dec("100")},
			wantErr: ErrInvalidKind,
		},
		{
			name:    "nil dealer outside pool",
			tx:      Transaction{Kind: KindDeposit, Status: StatusPending, Amount: dec("100")},
			wantErr: ErrDealerRequired,
		},
		{
			name:    "negative commission",
			tx:      Transaction{DealerID: &dealerID, Kind: KindDeposit, Status: StatusPending, Amount: dec("100"), CommissionAmount: dec("-1")},
			wantErr: ErrInvalidCommission,
		},
		{
			name:    "withdrawal without target iban",
			tx:      Transaction{DealerID: &dealerID, Kind: KindWithdraw, Status: StatusPending, Amount: dec("100")},
			wantErr: ErrMissingTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := map[Status][]Status{
		StatusWaitingAssignment: {StatusPending},
		StatusPending:           {StatusApproved, StatusRejected, StatusWaitingAssignment},
		StatusRejected:          {StatusPending},
		StatusApproved:          {},
	}
	all := []Status{StatusWaitingAssignment, StatusPending, StatusApproved, StatusRejected}

	for from, tos := range allowed {
		legal := map[Status]bool{}
		for _, to := range tos {
			legal[to] = true
		}

		for _, to := range all {
			tx := Transaction{Status: from}
			if got := tx.CanTransition(to); got != legal[to] {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, legal[to])
			}
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.Open() || !StatusWaitingAssignment.Open() {
		t.Error("pending and pooled statuses must be open")
	}
	if StatusApproved.Open() || StatusRejected.Open() {
		t.Error("terminal statuses must not be open")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Error("approved and rejected must be terminal")
	}
}
