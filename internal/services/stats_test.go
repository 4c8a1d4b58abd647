package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRefundService_GivenMixedClaimsWhenComputingStatsThenCountsAndAmountsTallied(t *testing.T) {
	f := newRefundFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		claim := f.create(t, ulsan, cardClaim(fmt.Sprintf("차%d", i), 1000.1))
		ids = append(ids, claim.ID)
	}
	if _, err := f.svc.Process(ctx, commander, ids[0], "approve", ""); err != nil {
		t.Fatal(err)
	}
	for _, id := range ids[1:3] {
		if _, err := f.svc.Process(ctx, commander, id, "reject", ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.svc.Acknowledge(ctx, ulsan, ids[1]); err != nil {
		t.Fatal(err)
	}

	st, err := f.svc.Stats(ctx, staff)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalCount != 5 || st.PendingCount != 2 || st.ApprovedCount != 1 || st.RejectedCount != 2 {
		t.Errorf("counts = %+v", st)
	}
	if st.AcknowledgedCount != 1 || st.PendingAckCount != 1 {
		t.Errorf("acknowledgments = %+v", st)
	}
	if !st.PendingAmount.Equal(decimal.RequireFromString("2000.2")) {
		t.Errorf("PendingAmount = %s, want 2000.2", st.PendingAmount)
	}

	if _, err := f.svc.Stats(ctx, ulsan); !errors.Is(err, ErrForbidden) {
		t.Errorf("branch Stats err = %v, want ErrForbidden", err)
	}
}
