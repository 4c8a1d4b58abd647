package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"refund-service/internal/index"
	"refund-service/internal/keyspace"
	"refund-service/internal/models"
)

// Stats summarises every listed claim for the dashboard.
type Stats struct {
	TotalCount        int             `json:"totalCount"`
	PendingCount      int             `json:"pendingCount"`
	ApprovedCount     int             `json:"approvedCount"`
	RejectedCount     int             `json:"rejectedCount"`
	PendingAckCount   int             `json:"pendingAckCount"`
	AcknowledgedCount int             `json:"acknowledgedCount"`
	PendingAmount     decimal.Decimal `json:"pendingAmount"`
	ApprovedAmount    decimal.Decimal `json:"approvedAmount"`
	RejectedAmount    decimal.Decimal `json:"rejectedAmount"`
}

func (st *Stats) add(c *models.RefundClaim) {
	amount := decimal.NewFromFloat(c.ClaimAmount)
	st.TotalCount++
	switch c.Status {
	case models.StatusPending:
		st.PendingCount++
		st.PendingAmount = st.PendingAmount.Add(amount)
	case models.StatusApproved:
		st.ApprovedCount++
		st.ApprovedAmount = st.ApprovedAmount.Add(amount)
	case models.StatusRejected:
		st.RejectedCount++
		st.RejectedAmount = st.RejectedAmount.Add(amount)
		if c.AcknowledgedAt != "" {
			st.AcknowledgedCount++
		} else {
			st.PendingAckCount++
		}
	}
}

// Stats walks the whole claim list in windows and tallies it. Amounts are
// summed as decimals so totals do not drift.
func (s *RefundService) Stats(ctx context.Context, user *models.User) (*Stats, error) {
	if user.Role != models.RoleCommander && user.Role != models.RoleStaff {
		return nil, forbidden("you cannot view statistics")
	}

	st := &Stats{}
	for start := int64(0); ; start += index.WindowSize {
		ids, err := s.refunds.ListIDs(ctx, keyspace.RefundIndex, start, start+index.WindowSize-1)
		if err != nil {
			return nil, fmt.Errorf("failed to load refunds for stats: %w", err)
		}
		claims, err := s.refunds.GetMany(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load refunds for stats: %w", err)
		}
		for i := range claims {
			st.add(&claims[i])
		}
		if len(ids) < index.WindowSize {
			break
		}
	}
	return st, nil
}
