package index

import (
	"context"
	"log/slog"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/matching"
	"refund-service/internal/models"
)

// RefundQuery selects claims from one list.
type RefundQuery struct {
	// ListKey defaults to keyspace.RefundIndex.
	ListKey string
	Filter  matching.RefundFilter
	// ExcludeBranch drops every claim submitted by that branch before any
	// other criterion is applied.
	ExcludeBranch string
	Pagination
}

type RefundIndex struct {
	store  kv.Store
	logger *slog.Logger
}

func NewRefundIndex(store kv.Store, logger *slog.Logger) *RefundIndex {
	return &RefundIndex{store: store, logger: logger}
}

// Add prepends a new claim to the global list and, when it has one, to its
// branch list.
func (ix *RefundIndex) Add(ctx context.Context, c *models.RefundClaim) error {
	if err := ix.store.ListPrepend(ctx, keyspace.RefundIndex, c.ID); err != nil {
		return err
	}
	if c.SubmittedByBranch != "" {
		return ix.store.ListPrepend(ctx, keyspace.RefundsByBranch(c.SubmittedByBranch), c.ID)
	}
	return nil
}

// Remove drops a claim from the global list and its branch list.
func (ix *RefundIndex) Remove(ctx context.Context, c *models.RefundClaim) error {
	if err := ix.store.ListRemove(ctx, keyspace.RefundIndex, c.ID); err != nil {
		return err
	}
	if c.SubmittedByBranch != "" {
		return ix.store.ListRemove(ctx, keyspace.RefundsByBranch(c.SubmittedByBranch), c.ID)
	}
	return nil
}

// Query returns one page of matching claim ids.
func (ix *RefundIndex) Query(ctx context.Context, q RefundQuery) (Page, error) {
	listKey := q.ListKey
	if listKey == "" {
		listKey = keyspace.RefundIndex
	}
	p := q.Pagination.normalize()

	if q.Filter.IsZero() && q.ExcludeBranch == "" {
		return slice(ctx, ix.store, listKey, p)
	}

	filter := q.Filter
	page, err := scan(ctx, ix.store, listKey, keyspace.RefundKeys, func(c *models.RefundClaim) bool {
		if q.ExcludeBranch != "" && c.SubmittedByBranch == q.ExcludeBranch {
			return false
		}
		return filter.Match(c)
	}, p)
	if err != nil {
		return Page{}, err
	}

	ix.logger.Debug("filtered refund scan",
		"list", listKey,
		"exclude_branch", q.ExcludeBranch,
		"page", p.Page,
		"matches", page.TotalCount)
	return page, nil
}
