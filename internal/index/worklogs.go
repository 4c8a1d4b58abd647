package index

import (
	"context"
	"log/slog"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/matching"
	"refund-service/internal/models"
)

// WorkLogQuery selects work logs from one list.
type WorkLogQuery struct {
	// ListKey defaults to keyspace.WorkLogIndex.
	ListKey string
	Filter  matching.WorkLogFilter
	Pagination
}

type WorkLogIndex struct {
	store  kv.Store
	logger *slog.Logger
}

func NewWorkLogIndex(store kv.Store, logger *slog.Logger) *WorkLogIndex {
	return &WorkLogIndex{store: store, logger: logger}
}

func (ix *WorkLogIndex) Add(ctx context.Context, w *models.WorkLog) error {
	if err := ix.store.ListPrepend(ctx, keyspace.WorkLogIndex, w.ID); err != nil {
		return err
	}
	if w.BranchID != "" {
		return ix.store.ListPrepend(ctx, keyspace.WorkLogsByBranch(w.BranchID), w.ID)
	}
	return nil
}

func (ix *WorkLogIndex) Remove(ctx context.Context, w *models.WorkLog) error {
	if err := ix.store.ListRemove(ctx, keyspace.WorkLogIndex, w.ID); err != nil {
		return err
	}
	if w.BranchID != "" {
		return ix.store.ListRemove(ctx, keyspace.WorkLogsByBranch(w.BranchID), w.ID)
	}
	return nil
}

// Query returns one page of matching work-log ids.
func (ix *WorkLogIndex) Query(ctx context.Context, q WorkLogQuery) (Page, error) {
	listKey := q.ListKey
	if listKey == "" {
		listKey = keyspace.WorkLogIndex
	}
	p := q.Pagination.normalize()

	if q.Filter.IsZero() {
		return slice(ctx, ix.store, listKey, p)
	}

	page, err := scan(ctx, ix.store, listKey, keyspace.WorkLogKeys, q.Filter.Match, p)
	if err != nil {
		return Page{}, err
	}

	ix.logger.Debug("filtered worklog scan",
		"list", listKey,
		"exclude_branch", q.Filter.ExcludeBranch,
		"page", p.Page,
		"matches", page.TotalCount)
	return page, nil
}
