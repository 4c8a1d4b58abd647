package repositories

import (
	"context"
	"fmt"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

// StatusLogRepository stores the audit trail of administrator status
// overrides. Each log is its own key; a per-refund list orders them newest
// first.
type StatusLogRepository interface {
	Create(ctx context.Context, log *models.StatusChangeLog) error
	ListByRefund(ctx context.Context, refundID string) ([]models.StatusChangeLog, error)
}

type statusLogRepository struct {
	store kv.Store
}

func NewStatusLogRepository(store kv.Store) StatusLogRepository {
	return &statusLogRepository{store: store}
}

func (r *statusLogRepository) Create(ctx context.Context, log *models.StatusChangeLog) error {
	key := keyspace.StatusLog(log.RefundID, log.ID)
	if err := kv.SetJSON(ctx, r.store, key, log); err != nil {
		return err
	}
	return r.store.ListPrepend(ctx, keyspace.StatusLogList(log.RefundID), key)
}

func (r *statusLogRepository) ListByRefund(ctx context.Context, refundID string) ([]models.StatusChangeLog, error) {
	keys, err := r.store.ListRange(ctx, keyspace.StatusLogList(refundID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	values, found, err := kv.BatchGetJSON[models.StatusChangeLog](ctx, r.store, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status logs: %w", err)
	}
	logs := make([]models.StatusChangeLog, 0, len(values))
	for i := range values {
		if found[i] {
			logs = append(logs, values[i])
		}
	}
	return logs, nil
}
