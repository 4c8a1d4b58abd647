package repositories

import (
	"context"
	"errors"
	"fmt"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

type WorkLogRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkLog, error)
	GetMany(ctx context.Context, ids []string) ([]models.WorkLog, error)
	Save(ctx context.Context, log *models.WorkLog) error
	Delete(ctx context.Context, id string) error
}

type workLogRepository struct {
	store kv.Store
}

func NewWorkLogRepository(store kv.Store) WorkLogRepository {
	return &workLogRepository{store: store}
}

func (r *workLogRepository) GetByID(ctx context.Context, id string) (*models.WorkLog, error) {
	log := &models.WorkLog{}
	err := kv.GetJSON(ctx, r.store, keyspace.WorkLog(id), log)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrWorkLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *workLogRepository) GetMany(ctx context.Context, ids []string) ([]models.WorkLog, error) {
	if len(ids) == 0 {
		return []models.WorkLog{}, nil
	}
	values, found, err := kv.BatchGetJSON[models.WorkLog](ctx, r.store, keyspace.WorkLogKeys(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch work logs: %w", err)
	}
	logs := make([]models.WorkLog, 0, len(values))
	for i := range values {
		if found[i] {
			logs = append(logs, values[i])
		}
	}
	return logs, nil
}

func (r *workLogRepository) Save(ctx context.Context, log *models.WorkLog) error {
	return kv.SetJSON(ctx, r.store, keyspace.WorkLog(log.ID), log)
}

func (r *workLogRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, keyspace.WorkLog(id))
}
