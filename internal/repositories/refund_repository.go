package repositories

import (
	"context"
	"errors"
	"fmt"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

type RefundRepository interface {
	GetByID(ctx context.Context, id string) (*models.RefundClaim, error)
	// GetMany returns the claims that still exist, in the order of ids.
	GetMany(ctx context.Context, ids []string) ([]models.RefundClaim, error)
	Save(ctx context.Context, claim *models.RefundClaim) error
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context, listKey string, start, stop int64) ([]string, error)
}

type refundRepository struct {
	store kv.Store
}

func NewRefundRepository(store kv.Store) RefundRepository {
	return &refundRepository{store: store}
}

func (r *refundRepository) GetByID(ctx context.Context, id string) (*models.RefundClaim, error) {
	claim := &models.RefundClaim{}
	err := kv.GetJSON(ctx, r.store, keyspace.Refund(id), claim)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *refundRepository) GetMany(ctx context.Context, ids []string) ([]models.RefundClaim, error) {
	if len(ids) == 0 {
		return []models.RefundClaim{}, nil
	}
	values, found, err := kv.BatchGetJSON[models.RefundClaim](ctx, r.store, keyspace.RefundKeys(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch refunds: %w", err)
	}
	claims := make([]models.RefundClaim, 0, len(values))
	for i := range values {
		if found[i] {
			claims = append(claims, values[i])
		}
	}
	return claims, nil
}

func (r *refundRepository) Save(ctx context.Context, claim *models.RefundClaim) error {
	return kv.SetJSON(ctx, r.store, keyspace.Refund(claim.ID), claim)
}

func (r *refundRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, keyspace.Refund(id))
}

func (r *refundRepository) ListIDs(ctx context.Context, listKey string, start, stop int64) ([]string, error) {
	return r.store.ListRange(ctx, listKey, start, stop)
}
