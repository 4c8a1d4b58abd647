package repositories

import (
	"context"
	"errors"
	"time"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

// SessionRepository keeps the user snapshot behind a session cookie.
// Sessions expire on their own; there is no sweeper.
type SessionRepository interface {
	Create(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*models.User, error)
	RemainingTTL(ctx context.Context, sessionID string) (time.Duration, error)
	// Replace overwrites the snapshot and keeps the remaining lifetime.
	Replace(ctx context.Context, sessionID string, user *models.User) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionRepository struct {
	store kv.Store
}

func NewSessionRepository(store kv.Store) SessionRepository {
	return &sessionRepository{store: store}
}

func (r *sessionRepository) Create(ctx context.Context, sessionID string, user *models.User, ttl time.Duration) error {
	return kv.SetJSONWithExpiry(ctx, r.store, keyspace.Session(sessionID), user, ttl)
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*models.User, error) {
	user := &models.User{}
	err := kv.GetJSON(ctx, r.store, keyspace.Session(sessionID), user)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sessionRepository) RemainingTTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := r.store.RemainingTTL(ctx, keyspace.Session(sessionID))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, ErrSessionNotFound
	}
	return ttl, err
}

func (r *sessionRepository) Replace(ctx context.Context, sessionID string, user *models.User) error {
	ttl, err := r.RemainingTTL(ctx, sessionID)
	if err != nil {
		return err
	}
	if ttl == kv.NoExpiry {
		return kv.SetJSON(ctx, r.store, keyspace.Session(sessionID), user)
	}
	return kv.SetJSONWithExpiry(ctx, r.store, keyspace.Session(sessionID), user, ttl)
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.store.Delete(ctx, keyspace.Session(sessionID))
}
