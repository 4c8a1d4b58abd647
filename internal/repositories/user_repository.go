package repositories

import (
	"context"
	"errors"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
)

// UserRepository persists login credentials created on first sign-in.
type UserRepository interface {
	GetCredential(ctx context.Context, username string) (*models.StoredCredential, error)
	SaveCredential(ctx context.Context, username string, cred *models.StoredCredential) error
}

type userRepository struct {
	store kv.Store
}

func NewUserRepository(store kv.Store) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) GetCredential(ctx context.Context, username string) (*models.StoredCredential, error) {
	cred := &models.StoredCredential{}
	err := kv.GetJSON(ctx, r.store, keyspace.User(username), cred)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *userRepository) SaveCredential(ctx context.Context, username string, cred *models.StoredCredential) error {
	return kv.SetJSON(ctx, r.store, keyspace.User(username), cred)
}
