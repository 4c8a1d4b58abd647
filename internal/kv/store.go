// Package kv defines the key-value capability the refund indexes are built
// on, with Redis, MySQL and in-memory implementations.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get and RemainingTTL for missing or expired keys.
var ErrNotFound = errors.New("kv: key not found")

// NoExpiry is reported by RemainingTTL for keys stored without a TTL.
const NoExpiry time.Duration = -1

// Store is the set of operations the application consumes. Lists are kept
// newest first: ListPrepend puts the member at index 0.
//
// BatchGet preserves input order and returns a nil slot for each missing
// key. It is a round-trip optimisation, not a snapshot.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	RemainingTTL(ctx context.Context, key string) (time.Duration, error)

	ListPrepend(ctx context.Context, listKey, member string) error
	ListRemove(ctx context.Context, listKey, member string) error
	ListLength(ctx context.Context, listKey string) (int64, error)
	// ListRange returns members in [start, stop], both inclusive. A negative
	// stop means "through the last member".
	ListRange(ctx context.Context, listKey string, start, stop int64) ([]string, error)

	BatchGet(ctx context.Context, keys []string) ([][]byte, error)
}

// GetJSON loads key and decodes it into dst.
func GetJSON(ctx context.Context, s Store, key string, dst any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key without expiry.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// SetJSONWithExpiry encodes v and stores it under key for ttl.
func SetJSONWithExpiry(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetWithExpiry(ctx, key, raw, ttl)
}

// BatchGetJSON fetches keys in one round trip and decodes each present value.
// Missing keys yield the zero value and false in found.
func BatchGetJSON[T any](ctx context.Context, s Store, keys []string) (values []T, found []bool, err error) {
	raws, err := s.BatchGet(ctx, keys)
	if err != nil {
		return nil, nil, err
	}
	values = make([]T, len(keys))
	found = make([]bool, len(keys))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		if err := json.Unmarshal(raw, &values[i]); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		found[i] = true
	}
	return values, found, nil
}
