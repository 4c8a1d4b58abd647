package kv

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

// SQLStore implements Store on the MySQL schema in migrations/. Values live
// in kv_entries; list members live in kv_list_items, where a larger id means
// a more recent prepend.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// maxListLimit stands in for "to the end"; MySQL has no OFFSET without LIMIT.
const maxListLimit = int64(math.MaxInt64)

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT v
		FROM kv_entries
		WHERE k = ?
		AND (expires_at IS NULL OR expires_at > ?)
	`
	var v []byte
	err := s.db.QueryRowContext(ctx, query, key, s.now().UTC()).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	return s.upsert(ctx, key, value, sql.NullTime{})
}

func (s *SQLStore) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.upsert(ctx, key, value, sql.NullTime{Time: s.now().UTC().Add(ttl), Valid: true})
}

func (s *SQLStore) upsert(ctx context.Context, key string, value []byte, expiresAt sql.NullTime) error {
	query := `
		INSERT INTO kv_entries (k, v, expires_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE v = VALUES(v), expires_at = VALUES(expires_at)
	`
	_, err := s.db.ExecContext(ctx, query, key, value, expiresAt)
	return err
}

// Delete removes key whether it names a value or a list.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE k = ?`, key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_list_items WHERE list_key = ?`, key)
	return err
}

func (s *SQLStore) RemainingTTL(ctx context.Context, key string) (time.Duration, error) {
	query := `
		SELECT expires_at
		FROM kv_entries
		WHERE k = ?
	`
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, key).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if !expiresAt.Valid {
		return NoExpiry, nil
	}
	remaining := expiresAt.Time.Sub(s.now().UTC())
	if remaining <= 0 {
		return 0, ErrNotFound
	}
	return remaining.Truncate(time.Second), nil
}

func (s *SQLStore) ListPrepend(ctx context.Context, listKey, member string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_list_items (list_key, member) VALUES (?, ?)`,
		listKey, member,
	)
	return err
}

func (s *SQLStore) ListRemove(ctx context.Context, listKey, member string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_list_items WHERE list_key = ? AND member = ?`,
		listKey, member,
	)
	return err
}

func (s *SQLStore) ListLength(ctx context.Context, listKey string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv_list_items WHERE list_key = ?`,
		listKey,
	).Scan(&n)
	return n, err
}

func (s *SQLStore) ListRange(ctx context.Context, listKey string, start, stop int64) ([]string, error) {
	if start < 0 {
		start = 0
	}
	limit := maxListLimit
	if stop >= 0 {
		if stop < start {
			return []string{}, nil
		}
		limit = stop - start + 1
	}

	query := `
		SELECT member
		FROM kv_list_items
		WHERE list_key = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, listKey, limit, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *SQLStore) BatchGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf(`
		SELECT k, v
		FROM kv_entries
		WHERE k IN (%s)
		AND (expires_at IS NULL OR expires_at > ?)
	`, placeholders)

	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	args = append(args, s.now().UTC())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for i, k := range keys {
		out[i] = values[k]
	}
	return out, nil
}

// PurgeExpired deletes expired rows. Reads already ignore them; this only
// reclaims space.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ Store = (*SQLStore)(nil)
