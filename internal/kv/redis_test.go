package kv

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStoreFromClient(rdb), mr
}

func TestRedisStore_ValuesAndTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "refund:dup:abc", []byte("refund_1")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "refund:dup:abc")
	if err != nil || string(got) != "refund_1" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if ttl, err := s.RemainingTTL(ctx, "refund:dup:abc"); err != nil || ttl != NoExpiry {
		t.Errorf("RemainingTTL persistent = %v, %v", ttl, err)
	}

	if err := s.SetWithExpiry(ctx, "session:s1", []byte("{}"), 2*time.Hour); err != nil {
		t.Fatal(err)
	}
	ttl, err := s.RemainingTTL(ctx, "session:s1")
	if err != nil {
		t.Fatal(err)
	}
	if ttl != 2*time.Hour {
		t.Errorf("RemainingTTL = %v, want 2h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := s.RemainingTTL(ctx, "session:s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemainingTTL after expiry error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "refund:dup:abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "refund:dup:abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
}

func TestRedisStore_Lists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := s.ListPrepend(ctx, "refunds:index", id); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.ListRange(ctx, "refunds:index", 0, -1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"r3", "r2", "r1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListRange = %v, want %v", got, want)
	}

	if err := s.ListRemove(ctx, "refunds:index", "r2"); err != nil {
		t.Fatal(err)
	}
	n, err := s.ListLength(ctx, "refunds:index")
	if err != nil || n != 2 {
		t.Errorf("ListLength = %d, %v; want 2", n, err)
	}
}

func TestRedisStore_BatchGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)

	_ = s.Set(ctx, "refund:a", []byte(`{"id":"a"}`))
	_ = s.Set(ctx, "refund:c", []byte(`{"id":"c"}`))

	got, err := s.BatchGet(ctx, []string{"refund:a", "refund:b", "refund:c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || string(got[0]) != `{"id":"a"}` || got[1] != nil || string(got[2]) != `{"id":"c"}` {
		t.Errorf("BatchGet = %q", got)
	}

	empty, err := s.BatchGet(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("BatchGet(nil) = %v, %v", empty, err)
	}
}
