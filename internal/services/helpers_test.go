package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"refund-service/internal/blob"
	"refund-service/internal/duplicate"
	"refund-service/internal/index"
	"refund-service/internal/kv"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockBlobStore records deletes and fails those listed in FailDelete.
type MockBlobStore struct {
	mu          sync.Mutex
	Deleted     []string
	FailDelete  map[string]bool
	PresignFunc func(ctx context.Context, key, contentType string) (string, time.Duration, error)
}

func (m *MockBlobStore) PresignPut(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	if m.PresignFunc != nil {
		return m.PresignFunc(ctx, key, contentType)
	}
	return "", 0, blob.ErrDisabled
}

func (m *MockBlobStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete[ref] {
		return errors.New("access denied")
	}
	m.Deleted = append(m.Deleted, ref)
	return nil
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var (
	commander = &models.User{Username: "admin01", Role: models.RoleCommander, Name: "커멘더"}
	staff     = &models.User{Username: "staff01", Role: models.RoleStaff, Name: "직원"}
	manager   = &models.User{Username: "mm01", Role: models.RoleMiddleManager, Name: "중간관리자"}
	ulsan     = &models.User{Username: "a0001", Role: models.RoleBranch, Name: "울산 성능장", BranchName: "울산"}
	busan     = &models.User{Username: "a0002", Role: models.RoleBranch, Name: "부산 성능장", BranchName: "부산"}
)

type refundFixture struct {
	svc   *RefundService
	store *kv.MemoryStore
	blobs *MockBlobStore
}

func newRefundFixture(t *testing.T) *refundFixture {
	t.Helper()
	store := kv.NewMemoryStore()
	blobs := &MockBlobStore{}
	logger := testLogger()
	svc := NewRefundService(
		repositories.NewRefundRepository(store),
		repositories.NewStatusLogRepository(store),
		index.NewRefundIndex(store, logger),
		duplicate.NewIndex(store, logger),
		blobs,
		"본사",
		logger,
	)
	svc.now = stepClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return &refundFixture{svc: svc, store: store, blobs: blobs}
}

func cardClaim(vehicle string, amount float64) ClaimInput {
	return ClaimInput{
		RefundDate:    "2025-03-01",
		VehicleNumber: vehicle,
		CompanyName:   "ABC Motors",
		DealerName:    "Dealer",
		ManagerName:   "Kim",
		RefundMethod:  models.MethodCard,
		ClaimAmount:   Amount(amount),
		RefundReason:  "overcharge",
		ReceiptDate:   "2025-02-28",
		ReceiptPhotos: []string{"uploads/receipts/a0001/1.jpg"},
	}
}

func (f *refundFixture) create(t *testing.T, user *models.User, in ClaimInput) *models.RefundClaim {
	t.Helper()
	claim, err := f.svc.Create(context.Background(), user, in, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return claim
}
