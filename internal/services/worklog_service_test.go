package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"refund-service/internal/index"
	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/models"
	"refund-service/internal/repositories"
)

type worklogFixture struct {
	svc   *WorkLogService
	store *kv.MemoryStore
	blobs *MockBlobStore
}

func newWorkLogFixture(t *testing.T) *worklogFixture {
	t.Helper()
	store := kv.NewMemoryStore()
	blobs := &MockBlobStore{}
	logger := testLogger()
	svc := NewWorkLogService(
		repositories.NewWorkLogRepository(store),
		index.NewWorkLogIndex(store, logger),
		blobs,
		"본사",
		logger,
	)
	svc.now = stepClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return &worklogFixture{svc: svc, store: store, blobs: blobs}
}

func (f *worklogFixture) create(t *testing.T, user *models.User, date string) *models.WorkLog {
	t.Helper()
	log, err := f.svc.Create(context.Background(), user, WorkLogInput{Date: date, Note: "done"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return log
}

func ids(logs []models.WorkLog) []string {
	out := make([]string, len(logs))
	for i := range logs {
		out[i] = logs[i].ID
	}
	return out
}

func TestWorkLogService_GivenValidInputWhenCreatingThenPendingAndListed(t *testing.T) {
	f := newWorkLogFixture(t)
	ctx := context.Background()

	log := f.create(t, ulsan, "2025-03-01")
	if log.Status != models.StatusPending || log.BranchID != "울산" || log.AuthorID != "a0001" {
		t.Errorf("log = %+v", log)
	}
	if log.PhotoURLs == nil {
		t.Errorf("PhotoURLs is nil, want empty slice")
	}

	for _, list := range []string{keyspace.WorkLogIndex, keyspace.WorkLogsByBranch("울산")} {
		got, _ := f.store.ListRange(ctx, list, 0, -1)
		if !reflect.DeepEqual(got, []string{log.ID}) {
			t.Errorf("%s = %v", list, got)
		}
	}

	for _, date := range []string{"", "2025/03/01", "2025-13-01"} {
		if _, err := f.svc.Create(ctx, ulsan, WorkLogInput{Date: date}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Create(%q) err = %v, want ErrInvalidInput", date, err)
		}
	}
}

func TestWorkLogService_GivenLogsWhenListingThenScopedByRoleAndDate(t *testing.T) {
	f := newWorkLogFixture(t)
	ctx := context.Background()
	hq := &models.User{Username: "a0099", Role: models.RoleBranch, BranchName: "본사"}

	u1 := f.create(t, ulsan, "2025-03-01")
	b1 := f.create(t, busan, "2025-03-02")
	u2 := f.create(t, ulsan, "2025-03-03")
	h1 := f.create(t, hq, "2025-03-03")

	tests := []struct {
		name     string
		user     *models.User
		manager  bool
		from, to string
		want     []string
	}{
		{"commander sees all", commander, false, "", "", []string{h1.ID, u2.ID, b1.ID, u1.ID}},
		{"branch sees own", ulsan, false, "", "", []string{u2.ID, u1.ID}},
		{"branch with range", ulsan, false, "2025-03-02", "2025-03-03", []string{u2.ID}},
		{"commander with range", commander, false, "2025-03-02", "2025-03-02", []string{b1.ID}},
		{"manager hides excluded branch", manager, true, "", "", []string{u2.ID, b1.ID, u1.ID}},
		{"manager with range", manager, true, "2025-03-03", "", []string{u2.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				result *WorkLogListResult
				err    error
			)
			if tt.manager {
				result, err = f.svc.ListForManager(ctx, tt.user, tt.from, tt.to, index.Pagination{})
			} else {
				result, err = f.svc.List(ctx, tt.user, tt.from, tt.to, index.Pagination{})
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(result.WorkLogs); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if result.TotalCount != len(tt.want) {
				t.Errorf("TotalCount = %d, want %d", result.TotalCount, len(tt.want))
			}
		})
	}

	if _, err := f.svc.List(ctx, commander, "03/01/2025", "", index.Pagination{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad date err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.ListForManager(ctx, commander, "", "", index.Pagination{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("commander ListForManager err = %v, want ErrForbidden", err)
	}
}

func TestWorkLogService_GivenPatchWhenUpdatingThenRolesEnforced(t *testing.T) {
	f := newWorkLogFixture(t)
	ctx := context.Background()
	log := f.create(t, ulsan, "2025-03-01")

	note, status, bad, comment := "revised", "approved", "done", "good work"
	tests := []struct {
		name  string
		user  *models.User
		patch WorkLogPatch
		want  error
	}{
		{"other branch edits note", busan, WorkLogPatch{Note: &note}, ErrForbidden},
		{"author sets status", ulsan, WorkLogPatch{Status: &status}, ErrForbidden},
		{"author comments", ulsan, WorkLogPatch{CommanderComment: &comment}, ErrForbidden},
		{"unknown status", commander, WorkLogPatch{Status: &bad}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Update(ctx, tt.user, log.ID, tt.patch); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := f.svc.Update(ctx, ulsan, log.ID, WorkLogPatch{Note: &note})
	if err != nil {
		t.Fatal(err)
	}
	if got.Note != note {
		t.Errorf("Note = %q", got.Note)
	}

	got, err = f.svc.Update(ctx, commander, log.ID, WorkLogPatch{Status: &status, CommanderComment: &comment})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusApproved || got.StatusUpdatedAt == "" || got.CommanderComment != comment || got.CommanderCommentAt == "" {
		t.Errorf("reviewed log = %+v", got)
	}

	if _, err := f.svc.Update(ctx, commander, "worklog_missing", WorkLogPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing err = %v, want ErrNotFound", err)
	}
}

func TestWorkLogService_GivenLogWithImagesWhenDeletingThenRemovedEverywhere(t *testing.T) {
	f := newWorkLogFixture(t)
	ctx := context.Background()
	log, err := f.svc.Create(ctx, ulsan, WorkLogInput{
		Date:                  "2025-03-01",
		PhotoURLs:             []string{"p1.jpg"},
		WorklogPasteImageURLs: []string{"paste.png"},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.blobs.FailDelete = map[string]bool{"paste.png": true}

	if _, err := f.svc.Delete(ctx, busan, log.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other branch Delete err = %v, want ErrForbidden", err)
	}

	result, err := f.svc.Delete(ctx, ulsan, log.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result.FailedPhotos, []string{"paste.png"}) || !reflect.DeepEqual(f.blobs.Deleted, []string{"p1.jpg"}) {
		t.Errorf("result = %+v, deleted = %v", result, f.blobs.Deleted)
	}
	for _, list := range []string{keyspace.WorkLogIndex, keyspace.WorkLogsByBranch("울산")} {
		if n, _ := f.store.ListLength(ctx, list); n != 0 {
			t.Errorf("%s length = %d, want 0", list, n)
		}
	}
	if _, err := f.svc.Delete(ctx, commander, log.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestWorkLogService_GivenListWriteFailureWhenCreatingThenLogStillSaved(t *testing.T) {
	f := newWorkLogFixture(t)
	ctx := context.Background()
	f.store.FailOn(kv.OpListPrepend, errors.New("connection reset"))

	log, err := f.svc.Create(ctx, ulsan, WorkLogInput{Date: "2025-03-01"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.store.Get(ctx, keyspace.WorkLog(log.ID)); err != nil {
		t.Errorf("work log not stored: %v", err)
	}
}
