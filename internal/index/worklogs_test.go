package index

import (
	"context"
	"reflect"
	"testing"

	"refund-service/internal/keyspace"
	"refund-service/internal/kv"
	"refund-service/internal/matching"
	"refund-service/internal/models"
)

func seedWorkLogs(t *testing.T, store kv.Store, logs ...models.WorkLog) {
	t.Helper()
	ctx := context.Background()
	ix := NewWorkLogIndex(store, testLogger())
	for i := range logs {
		if err := kv.SetJSON(ctx, store, keyspace.WorkLog(logs[i].ID), logs[i]); err != nil {
			t.Fatal(err)
		}
		if err := ix.Add(ctx, &logs[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWorkLogIndex_Query(t *testing.T) {
	store := kv.NewMemoryStore()
	seedWorkLogs(t, store,
		models.WorkLog{ID: "w1", Date: "2025-01-30", BranchID: "강남"},
		models.WorkLog{ID: "w2", Date: "2025-02-01", BranchID: "장한평"},
		models.WorkLog{ID: "w3", Date: "2025-02-01", BranchID: "부산"},
		models.WorkLog{ID: "w4", Date: "", BranchID: "부산"},
		models.WorkLog{ID: "w5", Date: "2025-02-10", BranchID: "강남"},
	)
	ix := NewWorkLogIndex(store, testLogger())

	tests := []struct {
		name  string
		query WorkLogQuery
		want  []string
		total int
	}{
		{
			name:  "GivenNoFilterThenWholeListNewestFirst",
			query: WorkLogQuery{},
			want:  []string{"w5", "w4", "w3", "w2", "w1"},
			total: 5,
		},
		{
			name:  "GivenDateRangeThenInclusiveBounds",
			query: WorkLogQuery{Filter: matching.WorkLogFilter{From: "2025-02-01", To: "2025-02-01"}},
			want:  []string{"w3", "w2"},
			total: 2,
		},
		{
			name:  "GivenOnlyFromThenOpenEnded",
			query: WorkLogQuery{Filter: matching.WorkLogFilter{From: "2025-02-02"}},
			want:  []string{"w5"},
			total: 1,
		},
		{
			name:  "GivenExclusionThenBranchDroppedAndUndatedSkipped",
			query: WorkLogQuery{Filter: matching.WorkLogFilter{ExcludeBranch: "장한평"}},
			want:  []string{"w5", "w3", "w1"},
			total: 3,
		},
		{
			name:  "GivenBranchListThenOnlyThatBranch",
			query: WorkLogQuery{ListKey: keyspace.WorkLogsByBranch("강남"), Filter: matching.WorkLogFilter{To: "2025-12-31"}},
			want:  []string{"w5", "w1"},
			total: 2,
		},
		{
			name:  "GivenSecondPageThenRemainder",
			query: WorkLogQuery{Filter: matching.WorkLogFilter{ExcludeBranch: "장한평"}, Pagination: Pagination{Page: 2, PageSize: 2}},
			want:  []string{"w1"},
			total: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Query(context.Background(), tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got.IDs, tt.want) || got.TotalCount != tt.total {
				t.Errorf("Query = %+v, want %v total %d", got, tt.want, tt.total)
			}
		})
	}
}
