// Package index paginates the newest-first id lists in the key-value store.
//
// Without filters a page is a direct slice of the list. With filters the
// list is scanned from the head in windows of WindowSize ids, each window's
// entities are fetched in one batch and filtered in process, and pagination
// is applied to the accumulated matches. At most MaxWindows windows are
// read per request, so matches beyond the first WindowSize*MaxWindows ids
// are never counted.
package index

import (
	"context"
	"fmt"

	"refund-service/internal/kv"
)

const (
	WindowSize = 250
	MaxWindows = 10

	DefaultPageSize = 20
)

// Page is one page of matching ids and the number of matches found.
type Page struct {
	IDs        []string
	TotalCount int
}

// Pagination is a 1-based page request.
type Pagination struct {
	Page     int
	PageSize int
}

// normalize clamps page to >=1 and defaults a non-positive page size.
func (p Pagination) normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p Pagination) bounds() (start, end int) {
	start = (p.Page - 1) * p.PageSize
	return start, start + p.PageSize
}

// slice reads one page straight from the list.
func slice(ctx context.Context, store kv.Store, listKey string, p Pagination) (Page, error) {
	total, err := store.ListLength(ctx, listKey)
	if err != nil {
		return Page{}, fmt.Errorf("length of %s: %w", listKey, err)
	}

	start, end := p.bounds()
	if int64(start) >= total {
		return Page{IDs: []string{}, TotalCount: int(total)}, nil
	}

	ids, err := store.ListRange(ctx, listKey, int64(start), int64(end-1))
	if err != nil {
		return Page{}, fmt.Errorf("range of %s: %w", listKey, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return Page{IDs: ids, TotalCount: int(total)}, nil
}

// scan walks listKey window by window and collects the ids whose entity
// passes keep. Ids that no longer resolve are skipped. Any store error
// aborts the scan.
func scan[T any](
	ctx context.Context,
	store kv.Store,
	listKey string,
	entityKeys func([]string) []string,
	keep func(*T) bool,
	p Pagination,
) (Page, error) {
	var matched []string

	for window := 0; window < MaxWindows; window++ {
		start := int64(window * WindowSize)
		ids, err := store.ListRange(ctx, listKey, start, start+WindowSize-1)
		if err != nil {
			return Page{}, fmt.Errorf("window %d of %s: %w", window, listKey, err)
		}
		if len(ids) == 0 {
			break
		}

		entities, found, err := kv.BatchGetJSON[T](ctx, store, entityKeys(ids))
		if err != nil {
			return Page{}, fmt.Errorf("window %d of %s: %w", window, listKey, err)
		}
		for i := range entities {
			if found[i] && keep(&entities[i]) {
				matched = append(matched, ids[i])
			}
		}

		if len(ids) < WindowSize {
			break
		}
	}

	start, end := p.bounds()
	page := Page{IDs: []string{}, TotalCount: len(matched)}
	if start < len(matched) {
		page.IDs = matched[start:min(end, len(matched))]
	}
	return page, nil
}
