package store

import (
	"context"
	"fmt"
)

// AllPages calls fetch with successive pages of pageSize until a short page
// comes back, and returns everything collected.
func AllPages[T any](ctx context.Context, pageSize int, fetch func(ctx context.Context, page Paging) ([]T, error)) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	var all []T
	start := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, Paging{StartFrom: start, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		start += len(page)
	}
}

// Window applies paging to an already materialised slice.
func Window[T any](items []T, p Paging) []T {
	if p.StartFrom >= len(items) {
		return nil
	}
	if p.StartFrom > 0 {
		items = items[p.StartFrom:]
	}
	if p.PageSize > 0 && len(items) > p.PageSize {
		items = items[:p.PageSize]
	}
	return items
}
