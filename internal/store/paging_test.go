package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllPagesLoopsUntilShortPage(t *testing.T) {
	source := []int{1, 2, 3, 4, 5, 6, 7}
	var calls []Paging
	all, err := AllPages(context.Background(), 3, func(_ context.Context, p Paging) ([]int, error) {
		calls = append(calls, p)
		return Window(source, p), nil
	})
	require.NoError(t, err)
	assert.Equal(t, source, all)
	assert.Equal(t, []Paging{{0, 3}, {3, 3}, {6, 3}}, calls)
}

func TestAllPagesExactMultipleFetchesEmptyTail(t *testing.T) {
	source := []int{1, 2, 3, 4}
	calls := 0
	all, err := AllPages(context.Background(), 2, func(_ context.Context, p Paging) ([]int, error) {
		calls++
		return Window(source, p), nil
	})
	require.NoError(t, err)
	assert.Equal(t, source, all)
	assert.Equal(t, 3, calls)
}

func TestAllPagesPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := AllPages(context.Background(), 2, func(context.Context, Paging) ([]int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = AllPages(context.Background(), 0, func(context.Context, Paging) ([]int, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestAllPagesStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AllPages(ctx, 2, func(context.Context, Paging) ([]int, error) {
		return []int{1, 2}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWindow(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	tests := []struct {
		name string
		p    Paging
		want []string
	}{
		{"all", Paging{}, items},
		{"first two", Paging{PageSize: 2}, []string{"a", "b"}},
		{"offset", Paging{StartFrom: 1, PageSize: 2}, []string{"b", "c"}},
		{"offset no size", Paging{StartFrom: 3}, []string{"d"}},
		{"past end", Paging{StartFrom: 4}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Window(items, tt.p))
		})
	}
}
