package response

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%03d", i)
	}
	return items
}

func identity(s string) string { return s }

func TestPaginateRoundTrip(t *testing.T) {
	const total, pageSize = 23, 5
	items := numberedItems(total)
	extract := func() []string { return items }

	var collected []string
	cursor := ""
	pages := 0
	for {
		page := Paginate(extract, identity, cursor, PaginateOptions{PageSize: pageSize})
		pages++
		assert.Equal(t, total, page.Total)
		collected = append(collected, page.Items...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	// ceil(23/5) pages reproducing the collection exactly once each.
	assert.Equal(t, 5, pages)
	assert.Equal(t, items, collected)
}

func TestPaginateRenderedMatchesItems(t *testing.T) {
	items := numberedItems(3)
	page := Paginate(func() []string { return items }, func(s string) string {
		return "line: " + s
	}, "", PaginateOptions{})

	require.Len(t, page.Rendered, 3)
	for i, item := range page.Items {
		assert.Equal(t, "line: "+item, page.Rendered[i])
	}
}

func TestPaginateOutOfRangeCursorClamps(t *testing.T) {
	items := numberedItems(4)
	page := Paginate(func() []string { return items }, identity, "offset:100", PaginateOptions{})

	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, 4, page.Total)
}

func TestPaginateInvalidCursorStartsOver(t *testing.T) {
	items := numberedItems(3)
	for _, cursor := range []string{"garbage", "offset:abc", "-5"} {
		page := Paginate(func() []string { return items }, identity, cursor, PaginateOptions{})
		require.NotEmpty(t, page.Items, "cursor %q", cursor)
		assert.Equal(t, "item-000", page.Items[0], "cursor %q", cursor)
	}
}

func TestPaginateBareNumericCursor(t *testing.T) {
	items := numberedItems(5)
	page := Paginate(func() []string { return items }, identity, "3", PaginateOptions{})

	require.Len(t, page.Items, 2)
	assert.Equal(t, "item-003", page.Items[0])
}

func TestPaginateTokenBudgetShrinksPage(t *testing.T) {
	items := numberedItems(10)
	// Each rendered line is 8 chars, 2 heuristic tokens. A 5-token budget
	// admits two lines before the third overflows.
	page := Paginate(func() []string { return items }, identity, "", PaginateOptions{
		MaxTokens: 5,
		Estimator: HeuristicEstimator{},
	})

	assert.Len(t, page.Items, 2)
	assert.Equal(t, "offset:2", page.NextCursor)
}

func TestPaginateOversizedFirstItemStillReturned(t *testing.T) {
	items := []string{"this single line is far longer than the whole token budget allows"}
	page := Paginate(func() []string { return items }, identity, "", PaginateOptions{
		MaxTokens: 1,
		Estimator: HeuristicEstimator{},
	})

	require.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)
}

func TestPaginateExactBoundary(t *testing.T) {
	items := numberedItems(10)
	page := Paginate(func() []string { return items }, identity, "offset:5", PaginateOptions{PageSize: 5})

	assert.Len(t, page.Items, 5)
	assert.Empty(t, page.NextCursor)
}
