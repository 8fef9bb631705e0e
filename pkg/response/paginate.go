package response

import (
	"fmt"
	"strconv"
)

// Pagination defaults. Page sizing keeps formatted output under the token
// budget even when the caller's page size would exceed it.
const (
	DefaultPageSize      = 50
	DefaultPageMaxTokens = 8000
)

// Page is one slice of a paginated collection.
type Page[T any] struct {
	// Items are the raw items of this page.
	Items []T

	// Rendered are the formatted lines for the items, same order.
	Rendered []string

	// NextCursor resumes after this page; empty when the collection is
	// exhausted.
	NextCursor string

	// Total is the collection size at the time the page was taken.
	Total int
}

// PaginateOptions tune one Paginate call. The zero value gives the
// defaults.
type PaginateOptions struct {
	// PageSize caps items per page. Zero means DefaultPageSize.
	PageSize int

	// MaxTokens caps the estimated token cost of the rendered page.
	// Zero means DefaultPageMaxTokens.
	MaxTokens int

	// Estimator prices rendered lines. Nil means DefaultEstimator.
	Estimator Estimator
}

// Paginate returns one page of the collection produced by extract, starting
// at the given cursor. The collection length is snapshotted before slicing,
// so concurrent readers of the same collection each get a consistent page.
// An out-of-range cursor clamps to the end and yields an empty page with no
// next cursor; pagination never fails.
func Paginate[T any](extract func() []T, format func(T) string, cursor string, opts PaginateOptions) Page[T] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultPageMaxTokens
	}
	estimator := opts.Estimator
	if estimator == nil {
		estimator = DefaultEstimator()
	}

	items := extract()
	total := len(items)

	start := decodeCursor(cursor)
	if start > total {
		start = total
	}

	page := Page[T]{Total: total}
	budget := maxTokens
	end := start
	for end < total && end-start < pageSize {
		line := format(items[end])
		cost := estimator.Estimate(line)
		// Always make progress: the first item goes through even when it
		// alone exceeds the budget.
		if end > start && cost > budget {
			break
		}
		page.Items = append(page.Items, items[end])
		page.Rendered = append(page.Rendered, line)
		budget -= cost
		end++
	}

	if end < total {
		page.NextCursor = encodeCursor(end)
	}
	return page
}

// Cursors are opaque to clients but simply encode the next offset.

func encodeCursor(offset int) string {
	return fmt.Sprintf("offset:%d", offset)
}

func decodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	var offset int
	if _, err := fmt.Sscanf(cursor, "offset:%d", &offset); err != nil {
		// Bare numeric cursors are accepted too.
		n, nerr := strconv.Atoi(cursor)
		if nerr != nil {
			return 0
		}
		offset = n
	}
	if offset < 0 {
		return 0
	}
	return offset
}
