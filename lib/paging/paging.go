// Package paging slices ordered result sets into limit/offset windows.
package paging

import "strconv"

// All as a limit disables the upper bound of a window
const All = -1

const (
	DefaultReferralLimit = 10
	DefaultUserLimit     = 50
	MaxUserLimit         = 100
)

type Window struct {
	Limit  int
	Offset int
}

type Page[T any] struct {
	Items   []T
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// Slice returns the contiguous window [offset, offset+limit) of items clipped
// to its bounds. Total is always the length of items before slicing.
// An offset past the end yields an empty page.
func Slice[T any](items []T, w Window) Page[T] {
	total := len(items)
	offset := w.Offset
	if offset < 0 {
		offset = 0
	}
	page := Page[T]{
		Items:  []T{},
		Total:  total,
		Limit:  w.Limit,
		Offset: offset,
	}
	if offset >= total {
		return page
	}
	end := total
	if w.Limit >= 0 && w.Limit < total-offset {
		end = offset + w.Limit
		page.HasMore = true
	}
	page.Items = items[offset:end]
	return page
}

// Parse reads limit and offset query values. Missing or malformed values
// fall back to def and zero, negative values are treated as missing, and
// the limit is clamped to maxLimit when maxLimit > 0.
func Parse(limit, offset string, def, maxLimit int) Window {
	w := Window{Limit: def}
	if n, err := strconv.Atoi(limit); err == nil && n >= 0 {
		w.Limit = n
	}
	if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
		w.Offset = n
	}
	if maxLimit > 0 && w.Limit > maxLimit {
		w.Limit = maxLimit
	}
	return w
}
