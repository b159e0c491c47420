// Package paginator splits ordered listings into fixed-size numbered pages.
//
// Page numbers are 1-based and forgiving: a missing or non-numeric number
// resolves to the first page, anything below 1 clamps to 1 and anything past
// the end clamps to the last page. An empty listing still has one (empty) page.
package paginator

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 10

// Window describes the slice of a listing that makes up one page.
type Window struct {
	Number   int
	NumPages int
	Total    int
	PageSize int
	Offset   int
	Limit    int
}

// Page is one page of items plus the navigation state needed to render links.
type Page[T any] struct {
	Items    []T `json:"items"`
	Number   int `json:"page"`
	NumPages int `json:"num_pages"`
	Total    int `json:"total"`
	PageSize int `json:"page_size"`
}

// Resolve computes the page window for a listing of total items.
func Resolve(total, pageSize int, raw string) Window {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}

	numPages := 1
	if total > 0 {
		numPages = (total + pageSize - 1) / pageSize
	}

	number := ParseNumber(raw)
	if number > numPages {
		number = numPages
	}

	offset := (number - 1) * pageSize
	limit := pageSize
	if rest := total - offset; rest < limit {
		limit = max(rest, 0)
	}

	return Window{
		Number:   number,
		NumPages: numPages,
		Total:    total,
		PageSize: pageSize,
		Offset:   offset,
		Limit:    limit,
	}
}

// ParseNumber reads a requested page number, returning 1 for anything unusable.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate pages an in-memory sequence.
func Paginate[T any](items []T, pageSize int, raw string) Page[T] {
	w := Resolve(len(items), pageSize, raw)
	return NewPage(items[w.Offset:w.Offset+w.Limit], w)
}

// NewPage wraps items already fetched for window w, e.g. by LIMIT/OFFSET.
func NewPage[T any](items []T, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Number:   w.Number,
		NumPages: w.NumPages,
		Total:    w.Total,
		PageSize: w.PageSize,
	}
}

func (p Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// PageRange lists every page number, for rendering the page links.
func (p Page[T]) PageRange() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// StartIndex is the 1-based position of the first item on the page, 0 when empty.
func (p Page[T]) StartIndex() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Number-1)*p.PageSize + 1
}
