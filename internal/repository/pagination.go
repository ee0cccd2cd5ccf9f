package repository

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Page selects a 1-indexed window of a listing.
type Page struct {
	Number int
	Size   int
}

// NewPage normalises page parameters; non-positive values fall back to the defaults.
func NewPage(number, size int) Page {
	if number <= 0 {
		number = DefaultPage
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return Page{Number: number, Size: size}
}

// Offset returns the number of records skipped before this page. ok is false
// when the offset does not fit in an int64; such a page lies past any data.
func (p Page) Offset() (offset int64, ok bool) {
	skipped, size := int64(p.Number-1), int64(p.Size)
	if skipped > 0 && size > math.MaxInt64/skipped {
		return 0, false
	}
	return skipped * size, true
}

// Beyond reports whether the page starts at or after the last of total records.
func (p Page) Beyond(total int64) bool {
	offset, ok := p.Offset()
	return !ok || offset >= total
}

// TotalPages returns ceil(total / size).
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	size := int64(p.Size)
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return int(pages)
}

// window returns slice bounds for this page over n items; out-of-range pages are empty.
func (p Page) window(n int) (int, int) {
	if p.Beyond(int64(n)) {
		return n, n
	}
	offset, _ := p.Offset()
	start := int(offset)
	if p.Size >= n-start {
		return start, n
	}
	return start, start + p.Size
}

// validID reports whether id can reference a stored record. Ids are UUIDs.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
