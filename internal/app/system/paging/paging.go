// internal/app/system/paging/paging.go
package paging

// DefaultLimit is the page size used when the caller does not send one.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Page is a normalized 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults: page < 1 becomes 1, limit < 1 becomes
// DefaultLimit and limit > MaxLimit is capped.
func Normalize(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Skip returns the number of documents to skip for Mongo Find().SetSkip().
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// TotalPages returns ceil(total/limit). Zero results give zero pages.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
