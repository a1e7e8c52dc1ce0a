// Package domain holds the records, views and service contracts of the platform.
// It has no knowledge of http or of how the services are implemented.
package domain

const (
	// DefaultPageLimit is used when a listing request carries no limit.
	DefaultPageLimit = 10
	// MaxPageLimit caps the limit a client may ask for.
	MaxPageLimit = 100
)

// Owned is implemented by every record that belongs to a single user.
// The ownership guard runs on it before updates and deletes.
type Owned interface {
	OwnedBy() string
}

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

// NewPage returns a Page with out-of-range values replaced by defaults.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Number: number, Limit: limit}
}

// Offset is the number of rows skipped before the page starts.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// Paginated is one page of a listing plus the metadata to fetch the others.
type Paginated[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
}

// NewPaginated wraps docs of the given page out of total rows.
func NewPaginated[T any](docs []T, page Page, total int64) *Paginated[T] {
	if docs == nil {
		docs = []T{}
	}
	pages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	return &Paginated[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       page.Limit,
		Page:        page.Number,
		TotalPages:  pages,
		HasPrevPage: page.Number > 1,
		HasNextPage: page.Number < pages,
	}
}
