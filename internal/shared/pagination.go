package shared

import "math"

const (
	// DefaultPerPage applies when a caller omits the page size.
	DefaultPerPage = 20
	// MaxPerPage caps the page size accepted from callers.
	MaxPerPage = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// PageRequest is the page/limit pair parsed from a request.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize clamps the request into the accepted range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPerPage
	}
	if p.Limit > MaxPerPage {
		p.Limit = MaxPerPage
	}
	return p
}
