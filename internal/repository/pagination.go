package repository

import "math"

// Catalog pages default to a storefront-friendly size; admin listings may
// ask for more but are capped so a single query cannot sweep the table.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageRequest struct {
	Page     int
	PageSize int
}

// normalize clamps the request into the allowed range. Repositories call it
// once and derive the SQL offset from the clamped values.
func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is only meaningful on a normalized request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// finish stamps the derived page count once Total is known.
func (r *PageResult[T]) finish() {
	if r.Total <= 0 || r.PageSize <= 0 {
		r.TotalPages = 0
		return
	}
	r.TotalPages = int(math.Ceil(float64(r.Total) / float64(r.PageSize)))
}
