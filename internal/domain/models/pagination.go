package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PaginationQuery is a 1-based page request
type PaginationQuery struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize applies defaults to out-of-range values
func (q PaginationQuery) Normalize() PaginationQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

// Offset is the index of the first item of the page, saturating at math.MaxInt
func (q PaginationQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// PaginationResult is one page of a listing.
// Total counts ids in the all-ids set, Items only the ids that resolved.
type PaginationResult[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationResult builds a page with totalPages = ceil(total/limit)
func NewPaginationResult[T any](items []T, total int, q PaginationQuery) PaginationResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = total / q.Limit
		if total%q.Limit != 0 {
			totalPages++
		}
	}
	return PaginationResult[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}
