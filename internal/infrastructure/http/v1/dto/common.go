// Package dto holds the request and response shapes of the HTTP API.
// Responses reuse the domain types, which carry their own JSON tags.
package dto

import (
	"time"

	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/documents"
)

// ListResponse wraps one page of results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse converts a domain page.
func NewListResponse[T any](r domain.ListResult[T]) ListResponse {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// ItemsResponse wraps an unpaged collection.
type ItemsResponse struct {
	Items any `json:"items"`
}

// ListQuery is the catalog listing query string.
type ListQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a catalog filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	return domain.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}.Normalize()
}

// DocumentListQuery is the document journal query string.
// Dates are inclusive calendar days.
type DocumentListQuery struct {
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a document filter.
func (q DocumentListQuery) ToFilter() documents.ListFilter {
	f := documents.ListFilter{
		DateFrom: q.DateFrom,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.DateTo != nil {
		end := q.DateTo.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &end
	}
	return f
}
