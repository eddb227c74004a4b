package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SortDirection orders a column ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Flip returns the opposite direction
func (d SortDirection) Flip() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Valid reports whether d is asc or desc
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// FetchDescriptor describes one page request. Two descriptors are the same
// request exactly when they compare equal with ==.
type FetchDescriptor struct {
	First         int           `json:"first"`
	Offset        int           `json:"offset"`
	SortDirection SortDirection `json:"sortDirection"`
	OrderBy       string        `json:"orderBy"`
}

// Page is one page of results with the total across all pages
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// MaxFirst caps the page size accepted from query parameters
const MaxFirst = 100

// ParseDescriptor reads first, offset, sortDirection and orderBy from query
// parameters. Missing parameters take their value from defaults.
func ParseDescriptor(q url.Values, defaults FetchDescriptor) (FetchDescriptor, error) {
	d := defaults

	if v := q.Get("first"); v != "" {
		first, err := strconv.Atoi(v)
		if err != nil {
			return FetchDescriptor{}, fmt.Errorf("invalid first: %w", err)
		}
		if first < 1 || first > MaxFirst {
			return FetchDescriptor{}, fmt.Errorf("first must be between 1 and %d", MaxFirst)
		}
		d.First = first
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return FetchDescriptor{}, fmt.Errorf("invalid offset: %w", err)
		}
		if offset < 0 {
			return FetchDescriptor{}, fmt.Errorf("offset must not be negative")
		}
		d.Offset = offset
	}

	if v := q.Get("sortDirection"); v != "" {
		dir := SortDirection(strings.ToLower(v))
		if !dir.Valid() {
			return FetchDescriptor{}, fmt.Errorf("invalid sortDirection %q", v)
		}
		d.SortDirection = dir
	}

	if v := q.Get("orderBy"); v != "" {
		d.OrderBy = v
	}

	if !d.SortDirection.Valid() {
		d.SortDirection = SortAsc
	}

	return d, nil
}

// Values encodes d as query parameters, the inverse of ParseDescriptor
func (d FetchDescriptor) Values() url.Values {
	q := url.Values{}
	q.Set("first", strconv.Itoa(d.First))
	q.Set("offset", strconv.Itoa(d.Offset))
	q.Set("sortDirection", string(d.SortDirection))
	if d.OrderBy != "" {
		q.Set("orderBy", d.OrderBy)
	}
	return q
}
