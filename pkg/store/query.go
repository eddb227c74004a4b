package store

import (
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/datahub/pkg/listing"
)

// Filter narrows a list query. Empty fields match everything.
type Filter struct {
	Status string
}

// orderColumns maps API field names to SQL columns for one table
type orderColumns struct {
	fields   map[string]string
	fallback string
}

// orderClause builds the ORDER BY clause for d. The id tiebreaker keeps
// paging stable when the sort column has duplicates.
func (o orderColumns) orderClause(d listing.FetchDescriptor) string {
	col, ok := o.fields[d.OrderBy]
	if !ok {
		col = o.fallback
	}
	dir := "ASC"
	if d.SortDirection == listing.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id ASC", col, dir)
}

// limit returns the LIMIT for d; a non-positive First means the default page
func limit(d listing.FetchDescriptor) int {
	if d.First <= 0 {
		return 10
	}
	if d.First > listing.MaxFirst {
		return listing.MaxFirst
	}
	return d.First
}

func offset(d listing.FetchDescriptor) int {
	if d.Offset < 0 {
		return 0
	}
	return d.Offset
}

func encodeList(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode list column: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string, dest interface{}) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("failed to decode list column: %w", err)
	}
	return nil
}
