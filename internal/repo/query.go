package repo

import (
	"fmt"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// EventFilter describes one listing request. ViewerID 0 means the requester
// is anonymous.
type EventFilter struct {
	Category string
	Search   string
	ViewerID int64
	Page     int
	PerPage  int
}

// Normalize clamps pagination to sane bounds. Pages are 1-indexed; a page
// past the end simply yields an empty result set.
func (f EventFilter) Normalize() EventFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	return f
}

// whereClause composes the optional filters and the visibility rule into a
// single WHERE fragment with positional arguments.
func (f EventFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.ViewerID == 0 {
		conds = append(conds, "e.is_private = FALSE")
	} else {
		args = append(args, f.ViewerID)
		conds = append(conds, fmt.Sprintf("(e.is_private = FALSE OR e.user_id = $%d)", len(args)))
	}

	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("e.category = $%d", len(args)))
	}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("e.name ILIKE $%d", len(args)))
	}

	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

func (f EventFilter) limitOffset() (limit, offset int) {
	f = f.Normalize()
	return f.PerPage, (f.Page - 1) * f.PerPage
}

// PageCount reports how many pages it takes to hold total rows.
func PageCount(total, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return (total + perPage - 1) / perPage
}
