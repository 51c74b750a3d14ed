// Package pagination bounds list sizes and orders record listings.
package pagination

import (
	"gorm.io/gorm"
)

// ListRequest holds the optional limit query parameter of a list endpoint.
type ListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Defaults fills in def when no limit was given and caps the limit at max.
func (r *ListRequest) Defaults(def, max int) {
	if r.Limit <= 0 {
		r.Limit = def
	}
	if r.Limit > max {
		r.Limit = max
	}
}

// Clamp returns limit bounded to [1, max], substituting max for non-positive values.
func Clamp(limit, max int) int {
	r := ListRequest{Limit: limit}
	r.Defaults(max, max)
	return r.Limit
}

// Newest returns a GORM scope ordering by column descending and applying limit.
func Newest(column string, limit int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " DESC").Limit(limit)
	}
}
