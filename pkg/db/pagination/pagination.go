package pagination

import "gorm.io/gorm"

// Pagination carries limit/offset query parameters for list endpoints.
type Pagination struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// Clamp normalizes the values into [1, max] for limit and [0, inf) for offset.
func (p Pagination) Clamp(def, max int) Pagination {
	out := p
	if out.Limit <= 0 {
		out.Limit = def
	}
	if out.Limit > max {
		out.Limit = max
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return out
}

// Apply adds LIMIT/OFFSET to a gorm statement.
func (p Pagination) Apply(stmt *gorm.DB) *gorm.DB {
	return stmt.Offset(p.Offset).Limit(p.Limit)
}
