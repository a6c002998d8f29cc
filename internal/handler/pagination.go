package handler

import (
	"math"
	"strconv"
	"strings"

	"gamecatalog/backend/internal/store"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	// maxPage keeps (page-1)*limit inside int.
	maxPage = math.MaxInt / maxLimit
)

// Pagination is a clamped page request.
type Pagination struct {
	Page  int
	Limit int
}

// PaginationMeta defines the structure for pagination metadata.
type PaginationMeta struct {
	Page    int   `json:"page" example:"1"`
	Limit   int   `json:"limit" example:"10"`
	Total   int64 `json:"total" example:"42"`
	Pages   int   `json:"pages" example:"5"`
	HasNext bool  `json:"hasNext" example:"true"`
	HasPrev bool  `json:"hasPrev" example:"false"`
}

// NewPagination clamps raw page and limit values. Only the leading integer of
// each value counts ("2.5" is 2); missing or non-numeric input falls back to
// the defaults.
func NewPagination(rawPage, rawLimit string) Pagination {
	page, ok := leadingInt(rawPage)
	if !ok {
		page = defaultPage
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, ok := leadingInt(rawLimit)
	if !ok {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// leadingInt parses the optional sign and digits at the start of s, after
// leading whitespace. Values beyond the int range saturate.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		if s[0] == '-' {
			return math.MinInt, true
		}
		return math.MaxInt, true
	}
	return n, true
}

// ParsePagination reads page and limit from the query string.
func ParsePagination(c *gin.Context) Pagination {
	return NewPagination(c.Query("page"), c.Query("limit"))
}

// Skip is the number of rows before this page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) storePage() store.Page {
	return store.Page{Offset: p.Skip(), Limit: p.Limit}
}

// Meta builds the response metadata once the total is known.
func (p Pagination) Meta(total int64) PaginationMeta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PaginationMeta{
		Page:    p.Page,
		Limit:   p.Limit,
		Total:   total,
		Pages:   pages,
		HasNext: p.Page < pages,
		HasPrev: p.Page > 1,
	}
}
