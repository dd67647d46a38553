package common

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps the limit query parameter.
const MaxPerPage = 200

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}

// Window returns the [start, end) bounds of page within total items.
func Window(page, perPage, total int) (start, end int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return 0, total
	}
	start = (page - 1) * perPage
	if start > total {
		start = total
	}
	end = start + perPage
	if end > total {
		end = total
	}
	return start, end
}
