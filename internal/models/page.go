package models

import "strconv"

// PageSize is the page size every list view asks the backend for.
const PageSize = 10

// pagerWindow is how many page links a Pager lists on each side of the
// current page.
const pagerWindow = 5

// ParsePage reads a 1-based page number. Anything missing or below 1 is
// page 1.
func ParsePage(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// PageNo converts a 1-based page to the backend's zero-based pageNo.
func PageNo(page int) int {
	if page < 1 {
		return 0
	}
	return page - 1
}

// Pager is the pagination block of a list view model.
type Pager struct {
	Page       int   `json:"page"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasNext"`
	Pages      []int `json:"pages"`
}

// NewPager builds the pagination block for page of totalPages. Pages lists
// at most pagerWindow links either side of page.
func NewPager(page, totalPages int, totalItems int64) Pager {
	if page < 1 {
		page = 1
	}
	if totalPages < 0 {
		totalPages = 0
	}
	p := Pager{
		Page:       page,
		TotalPages: totalPages,
		TotalItems: totalItems,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	first, last := max(1, page-pagerWindow), min(totalPages, page+pagerWindow)
	if first > last {
		return p
	}
	p.Pages = make([]int, 0, last-first+1)
	for i := first; i <= last; i++ {
		p.Pages = append(p.Pages, i)
	}
	return p
}
