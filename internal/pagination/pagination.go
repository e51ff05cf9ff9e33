package pagination

import "strconv"

// Info is page metadata for a paginated listing.
type Info struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasPrev     bool `json:"has_prev"`
	HasNext     bool `json:"has_next"`
	PageSize    int  `json:"page_size"`
}

// Paginate derives page metadata. The page is not clamped: an out-of-range
// page keeps its number and simply has no next page.
func Paginate(page int, totalCount int, pageSize int) Info {
	totalPages := (totalCount + pageSize - 1) / pageSize
	return Info{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasPrev:     page > 1,
		HasNext:     page < totalPages,
		PageSize:    pageSize,
	}
}

// ParsePage reads a page number from query input, falling back to 1 for
// anything empty, non-numeric or below 1.
func ParsePage(raw string) int {
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
