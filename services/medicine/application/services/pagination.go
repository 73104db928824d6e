package services

import "math"

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// MaxPage keeps (page-1)*MaxPageSize inside int. Any page past it is empty
// anyway, so clamping changes no result.
const MaxPage = math.MaxInt / MaxPageSize

// NormalizePage clamps page to [1, MaxPage] and pageSize to [1, MaxPageSize].
// Zero values (absent or unparseable input) take the defaults.
func NormalizePage(page, pageSize int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}
