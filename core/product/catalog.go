package product

import (
	"sort"
	"strings"
)

// Filter carries the raw catalog query parameters. Values stay as the client
// sent them so that the cache key is a pure function of the request.
type Filter struct {
	Category     string
	Search       string
	Available    string
	FreeDelivery string
	PriceMin     string
	PriceMax     string
	Sort         string
	SortType     string
	Tags         []string
}

// CacheKey concatenates every active parameter; identical filter combinations
// therefore share a cache entry. Tags are sorted so their order in the query
// string does not matter.
func (f Filter) CacheKey() string {
	tags := make([]string, len(f.Tags))
	copy(tags, f.Tags)
	sort.Strings(tags)

	var b strings.Builder
	b.WriteString(f.Search)
	b.WriteString(f.Available)
	b.WriteString(f.FreeDelivery)
	b.WriteString(f.PriceMin)
	b.WriteString(f.PriceMax)
	b.WriteString(f.Sort)
	b.WriteString(f.SortType)
	b.WriteString(strings.Join(tags, ""))
	b.WriteString(f.Category)

	return b.String()
}

// orderBy maps the client sort field to a column of the catalog query.
// Unknown fields fall back to the creation date.
func (f Filter) orderBy() string {
	var col string
	switch f.Sort {
	case "reviews":
		col = "reviews_count"
	case "date", "":
		col = "created_at"
	case "price", "rating", "title":
		col = f.Sort
	default:
		col = "created_at"
	}

	if f.SortType == "dec" {
		return col + " DESC"
	}
	return col + " ASC"
}

// LastPage is the ceiling of items over the page size.
func LastPage(items int, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (items + limit - 1) / limit
}

// Paginate slices one page out of the full cached listing.
func Paginate(items []Listed, page int, limit int) []Listed {
	start, end := pageBounds(len(items), page, limit)
	if start == end {
		return []Listed{}
	}
	return items[start:end]
}

// PaginateSales is Paginate for the sales listing.
func PaginateSales(items []Sale, page int, limit int) []Sale {
	start, end := pageBounds(len(items), page, limit)
	if start == end {
		return []Sale{}
	}
	return items[start:end]
}

func pageBounds(n int, page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}

	start := (page - 1) * limit
	if start >= n {
		return 0, 0
	}

	end := start + limit
	if end > n {
		end = n
	}

	return start, end
}
