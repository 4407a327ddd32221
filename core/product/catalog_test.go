package product

import "testing"

func TestFilterCacheKey(t *testing.T) {
	f := Filter{
		Category:     "3",
		Search:       "phone",
		Available:    "true",
		FreeDelivery: "false",
		PriceMin:     "10",
		PriceMax:     "500",
		Sort:         "price",
		SortType:     "dec",
		Tags:         []string{"b", "a"},
	}

	// Tag order in the query string must not fragment the cache.
	g := f
	g.Tags = []string{"a", "b"}
	if f.CacheKey() != g.CacheKey() {
		t.Fatal("cache key must not depend on tag order")
	}

	// Every parameter participates in the key.
	variants := []Filter{
		{Search: "phone"},
		{Available: "true"},
		{FreeDelivery: "true"},
		{PriceMin: "10"},
		{PriceMax: "500"},
		{Sort: "price"},
		{SortType: "dec"},
		{Tags: []string{"a"}},
		{Category: "3"},
	}
	base := Filter{}.CacheKey()
	for i, v := range variants {
		if v.CacheKey() == base {
			t.Errorf("variant %d: expected a distinct cache key", i)
		}
	}
}

func TestFilterOrderBy(t *testing.T) {
	tests := []struct {
		sort     string
		sortType string
		want     string
	}{
		{"price", "inc", "price ASC"},
		{"price", "dec", "price DESC"},
		{"rating", "", "rating ASC"},
		{"title", "dec", "title DESC"},
		{"reviews", "", "reviews_count ASC"},
		{"date", "dec", "created_at DESC"},
		{"", "", "created_at ASC"},
		{"drop table", "dec", "created_at DESC"},
	}

	for _, tt := range tests {
		f := Filter{Sort: tt.sort, SortType: tt.sortType}
		if got := f.orderBy(); got != tt.want {
			t.Errorf("orderBy(%q, %q): expected %q, got %q", tt.sort, tt.sortType, tt.want, got)
		}
	}
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		items, limit, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{40, 20, 2},
		{5, 0, 0},
	}

	for _, tt := range tests {
		if got := LastPage(tt.items, tt.limit); got != tt.want {
			t.Errorf("LastPage(%d, %d): expected %d, got %d", tt.items, tt.limit, tt.want, got)
		}
	}
}

func TestPaginate(t *testing.T) {
	items := make([]Listed, 5)
	for i := range items {
		items[i].ID = int64(i + 1)
	}

	page := Paginate(items, 2, 2)
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 4 {
		t.Fatalf("expected products 3 and 4, got %+v", page)
	}

	page = Paginate(items, 3, 2)
	if len(page) != 1 || page[0].ID != 5 {
		t.Fatalf("expected the last product alone, got %+v", page)
	}

	if page = Paginate(items, 4, 2); len(page) != 0 {
		t.Fatalf("expected an empty page past the end, got %+v", page)
	}

	// Page numbers below one behave as the first page.
	if page = Paginate(items, 0, 2); len(page) != 2 || page[0].ID != 1 {
		t.Fatalf("expected the first page, got %+v", page)
	}
}
