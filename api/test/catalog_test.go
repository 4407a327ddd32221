package test

import (
	"net/http"
	"testing"

	"github.com/LeoWanLW/Megano-Store/core/product"
)

type catalogTest struct {
	*TestEnv
}

func TestCatalog(t *testing.T) {
	env, err := NewTestEnv(t, "catalog_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &catalogTest{env}

	keyboard := env.CreateProduct(t, "mechanical keyboard", "89.90", 10, true, false)
	_ = env.CreateProduct(t, "wireless mouse", "10.50", 5, true, true)
	broken := env.CreateProduct(t, "broken keyboard", "5.00", 0, false, false)

	// Unfiltered listing serves everything.
	p := ct.catalogOK(t, "")
	if len(p.Items) != 3 {
		t.Fatalf("expected 3 products, got %d", len(p.Items))
	}

	// Text search matches the title.
	p = ct.catalogOK(t, "?filter[name]=keyboard")
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 keyboards, got %+v", p.Items)
	}

	// The availability filter drops sold out products.
	p = ct.catalogOK(t, "?filter[available]=true")
	for _, it := range p.Items {
		if it.ID == broken {
			t.Fatal("expected the sold out product to be filtered out")
		}
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 available products, got %d", len(p.Items))
	}

	// Price sorting, most expensive first.
	p = ct.catalogOK(t, "?sort=price&sortType=dec")
	if len(p.Items) == 0 || p.Items[0].ID != keyboard {
		t.Fatalf("expected the keyboard first, got %+v", p.Items)
	}

	// Pagination slices the full listing.
	p = ct.catalogOK(t, "?limit=2")
	if len(p.Items) != 2 || p.CurrentPage != 1 || p.LastPage != 2 {
		t.Fatalf("expected the first of 2 pages, got %+v", p)
	}
	p = ct.catalogOK(t, "?limit=2&currentPage=2")
	if len(p.Items) != 1 || p.CurrentPage != 2 {
		t.Fatalf("expected the last page with 1 product, got %+v", p)
	}

	// Listings come from the cache once warmed, so a product added later
	// does not show up until the entry expires.
	if env.Cache.Len() == 0 {
		t.Fatal("expected the catalog queries to be cached")
	}
	env.CreateProduct(t, "new arrival", "1.00", 1, true, false)
	p = ct.catalogOK(t, "")
	if len(p.Items) != 3 {
		t.Fatalf("expected the cached listing with 3 products, got %d", len(p.Items))
	}
}

func (ct *catalogTest) catalogOK(t *testing.T, query string) product.Page {
	var p product.Page
	if status := ct.DoJSON(t, http.MethodGet, "/catalog"+query, nil, &p); status != http.StatusOK {
		t.Fatalf("can't fetch catalog%s: status code %d", query, status)
	}
	return p
}
