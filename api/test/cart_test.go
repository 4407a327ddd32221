package test

import (
	"net/http"
	"testing"

	"github.com/LeoWanLW/Megano-Store/core/product"
)

type cartTest struct {
	*TestEnv
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}

	keyboard := env.CreateProduct(t, "keyboard", "25.00", 10, true, false)
	mouse := env.CreateProduct(t, "mouse", "10.50", 5, true, true)

	// Anonymous visitors get a working basket.
	items := rt.addItemOK(t, keyboard, 2)
	rt.requireCount(t, items, keyboard, 2)

	items = rt.addItemOK(t, mouse, 1)
	rt.requireCount(t, items, mouse, 1)

	// Adding the same product again accumulates.
	items = rt.addItemOK(t, keyboard, 3)
	rt.requireCount(t, items, keyboard, 5)

	// Removing more than present hides the product instead of going negative.
	items = rt.removeItemOK(t, keyboard, 10)
	if len(items) != 1 || items[0].ID != mouse {
		t.Fatalf("expected only the mouse to remain, got %+v", items)
	}

	// Logging in merges the session basket into the durable one.
	env.Login(t)
	items = rt.showOK(t)
	rt.requireCount(t, items, mouse, 1)

	items = rt.addItemOK(t, keyboard, 4)
	rt.requireCount(t, items, keyboard, 4)

	// Logging out persists the basket and leaves the visitor with none.
	env.Logout(t)
	if items = rt.showOK(t); len(items) != 0 {
		t.Fatalf("expected an empty anonymous basket, got %+v", items)
	}

	// Logging back in restores the saved basket.
	env.Login(t)
	items = rt.showOK(t)
	rt.requireCount(t, items, keyboard, 4)
	rt.requireCount(t, items, mouse, 1)
}

func (rt *cartTest) showOK(t *testing.T) []product.Listed {
	var items []product.Listed
	if status := rt.DoJSON(t, http.MethodGet, "/basket", nil, &items); status != http.StatusOK {
		t.Fatalf("can't fetch basket: status code %d", status)
	}
	return items
}

func (rt *cartTest) addItemOK(t *testing.T, productID int64, count int) []product.Listed {
	return rt.mutateOK(t, http.MethodPost, productID, count)
}

func (rt *cartTest) removeItemOK(t *testing.T, productID int64, count int) []product.Listed {
	return rt.mutateOK(t, http.MethodDelete, productID, count)
}

func (rt *cartTest) mutateOK(t *testing.T, method string, productID int64, count int) []product.Listed {
	body := map[string]any{"id": productID, "count": count}

	var items []product.Listed
	if status := rt.DoJSON(t, method, "/basket", body, &items); status != http.StatusOK {
		t.Fatalf("can't %s basket item: status code %d", method, status)
	}
	return items
}

func (rt *cartTest) requireCount(t *testing.T, items []product.Listed, productID int64, count int) {
	t.Helper()
	for _, it := range items {
		if it.ID == productID {
			if it.Count != count {
				t.Fatalf("product %d: expected count %d, got %d", productID, count, it.Count)
			}
			return
		}
	}
	t.Fatalf("product %d not found in basket %+v", productID, items)
}
