package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/LeoWanLW/Megano-Store/core/order"
	"github.com/shopspring/decimal"
)

type orderTest struct {
	*TestEnv
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}

	keyboard := env.CreateProduct(t, "keyboard", "25.00", 10, true, false)
	mouse := env.CreateProduct(t, "mouse", "10.50", 5, true, true)
	soldOut := env.CreateProduct(t, "floppy disk", "1.00", 0, false, false)

	env.Login(t)

	// Quantities above the stock are clamped, so only 5 mice are ordered.
	orderID := ot.createOK(t, []order.Line{
		{ProductID: keyboard, Count: 3},
		{ProductID: mouse, Count: 99},
	})

	// Checkout empties the basket.
	rt := &cartTest{env}
	if items := rt.showOK(t); len(items) != 0 {
		t.Fatalf("expected an empty basket after checkout, got %+v", items)
	}

	v := ot.showOK(t, orderID)
	if v.Status != order.Created {
		t.Fatalf("expected a created order, got status %q", v.Status)
	}
	want := decimal.RequireFromString("127.50")
	if !v.TotalCost.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, v.TotalCost)
	}
	rt.requireCount(t, v.Products, keyboard, 3)
	rt.requireCount(t, v.Products, mouse, 5)

	// Without a single valid line the order is not kept.
	errs := ot.createFail(t, []order.Line{
		{ProductID: keyboard, Count: 0},
		{ProductID: soldOut, Count: 2},
	})
	if _, ok := errs[fmt.Sprintf("OrderError(%d)", keyboard)]; !ok {
		t.Fatalf("expected an OrderError for the zero quantity, got %v", errs)
	}
	if _, ok := errs[fmt.Sprintf("ValueError(%d)", soldOut)]; !ok {
		t.Fatalf("expected a ValueError for the sold out product, got %v", errs)
	}

	var count int
	if err := env.DB.Get(&count, "SELECT COUNT(*) FROM orders"); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected the rejected order to roll back, found %d orders", count)
	}

	// Delivery details move the order to pending.
	ot.updateOK(t, orderID, order.Update{
		DeliveryType:    "express",
		DeliveryCity:    "Oslo",
		DeliveryAddress: "Main street 1",
		PaymentType:     "online",
	})
	v = ot.showOK(t, orderID)
	if v.Status != order.Pending {
		t.Fatalf("expected a pending order, got status %q", v.Status)
	}
	if v.DeliveryCity != "Oslo" || v.PaymentType != "online" {
		t.Fatalf("delivery details not stored: %+v", v.Order)
	}

	// An odd card number is rejected and the order stays pending.
	errs = ot.payFail(t, orderID, "23")
	if errs["PaymentError"] != "The card number is incorrect." {
		t.Fatalf("expected the payment error message, got %v", errs)
	}
	if v = ot.showOK(t, orderID); v.Status != order.Pending {
		t.Fatalf("failed payment must not change the status, got %q", v.Status)
	}

	ot.payOK(t, orderID, "24")
	if v = ot.showOK(t, orderID); v.Status != order.Paid {
		t.Fatalf("expected a paid order, got status %q", v.Status)
	}

	// Payment decrements the stock and sold out products become unavailable.
	ot.requireStock(t, keyboard, 7, true)
	ot.requireStock(t, mouse, 0, false)

	// The owner sees the order in the history.
	var views []order.View
	if status := env.DoJSON(t, http.MethodGet, "/orders", nil, &views); status != http.StatusOK {
		t.Fatalf("can't list orders: status code %d", status)
	}
	if len(views) != 1 || views[0].ID != orderID {
		t.Fatalf("expected order %d in the history, got %+v", orderID, views)
	}
}

func (ot *orderTest) createOK(t *testing.T, lines []order.Line) int64 {
	var out struct {
		OrderID int64 `json:"orderId"`
	}
	if status := ot.DoJSON(t, http.MethodPost, "/orders", lines, &out); status != http.StatusCreated {
		t.Fatalf("can't create order: status code %d", status)
	}
	return out.OrderID
}

func (ot *orderTest) createFail(t *testing.T, lines []order.Line) map[string]string {
	errs := map[string]string{}
	if status := ot.DoJSON(t, http.MethodPost, "/orders", lines, &errs); status != http.StatusBadRequest {
		t.Fatalf("expected the order to be rejected, got status code %d", status)
	}
	return errs
}

func (ot *orderTest) showOK(t *testing.T, id int64) order.View {
	var v order.View
	if status := ot.DoJSON(t, http.MethodGet, fmt.Sprintf("/order/%d", id), nil, &v); status != http.StatusOK {
		t.Fatalf("can't fetch order %d: status code %d", id, status)
	}
	return v
}

func (ot *orderTest) updateOK(t *testing.T, id int64, up order.Update) {
	var out struct {
		OrderID int64 `json:"orderId"`
	}
	if status := ot.DoJSON(t, http.MethodPost, fmt.Sprintf("/order/%d", id), up, &out); status != http.StatusCreated {
		t.Fatalf("can't update order %d: status code %d", id, status)
	}
}

func (ot *orderTest) payOK(t *testing.T, id int64, card string) {
	body := map[string]string{"number": card}

	var out struct {
		Message string `json:"Message"`
	}
	if status := ot.DoJSON(t, http.MethodPost, fmt.Sprintf("/payment/%d", id), body, &out); status != http.StatusCreated {
		t.Fatalf("can't pay order %d: status code %d", id, status)
	}

	want := fmt.Sprintf("Order № %d has been successfully paid.", id)
	if out.Message != want {
		t.Fatalf("expected message %q, got %q", want, out.Message)
	}
}

func (ot *orderTest) payFail(t *testing.T, id int64, card string) map[string]string {
	body := map[string]string{"number": card}

	errs := map[string]string{}
	if status := ot.DoJSON(t, http.MethodPost, fmt.Sprintf("/payment/%d", id), body, &errs); status != http.StatusBadRequest {
		t.Fatalf("expected the payment to be rejected, got status code %d", status)
	}
	return errs
}

func (ot *orderTest) requireStock(t *testing.T, productID int64, count int, available bool) {
	t.Helper()

	var row struct {
		Count     int  `db:"count"`
		Available bool `db:"available"`
	}
	if err := ot.DB.Get(&row, "SELECT count, available FROM products WHERE product_id = $1", productID); err != nil {
		t.Fatal(err)
	}
	if row.Count != count || row.Available != available {
		t.Fatalf("product %d: expected stock (%d, %v), got (%d, %v)",
			productID, count, available, row.Count, row.Available)
	}
}
