package test

import (
	"net/http"
	"testing"

	"github.com/LeoWanLW/Megano-Store/core/order"
)

type authTest struct {
	*TestEnv
}

func TestAuth(t *testing.T) {
	env, err := NewTestEnv(t, "auth_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	at := &authTest{env}

	t.Run("signup", at.testSignup)
	t.Run("login", at.testLogin)
	t.Run("claim", at.testClaim)
}

func (at *authTest) testSignup(t *testing.T) {
	at.ResetSession(t)

	body := map[string]string{"name": "New Gopher", "username": "newbie", "password": "longenough"}

	var out struct {
		UserID  string `json:"userID"`
		Message string `json:"message"`
	}
	if status := at.DoJSON(t, http.MethodPost, "/sign-up", body, &out); status != http.StatusCreated {
		t.Fatalf("can't sign up: status code %d", status)
	}
	if out.UserID == "" {
		t.Fatal("expected the new user id in the response")
	}

	// Signup logs the session in.
	w := at.Do(t, http.MethodGet, "/profile", nil)
	w.Body.Close()
	if w.StatusCode != http.StatusOK {
		t.Fatalf("expected the new user to be logged in: status code %s", w.Status)
	}
	at.Logout(t)

	// A taken username is refused with a named error.
	errs := map[string]string{}
	if status := at.DoJSON(t, http.MethodPost, "/sign-up", body, &errs); status != http.StatusBadRequest {
		t.Fatalf("expected a duplicate username to be refused, got status code %d", status)
	}
	if _, ok := errs["UserNameError"]; !ok {
		t.Fatalf("expected a UserNameError, got %v", errs)
	}

	// Short passwords never reach the database.
	short := map[string]string{"username": "another", "password": "short"}
	w = at.Do(t, http.MethodPost, "/sign-up", short)
	w.Body.Close()
	if w.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected a short password to be refused, got status code %s", w.Status)
	}
}

func (at *authTest) testLogin(t *testing.T) {
	at.ResetSession(t)

	body := map[string]string{"username": at.UserName, "password": "wrong-password"}

	errs := map[string]string{}
	if status := at.DoJSON(t, http.MethodPost, "/sign-in", body, &errs); status != http.StatusBadRequest {
		t.Fatalf("expected a wrong password to be refused, got status code %d", status)
	}
	if errs["AuthError"] != "Authentication error." {
		t.Fatalf("expected an AuthError, got %v", errs)
	}

	// Unknown users fail the same way as wrong passwords.
	body["username"] = "nobody"
	errs = map[string]string{}
	if status := at.DoJSON(t, http.MethodPost, "/sign-in", body, &errs); status != http.StatusBadRequest {
		t.Fatalf("expected an unknown user to be refused, got status code %d", status)
	}
	if _, ok := errs["AuthError"]; !ok {
		t.Fatalf("expected an AuthError, got %v", errs)
	}

	at.Login(t)
	defer at.Logout(t)

	w := at.Do(t, http.MethodGet, "/orders", nil)
	w.Body.Close()
	if w.StatusCode != http.StatusOK {
		t.Fatalf("expected the session to be authenticated: status code %s", w.Status)
	}
}

// testClaim checks that an order placed anonymously is handed to the account
// that next signs in from the same session.
func (at *authTest) testClaim(t *testing.T) {
	at.ResetSession(t)

	keyboard := at.CreateProduct(t, "claim keyboard", "25.00", 10, true, false)

	// Shopping first gives the visitor a session to claim the order by.
	rt := &cartTest{at.TestEnv}
	rt.addItemOK(t, keyboard, 2)

	ot := &orderTest{at.TestEnv}
	orderID := ot.createOK(t, []order.Line{{ProductID: keyboard, Count: 2}})

	at.Login(t)
	defer at.Logout(t)

	var views []order.View
	if status := at.DoJSON(t, http.MethodGet, "/orders", nil, &views); status != http.StatusOK {
		t.Fatalf("can't list orders: status code %d", status)
	}

	for _, v := range views {
		if v.ID == orderID {
			return
		}
	}
	t.Fatalf("expected order %d to be claimed by the account, got %+v", orderID, views)
}
