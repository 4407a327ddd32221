package test

import (
	"net/http"
	"testing"

	"github.com/LeoWanLW/Megano-Store/core/user"
)

type profileTest struct {
	*TestEnv
}

func TestProfile(t *testing.T) {
	env, err := NewTestEnv(t, "profile_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	pt := &profileTest{env}

	env.Login(t)

	p := pt.updateOK(t, user.ProfileUp{
		FullName: "Rob Pike",
		Email:    "rob@example.com",
		Phone:    "+4712345678",
	})
	if p.FullName != "Rob Pike" || p.Email != "rob@example.com" || p.Phone != "+4712345678" {
		t.Fatalf("profile not stored: %+v", p)
	}

	if p = pt.showOK(t); p.FullName != "Rob Pike" {
		t.Fatalf("expected the stored profile, got %+v", p)
	}

	// Contact data held by another account is refused.
	other := "other"
	env.CreateUser(t, other, "longenough")
	env.Logout(t)
	env.LoginAs(t, other, "longenough")

	errs := map[string]string{}
	status := env.DoJSON(t, http.MethodPost, "/profile", user.ProfileUp{
		FullName: "Ano Ther",
		Email:    "rob@example.com",
		Phone:    "+4798765432",
	}, &errs)
	if status != http.StatusBadRequest {
		t.Fatalf("expected a duplicate email to be refused, got status code %d", status)
	}
	if _, ok := errs["UserEmailError"]; !ok {
		t.Fatalf("expected a UserEmailError, got %v", errs)
	}
	env.Logout(t)

	// Password changes require the current password.
	env.Login(t)
	defer env.Logout(t)

	errs = map[string]string{}
	status = env.DoJSON(t, http.MethodPost, "/profile/password", user.PasswordUp{
		CurrentPassword: "wrong-password",
		NewPassword:     "evenlonger",
	}, &errs)
	if status != http.StatusBadRequest {
		t.Fatalf("expected a wrong current password to be refused, got status code %d", status)
	}
	if errs["PasswordError"] != "Current password is not valid." {
		t.Fatalf("expected a PasswordError, got %v", errs)
	}

	var out struct {
		Success string `json:"Success"`
	}
	status = env.DoJSON(t, http.MethodPost, "/profile/password", user.PasswordUp{
		CurrentPassword: env.UserPass,
		NewPassword:     "evenlonger",
	}, &out)
	if status != http.StatusOK {
		t.Fatalf("can't change password: status code %d", status)
	}
	env.Logout(t)

	// The old password stops working, the new one signs in.
	w := env.Do(t, http.MethodPost, "/sign-in", map[string]string{
		"username": env.UserName, "password": env.UserPass,
	})
	w.Body.Close()
	if w.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected the old password to be refused, got status code %s", w.Status)
	}

	env.UserPass = "evenlonger"
	env.Login(t)
}

func (pt *profileTest) showOK(t *testing.T) user.Profile {
	var p user.Profile
	if status := pt.DoJSON(t, http.MethodGet, "/profile", nil, &p); status != http.StatusOK {
		t.Fatalf("can't fetch profile: status code %d", status)
	}
	return p
}

func (pt *profileTest) updateOK(t *testing.T, up user.ProfileUp) user.Profile {
	var p user.Profile
	if status := pt.DoJSON(t, http.MethodPost, "/profile", up, &p); status != http.StatusOK {
		t.Fatalf("can't update profile: status code %d", status)
	}
	return p
}
