package main

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newTestServer(t).routes()

	rr := doJSON(t, h, nil, http.MethodGet, "/quotes", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rr.Code)
	}

	rr = doJSON(t, h, nil, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected healthz to be public, got %d", rr.Code)
	}
	var health healthResponse
	decodeBody(t, rr, &health)
	if health.SchemaVersion != 2 {
		t.Fatalf("schema version = %d, want 2", health.SchemaVersion)
	}

	cookie := login(t, h)
	rr = doJSON(t, h, cookie, http.MethodGet, "/quotes", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestServer(t).routes()

	rr := doJSON(t, h, nil, http.MethodPost, "/login", loginRequest{Email: testAdminEmail, Password: "nope"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set cookies")
	}

	rr = doJSON(t, h, nil, http.MethodPost, "/login", loginRequest{Email: "who@example.com", Password: testAdminPassword})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rr.Code)
	}
}

func TestSessionValueRoundTripAndExpiry(t *testing.T) {
	auth := newAuthService(nil, "secret")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return now }

	value, err := auth.createSessionValue("admin@example.com")
	if err != nil {
		t.Fatalf("createSessionValue: %v", err)
	}
	email, ok := auth.verifySessionValue(value)
	if !ok || email != "admin@example.com" {
		t.Fatalf("verifySessionValue = %q, %v", email, ok)
	}

	other := newAuthService(nil, "other-secret")
	other.now = auth.now
	if _, ok := other.verifySessionValue(value); ok {
		t.Fatal("token signed with another secret must be rejected")
	}

	now = now.Add(sessionTTL + time.Minute)
	if _, ok := auth.verifySessionValue(value); ok {
		t.Fatal("expired token must be rejected")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestServer(t).routes()
	cookie := login(t, h)

	rr := doJSON(t, h, cookie, http.MethodPost, "/logout", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	cleared := rr.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cleared)
	}
}

func TestSessionSecretRequiredOutsideDev(t *testing.T) {
	if _, err := sessionSecret("", false); !errors.Is(err, errNoSessionSecret) {
		t.Fatalf("expected errNoSessionSecret, got %v", err)
	}

	got, err := sessionSecret("configured", false)
	if err != nil || got != "configured" {
		t.Fatalf("sessionSecret = %q, %v", got, err)
	}

	first, err := sessionSecret("", true)
	if err != nil {
		t.Fatalf("dev sessionSecret: %v", err)
	}
	second, err := sessionSecret("", true)
	if err != nil {
		t.Fatalf("dev sessionSecret: %v", err)
	}
	if len(first) != 64 || first == second {
		t.Fatalf("expected distinct random dev secrets, got %q and %q", first, second)
	}
}

func TestEmptySecretNeverSignsOrVerifies(t *testing.T) {
	keyless := newAuthService(nil, "")
	if _, err := keyless.createSessionValue("attacker@example.com"); !errors.Is(err, errNoSessionSecret) {
		t.Fatalf("expected errNoSessionSecret, got %v", err)
	}

	// A token signed with an empty HMAC key must not be accepted either.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{Email: "attacker@example.com"}).SignedString([]byte{})
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}
	if _, ok := keyless.verifySessionValue(forged); ok {
		t.Fatal("keyless service accepted a token")
	}
}
