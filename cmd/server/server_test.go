package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/metalworks/quoter/internal/db"
	"github.com/metalworks/quoter/internal/migrations"
	"github.com/metalworks/quoter/internal/quote"
	"github.com/metalworks/quoter/internal/seed"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "s3cret-pass"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server-test.db"), 1)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(ctx, database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := quote.NewStore(database)
	if err := store.EnsureSettings(ctx, quote.DefaultSettings(8000, 1000)); err != nil {
		t.Fatalf("ensure settings: %v", err)
	}

	return &server{
		db:     database,
		auth:   newAuthService(database, "test-secret"),
		store:  store,
		logger: zerolog.Nop(),
	}
}

// login returns the session cookie for the seeded admin.
func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rr := doJSON(t, h, nil, http.MethodPost, "/login", loginRequest{Email: testAdminEmail, Password: testAdminPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func doJSON(t *testing.T, h http.Handler, cookie *http.Cookie, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func sampleLineBody() map[string]any {
	return map[string]any{
		"part_name":         "Punch plate",
		"shape":             "RECT",
		"spec":              []float64{95, 45, 7},
		"raw":               []float64{100, 50, 10},
		"material_id":       1,
		"processing_hours":  1.5,
		"difficulty":        "B",
		"post_surcharge_id": 1,
		"heat_surcharge_id": 3,
		"quantity":          10,
	}
}
