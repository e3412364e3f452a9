package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/metalworks/quoter/internal/quote"
)

func TestQuoteLifecycle(t *testing.T) {
	h := newTestServer(t).routes()
	cookie := login(t, h)

	rr := doJSON(t, h, cookie, http.MethodPost, "/quotes", quote.Header{Customer: "Tanaka Press", Title: "Die set"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create quote status = %d: %s", rr.Code, rr.Body.String())
	}
	var q quote.Quote
	decodeBody(t, rr, &q)

	rr = doJSON(t, h, cookie, http.MethodPost, "/quotes/1/lines", sampleLineBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("add line status = %d: %s", rr.Code, rr.Body.String())
	}
	var line quote.Line
	decodeBody(t, rr, &line)
	if line.Price.UnitPrice != 18000 || line.Price.SupplyPrice != 180000 {
		t.Fatalf("unexpected line price: %+v", line.Price)
	}

	rr = doJSON(t, h, cookie, http.MethodPatch, "/quotes/1/lines/1", map[string]any{"difficulty": "A", "quantity": 100})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch line status = %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &line)
	if line.Price.ApplicationRate != 85 || line.Price.UnitPrice != 13000 {
		t.Fatalf("unexpected repriced line: %+v", line.Price)
	}

	rr = doJSON(t, h, cookie, http.MethodGet, "/quotes/1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get quote status = %d", rr.Code)
	}
	decodeBody(t, rr, &q)
	if q.Total != 1300000 || len(q.Lines) != 1 {
		t.Fatalf("unexpected quote detail: %+v", q)
	}

	rr = doJSON(t, h, cookie, http.MethodDelete, "/quotes/1/lines/1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete line status = %d", rr.Code)
	}
	rr = doJSON(t, h, cookie, http.MethodDelete, "/quotes/1/lines/1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rr.Code)
	}
}

func TestAddAndPatchLineRejectUnknownReferences(t *testing.T) {
	h := newTestServer(t).routes()
	cookie := login(t, h)

	doJSON(t, h, cookie, http.MethodPost, "/quotes", quote.Header{Title: "Refs"})

	body := sampleLineBody()
	body["material_id"] = 999
	if rr := doJSON(t, h, cookie, http.MethodPost, "/quotes/1/lines", body); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown material status = %d, want 400: %s", rr.Code, rr.Body.String())
	}

	if rr := doJSON(t, h, cookie, http.MethodPost, "/quotes/1/lines", sampleLineBody()); rr.Code != http.StatusCreated {
		t.Fatalf("add line status = %d: %s", rr.Code, rr.Body.String())
	}
	rr := doJSON(t, h, cookie, http.MethodPatch, "/quotes/1/lines/1", map[string]any{"post_surcharge_id": 999})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown surcharge status = %d, want 400: %s", rr.Code, rr.Body.String())
	}
}

func TestQuotesListFiltersByQuery(t *testing.T) {
	h := newTestServer(t).routes()
	cookie := login(t, h)

	for _, hdr := range []quote.Header{
		{Customer: "Sato Works", Title: "Bracket"},
		{Customer: "Kato Tools", Title: "Jig", Notes: "for the sato line"},
		{Customer: "Tanaka Press", Title: "Die set"},
	} {
		if rr := doJSON(t, h, cookie, http.MethodPost, "/quotes", hdr); rr.Code != http.StatusCreated {
			t.Fatalf("create quote status = %d", rr.Code)
		}
	}

	rr := doJSON(t, h, cookie, http.MethodGet, "/quotes?q=sato", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var items []quote.ListItem
	decodeBody(t, rr, &items)
	if len(items) != 2 || items[0].Title != "Jig" || items[1].Title != "Bracket" {
		t.Fatalf("unexpected filtered list: %+v", items)
	}
}

func TestQuoteDetailNotFound(t *testing.T) {
	h := newTestServer(t).routes()
	cookie := login(t, h)

	rr := doJSON(t, h, cookie, http.MethodGet, "/quotes/42", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = doJSON(t, h, cookie, http.MethodGet, "/quotes/abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rr.Code)
	}
}

func TestQuoteDetailReadsSnapshotUntilRepriced(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()
	cookie := login(t, h)

	doJSON(t, h, cookie, http.MethodPost, "/quotes", quote.Header{Title: "Snapshot"})
	doJSON(t, h, cookie, http.MethodPost, "/quotes/1/lines", sampleLineBody())

	settings, err := srv.store.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	settings.RoundingUnit = 100
	rr := doJSON(t, h, cookie, http.MethodPut, "/admin/settings", settings)
	if rr.Code != http.StatusOK {
		t.Fatalf("update settings status = %d: %s", rr.Code, rr.Body.String())
	}

	var q quote.Quote
	decodeBody(t, doJSON(t, h, cookie, http.MethodGet, "/quotes/1", nil), &q)
	if q.Lines[0].Price.UnitPrice != 18000 {
		t.Fatalf("stored price changed without reprice: %+v", q.Lines[0].Price)
	}

	rr = doJSON(t, h, cookie, http.MethodPost, "/quotes/1/reprice", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("reprice status = %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &q)
	if q.Lines[0].Price.UnitPrice != 17200 || q.Total != 172000 {
		t.Fatalf("unexpected repriced quote: %+v total=%d", q.Lines[0].Price, q.Total)
	}
}

func TestHandleQuoteTextReturnsPlainText(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	q, err := srv.store.CreateQuote(ctx, quote.Header{Customer: "Tanaka Press"})
	if err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}
	material := int64(1)
	if _, err := srv.store.AddLine(ctx, q.ID, quote.LineInput{
		PartName:        "Spacer",
		Shape:           "RECT",
		Spec:            [3]float64{95, 45, 7},
		Raw:             [3]float64{100, 50, 10},
		MaterialID:      &material,
		ProcessingHours: 1.5,
		Difficulty:      "B",
		Quantity:        10,
	}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes/1/text", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleQuoteText(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("expected text/plain content type, got %q", rr.Header().Get("Content-Type"))
	}

	body := rr.Body.String()
	for _, expected := range []string{"Customer: Tanaka Press", "1. Spacer", "Material: S45C", "Total: ", "JPY"} {
		if !strings.Contains(body, expected) {
			t.Fatalf("expected body to contain %q, got: %s", expected, body)
		}
	}
}
