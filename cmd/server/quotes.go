package main

import (
	"net/http"
	"strings"

	"github.com/metalworks/quoter/internal/quote"
)

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.store.ListQuotes(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var h quote.Header
	if !s.decodeJSON(w, r, &h) {
		return
	}
	q, err := s.store.CreateQuote(r.Context(), h)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *server) handleQuoteCalc(w http.ResponseWriter, r *http.Request) {
	var in quote.LineInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	line, err := s.store.Preview(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *server) handleQuoteDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	q, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	q, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	materials, err := s.store.ListMaterials(r.Context(), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	names := make(map[int64]string, len(materials))
	for _, m := range materials {
		names[m.ID] = m.Name
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(quote.Summary(q, settings.Currency, names)))
}

func (s *server) handleRepriceQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	q, err := s.store.RepriceQuote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleAddLine(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var in quote.LineInput
	if !s.decodeJSON(w, r, &in) {
		return
	}
	line, err := s.store.AddLine(r.Context(), quoteID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *server) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := urlID(w, r, "lineID")
	if !ok {
		return
	}
	var patch quote.LinePatch
	if !s.decodeJSON(w, r, &patch) {
		return
	}
	line, err := s.store.UpdateLine(r.Context(), quoteID, lineID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *server) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := urlID(w, r, "lineID")
	if !ok {
		return
	}
	if err := s.store.DeleteLine(r.Context(), quoteID, lineID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
