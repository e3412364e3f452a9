package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/metalworks/quoter/internal/pricing"
	"github.com/metalworks/quoter/internal/quote"
)

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings quote.Settings
	if !s.decodeJSON(w, r, &settings) {
		return
	}
	if err := s.store.UpdateSettings(r.Context(), settings); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *server) handleGetDiscountPolicy(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, discountPolicyResponse(settings.DiscountPolicy))
}

func (s *server) handleUpdateDiscountPolicy(w http.ResponseWriter, r *http.Request) {
	var payload policyPayload
	if !s.decodeJSON(w, r, &payload) {
		return
	}
	if len(payload.Quantities) > 0 && !slices.Equal(payload.Quantities, pricing.QuantityBreakpoints[:]) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quantities must match the fixed breakpoints"})
		return
	}
	if err := s.store.UpdateDiscountPolicy(r.Context(), payload.Rates); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, discountPolicyResponse(payload.Rates))
}

type policyPayload struct {
	Quantities []int                  `json:"quantities"`
	Rates      pricing.DiscountPolicy `json:"rates"`
}

func discountPolicyResponse(policy pricing.DiscountPolicy) policyPayload {
	return policyPayload{Quantities: pricing.QuantityBreakpoints[:], Rates: policy}
}

func (s *server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.ListMaterials(r.Context(), r.URL.Query().Get("active") == "1")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var m quote.Material
	if !s.decodeJSON(w, r, &m) {
		return
	}
	id, err := s.store.CreateMaterial(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m.ID = id
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var m quote.Material
	if !s.decodeJSON(w, r, &m) {
		return
	}
	m.ID = id
	if err := s.store.UpdateMaterial(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleListSurcharges(w http.ResponseWriter, r *http.Request) {
	kind := quote.SurchargeKind(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("kind"))))
	surcharges, err := s.store.ListSurcharges(r.Context(), kind, r.URL.Query().Get("active") == "1")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surcharges)
}

func (s *server) handleCreateSurcharge(w http.ResponseWriter, r *http.Request) {
	var sc quote.Surcharge
	if !s.decodeJSON(w, r, &sc) {
		return
	}
	id, err := s.store.CreateSurcharge(r.Context(), sc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc.ID = id
	writeJSON(w, http.StatusCreated, sc)
}

func (s *server) handleUpdateSurcharge(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var sc quote.Surcharge
	if !s.decodeJSON(w, r, &sc) {
		return
	}
	sc.ID = id
	if err := s.store.UpdateSurcharge(r.Context(), sc); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}
