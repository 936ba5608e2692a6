package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.orchestrator.Store().ListCases(r.Context())
	if err != nil {
		s.log.Error("list cases failed", "error", err)
		jsonError(w, "failed to list cases", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"cases": cases,
		"count": len(cases),
	})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		jsonError(w, "invalid case id", http.StatusBadRequest)
		return
	}

	c, found, err := s.orchestrator.Store().GetCase(r.Context(), caseID)
	if err != nil {
		s.log.Error("get case failed", "case_id", caseID, "error", err)
		jsonError(w, "failed to load case", http.StatusInternalServerError)
		return
	}
	if !found {
		jsonError(w, "case not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}
