package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dhewitt/costgraph/internal/docgen"
)

func (s *Server) handleGenerateDocument(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		jsonError(w, "invalid case id", http.StatusBadRequest)
		return
	}
	docType, ok := docgen.ParseDocType(chi.URLParam(r, "docType"))
	if !ok {
		jsonError(w, "unknown document type", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	store := s.orchestrator.Store()

	c, found, err := store.GetCase(ctx, caseID)
	if err != nil {
		s.log.Error("get case failed", "case_id", caseID, "error", err)
		jsonError(w, "failed to load case", http.StatusInternalServerError)
		return
	}
	if !found {
		jsonError(w, "case not found", http.StatusNotFound)
		return
	}

	sourceFiles, err := store.ListChunkFiles(ctx, caseID)
	if err != nil {
		s.log.Warn("source file lookup failed", "case", c.Reference, "error", err)
	}

	content, err := s.docs.Generate(ctx, c, docType, sourceFiles)
	if err != nil {
		s.log.Error("document generation failed",
			"case", c.Reference, "document_type", docType, "error", err)
		jsonError(w, "failed to generate document", http.StatusInternalServerError)
		return
	}

	path, err := docgen.SaveDocument(s.cfg.OutputDir, &c, docType, content)
	if err != nil {
		s.log.Error("document save failed", "case", c.Reference, "error", err)
		jsonError(w, "failed to save document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"case_id":       c.ID,
		"reference":     c.Reference,
		"document_type": docType,
		"path":          path,
		"content":       content,
	})
}
