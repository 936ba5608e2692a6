package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dhewitt/costgraph/internal/billing"
)

func (s *Server) handleGenerateBill(w http.ResponseWriter, r *http.Request) {
	caseID, err := uuid.Parse(chi.URLParam(r, "caseID"))
	if err != nil {
		jsonError(w, "invalid case id", http.StatusBadRequest)
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

	bill, err := billing.GenerateBill(caseID, c.WorkItems, c.Disbursements)
	if err != nil {
		var invariant *billing.ErrRecoverableExceedsTotal
		if errors.As(err, &invariant) {
			s.log.Error("bill totals inconsistent", "case", c.Reference, "error", err)
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.log.Error("bill generation failed", "case", c.Reference, "error", err)
		jsonError(w, "failed to generate bill", http.StatusInternalServerError)
		return
	}

	summary := billing.Summarize(c.WorkItems, c.Disbursements)

	sourceFiles := sourceFileNames(r)
	if len(sourceFiles) == 0 {
		sourceFiles, err = store.ListChunkFiles(ctx, caseID)
		if err != nil {
			s.log.Warn("source file lookup failed", "case", c.Reference, "error", err)
		}
	}
	markdown := billing.RenderMarkdown(&c, bill, summary, sourceFiles)

	mdPath, err := billing.SaveBill(s.cfg.OutputDir, &c, bill, markdown, "md")
	if err != nil {
		s.log.Error("bill save failed", "case", c.Reference, "error", err)
		jsonError(w, "failed to save bill", http.StatusInternalServerError)
		return
	}

	var xlsxPath string
	wb, err := billing.BuildWorkbook(&c, bill, summary)
	if err != nil {
		s.log.Warn("workbook build failed", "case", c.Reference, "error", err)
	} else {
		xlsxPath = replaceExt(mdPath, ".xlsx")
		if err := wb.SaveAs(xlsxPath); err != nil {
			s.log.Warn("workbook save failed", "case", c.Reference, "error", err)
			xlsxPath = ""
		}
		wb.Close()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"case_id":       c.ID,
		"reference":     c.Reference,
		"bill":          bill,
		"summary":       summary,
		"markdown_path": mdPath,
		"workbook_path": xlsxPath,
	})
}

// sourceFileNames reads an optional JSON body listing the files the bill
// should cite. A missing or malformed body is not an error.
func sourceFileNames(r *http.Request) []string {
	if r.Body == nil {
		return nil
	}
	var req struct {
		SourceFiles []string `json:"source_files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil
	}
	return req.SourceFiles
}

func replaceExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
