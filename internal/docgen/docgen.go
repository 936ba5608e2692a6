package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhewitt/costgraph/internal/billing"
	"github.com/dhewitt/costgraph/internal/extract"
)

// DocType selects which court document to generate.
type DocType string

const (
	TypeBillOfCosts     DocType = "bill_of_costs"
	TypeScheduleOfCosts DocType = "schedule_of_costs"
	TypePointsOfDispute DocType = "points_of_dispute"
	TypePointsOfReply   DocType = "points_of_reply"
)

// ParseDocType maps a URL segment onto a document type.
func ParseDocType(s string) (DocType, bool) {
	switch DocType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeBillOfCosts:
		return TypeBillOfCosts, true
	case TypeScheduleOfCosts:
		return TypeScheduleOfCosts, true
	case TypePointsOfDispute:
		return TypePointsOfDispute, true
	case TypePointsOfReply:
		return TypePointsOfReply, true
	}
	return "", false
}

// Title returns the document's display name.
func (t DocType) Title() string {
	switch t {
	case TypeBillOfCosts:
		return "Bill of Costs"
	case TypeScheduleOfCosts:
		return "Schedule of Costs"
	case TypePointsOfDispute:
		return "Points of Dispute"
	case TypePointsOfReply:
		return "Points of Reply"
	}
	return string(t)
}

// Per-type formatting requirements, standard UK legal practice.
var docInstructions = map[DocType][]string{
	TypeBillOfCosts: {
		"Case details and court information",
		"Chronological list of work items with dates, descriptions, time spent, and amounts",
		"List of disbursements",
		"Summary of costs",
		"VAT calculations if applicable",
	},
	TypeScheduleOfCosts: {
		"Case details",
		"Summary of costs by category",
		"Breakdown of work items",
		"Breakdown of disbursements",
		"Total costs",
	},
	TypePointsOfDispute: {
		"Introduction and case details",
		"Specific points of dispute for each work item or category",
		"Justification for each point of dispute",
		"Alternative figures proposed where applicable",
		"Conclusion",
	},
	TypePointsOfReply: {
		"Introduction and case details",
		"A reply to each point of dispute, defending the amount claimed",
		"Supporting reasoning for each reply",
		"Concessions where an item cannot be defended",
		"Conclusion",
	},
}

// Completer is the LLM surface the generator depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator renders court documents from a case's stored billing records
// via the LLM.
type Generator struct {
	llm   Completer
	stats *extract.LLMStats
	log   *slog.Logger
}

func NewGenerator(llm Completer, stats *extract.LLMStats, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{llm: llm, stats: stats, log: log}
}

// Generate produces the requested document for a case. The case's work
// items, disbursements and source documents are embedded in the prompt;
// the model owns the prose, the caller owns persistence.
func (g *Generator) Generate(ctx context.Context, c billing.Case, docType DocType, sourceFiles []string) (string, error) {
	prompt := BuildDocumentPrompt(c, docType, sourceFiles)

	start := time.Now()
	text, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", docType, err)
	}
	if g.stats != nil {
		g.stats.Record(string(docType), time.Since(start).Milliseconds())
	}

	g.log.Info("document generated",
		"case", c.Reference,
		"document_type", docType,
		"length", len(text))
	return text, nil
}

// BuildDocumentPrompt assembles the generation prompt: case identity, the
// itemized work and disbursement lines, the document-type requirements,
// and the source documents the content derives from.
func BuildDocumentPrompt(c billing.Case, docType DocType, sourceFiles []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generate a %s for the following case:\n\n", docType.Title())
	fmt.Fprintf(&sb, "Case Reference: %s\n", c.Reference)
	fmt.Fprintf(&sb, "Case Title: %s\n", c.Title)
	if c.Court != "" {
		fmt.Fprintf(&sb, "Court: %s\n", c.Court)
	}

	sb.WriteString("\nWork Items:\n")
	if len(c.WorkItems) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, w := range c.WorkItems {
		fmt.Fprintf(&sb, "- %s | %s | %s | %d units | £%.2f\n",
			w.DateOfWork.Format("2006-01-02"), w.ActivityType, w.Description,
			w.TimeSpentUnits, w.BillAmount())
	}

	sb.WriteString("\nDisbursements:\n")
	if len(c.Disbursements) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, d := range c.Disbursements {
		fmt.Fprintf(&sb, "- %s | %s (%s) | £%.2f\n",
			d.DateIncurred.Format("2006-01-02"), d.Description, d.Type, d.GrossAmount())
	}

	if len(sourceFiles) > 0 {
		sb.WriteString("\nSource documents:\n")
		for _, f := range sourceFiles {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	fmt.Fprintf(&sb, "\nFormat the %s according to standard UK legal practice, including:\n", docType.Title())
	for i, line := range docInstructions[docType] {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	sb.WriteString("\nFormat the output in a clear, professional manner suitable for court submission. Use markdown.")
	return sb.String()
}

// SaveDocument writes a generated document under outputDir/<reference>/,
// named by type and timestamp so repeated generations never overwrite.
func SaveDocument(outputDir string, c *billing.Case, docType DocType, content string) (string, error) {
	dir := filepath.Join(outputDir, sanitizeRef(c.Reference))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.md",
		docType, sanitizeRef(c.Reference), time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func sanitizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.ReplaceAll(ref, "/", "-")
	ref = strings.ReplaceAll(ref, "\\", "-")
	ref = strings.ReplaceAll(ref, " ", "_")
	if ref == "" {
		ref = "unreferenced"
	}
	return ref
}
