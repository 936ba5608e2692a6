package billing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RenderMarkdown renders a bill and its summary as a markdown document
// suitable for review before court submission. Presentation only; the Bill
// itself is the load-bearing artifact.
func RenderMarkdown(c *Case, bill *Bill, summary Summary, sourceFiles []string) string {
	var sb strings.Builder

	sb.WriteString("# Bill of Costs\n\n")
	fmt.Fprintf(&sb, "**Case Reference:** %s\n\n", c.Reference)
	fmt.Fprintf(&sb, "**Case Title:** %s\n\n", c.Title)
	if c.Court != "" {
		fmt.Fprintf(&sb, "**Court:** %s\n\n", c.Court)
	}
	fmt.Fprintf(&sb, "**Generated:** %s\n\n", bill.GeneratedAt.Format("02.01.2006"))

	for _, section := range bill.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", section.Title)
		sb.WriteString("| Date | Description | Amount (GBP) | Recoverable |\n")
		sb.WriteString("|------|-------------|--------------|-------------|\n")
		for _, item := range section.Items {
			recoverable := "Yes"
			if !item.IsRecoverable {
				recoverable = "No"
			}
			fmt.Fprintf(&sb, "| %s | %s | %.2f | %s |\n",
				item.Date.Format("2006-01-02"), escapePipes(item.Description), item.AmountGBP, recoverable)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Summary\n\n")
	for _, g := range summary.Grades {
		fmt.Fprintf(&sb, "- Grade %s: %d items, %.1f hours, £%.2f\n", g.Grade, g.Items, g.Hours, g.AmountGBP)
	}
	fmt.Fprintf(&sb, "\n| | GBP |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Profit costs | %.2f |\n", summary.ProfitCostsGBP)
	fmt.Fprintf(&sb, "| Disbursements | %.2f |\n", summary.DisbursementsGBP)
	fmt.Fprintf(&sb, "| VAT on profit costs | %.2f |\n", summary.VATProfitGBP)
	fmt.Fprintf(&sb, "| VAT on disbursements | %.2f |\n", summary.VATDisbursementGBP)
	fmt.Fprintf(&sb, "| **Grand total** | **%.2f** |\n\n", summary.GrandTotalGBP)

	fmt.Fprintf(&sb, "Total claimed: £%.2f, of which recoverable: £%.2f\n", bill.TotalGBP, bill.RecoverableGBP)

	if len(sourceFiles) > 0 {
		sb.WriteString("\n## Source documents\n\n")
		for _, f := range sourceFiles {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	return sb.String()
}

// SaveBill writes rendered bill content under outputDir/<reference>/ and
// returns the file path. The filename carries the case reference and a
// timestamp so repeated generations never overwrite each other.
func SaveBill(outputDir string, c *Case, bill *Bill, content string, ext string) (string, error) {
	dir := filepath.Join(outputDir, sanitizeRef(c.Reference))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("bill_of_costs_%s_%s.%s",
		sanitizeRef(c.Reference), bill.GeneratedAt.Format("20060102_150405"), ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write bill: %w", err)
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

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
