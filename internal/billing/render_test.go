package billing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func sampleBill(t *testing.T) (*Case, *Bill, Summary) {
	t.Helper()
	caseID := uuid.New()
	c := &Case{
		ID:        caseID,
		Reference: "CL-2024-000123",
		Title:     "Smith v Jones",
		Court:     "High Court of Justice",
	}
	items := []WorkItem{{
		DateOfWork:     day(2024, 1, 15),
		ActivityType:   ActivityAttendanceClient,
		Description:    "Attended client meeting",
		TimeSpentHours: 1,
		HourlyRateGBP:  300,
		IsRecoverable:  true,
	}}
	disbs := []Disbursement{{
		DateIncurred:  day(2024, 2, 1),
		Type:          DisbursementCourtFees,
		Description:   "Claim issue fee",
		NetGBP:        100,
		VATGBP:        20,
		IsRecoverable: true,
	}}
	bill, err := GenerateBill(caseID, items, disbs)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	return c, bill, Summarize(items, disbs)
}

func TestRenderMarkdown(t *testing.T) {
	c, bill, summary := sampleBill(t)
	md := RenderMarkdown(c, bill, summary, []string{"attendance_note.pdf"})

	for _, want := range []string{
		"# Bill of Costs",
		"CL-2024-000123",
		"Smith v Jones",
		"## Work Done",
		"## Disbursements",
		"Attended client meeting",
		"Claim issue fee (Court Fees)",
		"120.00",
		"attendance_note.pdf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("rendered bill missing %q", want)
		}
	}
}

func TestRenderMarkdown_EscapesPipes(t *testing.T) {
	c, _, _ := sampleBill(t)
	caseID := c.ID
	items := []WorkItem{{
		DateOfWork:    day(2024, 1, 1),
		Description:   "Reviewed schedule | appendix",
		ClaimedGBP:    50,
		IsRecoverable: true,
	}}
	bill, err := GenerateBill(caseID, items, nil)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	md := RenderMarkdown(c, bill, Summarize(items, nil), nil)
	if !strings.Contains(md, `schedule \| appendix`) {
		t.Error("pipe in description not escaped")
	}
}

func TestSaveBill(t *testing.T) {
	c, bill, summary := sampleBill(t)
	dir := t.TempDir()

	path, err := SaveBill(dir, c, bill, RenderMarkdown(c, bill, summary, nil), "md")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "CL-2024-000123") {
		t.Errorf("bill saved outside case directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !strings.Contains(string(data), "Bill of Costs") {
		t.Error("saved file missing content")
	}
}

func TestSanitizeRef(t *testing.T) {
	if got := sanitizeRef("CL/2024 000123"); got != "CL-2024_000123" {
		t.Errorf("unexpected sanitized ref %q", got)
	}
	if got := sanitizeRef("  "); got != "unreferenced" {
		t.Errorf("expected fallback for blank ref, got %q", got)
	}
}

func TestBuildWorkbook(t *testing.T) {
	c, bill, summary := sampleBill(t)

	f, err := BuildWorkbook(c, bill, summary)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{SectionWorkDone, SectionDisbursements, "Summary"} {
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			t.Errorf("missing sheet %q", sheet)
		}
	}

	got, err := f.GetCellValue(SectionWorkDone, "B2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if got != "Attended client meeting" {
		t.Errorf("unexpected first work item cell %q", got)
	}
}
