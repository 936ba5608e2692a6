package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

// cannedCompleter returns a fixed response for every prompt.
type cannedCompleter struct {
	response string
	err      error
	prompts  []string
}

func (c *cannedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.response, c.err
}

func TestExtract_WorkItems(t *testing.T) {
	llm := &cannedCompleter{
		response: `[{"date_of_work":"2024-01-15","activity_type":"Attendance on Client","description":"Attended client meeting","time_spent_decimal_hours":1,"applicable_hourly_rate_gbp":300}]`,
	}
	ex := NewExtractor(llm, nil, slog.Default())

	res, err := ex.Extract(context.Background(), uuid.New(), CategoryWorkItems, "COSTS", "Attended client meeting on 2024-01-15, 1 hour at £300/hr")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(res.WorkItems) != 1 {
		t.Fatalf("expected 1 work item, got %d", len(res.WorkItems))
	}
	w := res.WorkItems[0]
	if w.ClaimedGBP != 300.0 {
		t.Errorf("expected claimed 300.0, got %v", w.ClaimedGBP)
	}
	if w.Description != "Attended client meeting" {
		t.Errorf("unexpected description %q", w.Description)
	}
	if res.Skipped != 0 {
		t.Errorf("expected no skipped records, got %d", res.Skipped)
	}
}

func TestExtract_TransportErrorReturned(t *testing.T) {
	llm := &cannedCompleter{err: &RetryableError{StatusCode: 429, Message: "rate limited"}}
	ex := NewExtractor(llm, nil, slog.Default())

	_, err := ex.Extract(context.Background(), uuid.New(), CategoryParties, "", "some text")
	var retry *RetryableError
	if !errors.As(err, &retry) {
		t.Fatalf("expected RetryableError to propagate, got %v", err)
	}
}

func TestExtract_MalformedResponseIsNotFatal(t *testing.T) {
	llm := &cannedCompleter{response: `[{"broken": ]`}
	ex := NewExtractor(llm, nil, slog.Default())

	res, err := ex.Extract(context.Background(), uuid.New(), CategoryDisbursements, "DISBURSEMENTS", "text")
	if err != nil {
		t.Fatalf("malformed output must not be a fatal error, got %v", err)
	}
	if res.Count() != 0 {
		t.Errorf("expected empty result, got %d records", res.Count())
	}
	if !res.Discarded {
		t.Error("expected result to be marked discarded")
	}
	// The raw and cleaned strings survive a discard for operator inspection.
	if res.Raw != `[{"broken": ]` {
		t.Errorf("raw response not retained, got %q", res.Raw)
	}
	if res.Clean == "" {
		t.Error("cleaned response not retained")
	}
}

func TestExtract_RepairedFlag(t *testing.T) {
	llm := &cannedCompleter{
		response: "```json\n[{\"name\":\"Acme Ltd\",\"role\":\"Claimant\"},]\n```",
	}
	ex := NewExtractor(llm, nil, slog.Default())

	res, err := ex.Extract(context.Background(), uuid.New(), CategoryParties, "PARTIES", "text")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !res.Repaired {
		t.Error("expected fenced response to be marked repaired")
	}
	if len(res.Parties) != 1 {
		t.Errorf("expected 1 party, got %d", len(res.Parties))
	}
}

func TestExtract_SkipsUnusableRecords(t *testing.T) {
	llm := &cannedCompleter{
		response: `[{"name":"Acme Ltd","role":"Claimant"},{"role":"Defendant"}]`,
	}
	ex := NewExtractor(llm, nil, slog.Default())

	res, err := ex.Extract(context.Background(), uuid.New(), CategoryParties, "PARTIES", "text")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(res.Parties) != 1 {
		t.Errorf("expected 1 party, got %d", len(res.Parties))
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped record, got %d", res.Skipped)
	}
}

func TestExtract_RecordsCategoryLatency(t *testing.T) {
	llm := &cannedCompleter{response: `[]`}
	stats := NewLLMStats(time.Hour)
	ex := NewExtractor(llm, stats, slog.Default())

	if _, err := ex.Extract(context.Background(), uuid.New(), CategoryWorkItems, "", "text"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if _, err := ex.Extract(context.Background(), uuid.New(), CategoryParties, "", "text"); err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	snap := stats.Snapshot()
	if snap.Overall.Count != 2 {
		t.Fatalf("expected 2 samples, got %d", snap.Overall.Count)
	}
	if snap.ByCategory["work_items"].Count != 1 {
		t.Errorf("expected 1 work_items sample, got %d", snap.ByCategory["work_items"].Count)
	}
	if snap.ByCategory["parties"].Count != 1 {
		t.Errorf("expected 1 parties sample, got %d", snap.ByCategory["parties"].Count)
	}
}

func TestExtractCaseInfo_ParsesIdentity(t *testing.T) {
	llm := &cannedCompleter{
		response: "Case Reference: CL-2024-000123\nTitle: Smith v Jones\nCourt: High Court of Justice\nDescription: Contract dispute over unpaid invoices.",
	}
	ex := NewExtractor(llm, nil, slog.Default())

	info, err := ex.ExtractCaseInfo(context.Background(), "IN THE HIGH COURT OF JUSTICE...")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if info.Reference != "CL-2024-000123" {
		t.Errorf("unexpected reference %q", info.Reference)
	}
	if info.Title != "Smith v Jones" {
		t.Errorf("unexpected title %q", info.Title)
	}
	if info.Court != "High Court of Justice" {
		t.Errorf("unexpected court %q", info.Court)
	}
}

func TestExtractCaseInfo_GeneratesReferenceWhenUnknown(t *testing.T) {
	llm := &cannedCompleter{
		response: "Case Reference: UNKNOWN\nTitle: UNKNOWN\nCourt: UNKNOWN\nDescription: UNKNOWN",
	}
	ex := NewExtractor(llm, nil, slog.Default())

	info, err := ex.ExtractCaseInfo(context.Background(), "an unlabelled attendance note")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(info.Reference) != len("CASE-XXXXXXXX") || info.Reference[:5] != "CASE-" {
		t.Errorf("expected generated CASE- reference, got %q", info.Reference)
	}
	if info.Title != info.Reference {
		t.Errorf("expected title to fall back to reference, got %q", info.Title)
	}
}

func TestBuildPrompt_EmbedsVocabularyAndChunk(t *testing.T) {
	prompt := BuildPrompt(CategoryWorkItems, "COSTS", "Attended hearing.")
	for _, want := range []string{"Attendance on Court", "Preparation", "COSTS", "Attended hearing."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
