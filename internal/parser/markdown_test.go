package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeLines(t *testing.T) {
	input := `# Case Summary

Intro text.

## COSTS

Attended client meeting on 2024-01-15.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Case Summary" {
		t.Errorf("expected title from first h1, got %q", doc.Title)
	}

	lines := strings.Split(doc.Text, "\n")
	foundHeading := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "COSTS" {
			foundHeading = true
		}
	}
	if !foundHeading {
		t.Errorf("heading not on its own line: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Intro text.") {
		t.Errorf("body text lost: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Attended client meeting on 2024-01-15.") {
		t.Errorf("body text lost: %q", doc.Text)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := "Just some plain text.\n\nAnother paragraph.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "plain" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Just some plain text.") {
		t.Errorf("text lost: %q", doc.Text)
	}
}

func TestMarkdownParser_SecondH1DoesNotRetitle(t *testing.T) {
	input := "# First\n\nBody.\n\n# Second\n\nMore.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "First" {
		t.Errorf("expected title %q, got %q", "First", doc.Title)
	}
	if !strings.Contains(doc.Text, "Second") {
		t.Errorf("second heading lost: %q", doc.Text)
	}
}
