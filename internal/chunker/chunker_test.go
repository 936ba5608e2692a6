package chunker

import (
	"strings"
	"testing"
)

func TestChunkText_EmptyInput(t *testing.T) {
	if chunks := ChunkText("", DefaultConfig()); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := ChunkText("   \n\t  ", DefaultConfig()); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(chunks))
	}
}

func TestChunkText_NoHeadings(t *testing.T) {
	text := "Just some ordinary prose without any section markers."
	chunks := ChunkText(text, DefaultConfig())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Heading != "" {
		t.Errorf("expected empty heading, got %q", chunks[0].Heading)
	}
	if chunks[0].Text != text {
		t.Errorf("expected chunk text %q, got %q", text, chunks[0].Text)
	}
	if chunks[0].StartOffset != 0 {
		t.Errorf("expected offset 0, got %d", chunks[0].StartOffset)
	}
}

func TestChunkText_SplitsAtHeadings(t *testing.T) {
	text := "Preamble text.\nPARTIES\nClaimant details here.\nCOSTS\nFee details here."
	chunks := ChunkText(text, DefaultConfig())

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Heading != "" {
		t.Errorf("chunk 0: expected un-headed, got heading %q", chunks[0].Heading)
	}
	if chunks[1].Heading != "PARTIES" {
		t.Errorf("chunk 1: expected heading PARTIES, got %q", chunks[1].Heading)
	}
	if chunks[2].Heading != "COSTS" {
		t.Errorf("chunk 2: expected heading COSTS, got %q", chunks[2].Heading)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
	}
}

func TestChunkText_HeadingMustBeWholeLine(t *testing.T) {
	// "Claimant: Acme Ltd" starts with a heading word but carries more
	// text, so it must not open a new section.
	text := "PARTIES\nClaimant: Acme Ltd\nCOSTS\nAttended client meeting on 2024-01-15, 1 hour at £300/hr"
	chunks := ChunkText(text, Config{ChunkSize: 128, ChunkOverlap: 50})

	if len(chunks) != 2 {
		t.Fatalf("expected exactly 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Heading != "PARTIES" {
		t.Errorf("chunk 0: expected heading PARTIES, got %q", chunks[0].Heading)
	}
	if !strings.Contains(chunks[0].Text, "Acme Ltd") {
		t.Errorf("chunk 0: expected claimant line, got %q", chunks[0].Text)
	}
	if chunks[1].Heading != "COSTS" {
		t.Errorf("chunk 1: expected heading COSTS, got %q", chunks[1].Heading)
	}
	if !strings.Contains(chunks[1].Text, "client meeting") {
		t.Errorf("chunk 1: expected costs narrative, got %q", chunks[1].Text)
	}
}

func TestChunkText_CaseInsensitiveHeadings(t *testing.T) {
	text := "background\nSome history.\nJudgment\nThe court ordered costs."
	chunks := ChunkText(text, DefaultConfig())

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Heading != "BACKGROUND" {
		t.Errorf("expected heading BACKGROUND, got %q", chunks[0].Heading)
	}
	if chunks[1].Heading != "JUDGMENT" {
		t.Errorf("expected heading JUDGMENT, got %q", chunks[1].Heading)
	}
}

func TestChunkText_CRLFLineEndings(t *testing.T) {
	text := "PARTIES\r\nClaimant: Acme Ltd\r\nCOSTS\r\nAttended client meeting.\r\n"
	chunks := ChunkText(text, DefaultConfig())

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Heading != "PARTIES" {
		t.Errorf("expected heading PARTIES, got %q", chunks[0].Heading)
	}
	if chunks[1].Heading != "COSTS" {
		t.Errorf("expected heading COSTS, got %q", chunks[1].Heading)
	}
}

func TestChunkText_OversizedSectionUsesWindows(t *testing.T) {
	body := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	text := "COSTS\n" + body
	cfg := Config{ChunkSize: 200, ChunkOverlap: 50}
	chunks := ChunkText(text, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for oversized section, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Heading != "COSTS" {
			t.Errorf("chunk %d: expected heading COSTS, got %q", i, c.Heading)
		}
		if len(c.Text) > cfg.ChunkSize {
			t.Errorf("chunk %d: length %d exceeds target %d", i, len(c.Text), cfg.ChunkSize)
		}
	}
}

func TestChunkText_Coverage(t *testing.T) {
	// Every character of the input must appear in some chunk span.
	body := strings.Repeat("abcdefghij ", 100)
	text := "PARTIES\n" + body + "\nCOSTS\n" + body
	cfg := Config{ChunkSize: 150, ChunkOverlap: 30}
	chunks := ChunkText(text, cfg)

	covered := make([]bool, len(text))
	for _, c := range chunks {
		for i := c.StartOffset; i < c.StartOffset+len(c.Text); i++ {
			covered[i] = true
		}
	}
	for i, ok := range covered {
		if !ok && strings.TrimSpace(string(text[i])) != "" {
			t.Fatalf("character at offset %d (%q) not covered by any chunk", i, text[i])
		}
	}
}

func TestChunkText_Offsets(t *testing.T) {
	text := "Intro.\nCOSTS\nFee narrative."
	chunks := ChunkText(text, DefaultConfig())

	for i, c := range chunks {
		got := text[c.StartOffset : c.StartOffset+len(c.Text)]
		if got != c.Text {
			t.Errorf("chunk %d: offset %d does not index its text, got %q want %q", i, c.StartOffset, got, c.Text)
		}
	}
}

func TestChunkText_RechunkingIsStable(t *testing.T) {
	// Re-chunking a single returned chunk must not grow the text.
	text := "COSTS\n" + strings.Repeat("Attendance on client. ", 60)
	cfg := Config{ChunkSize: 250, ChunkOverlap: 40}

	for _, c := range ChunkText(text, cfg) {
		total := 0
		for _, rc := range ChunkText(c.Text, cfg) {
			total += len(rc.Text)
		}
		// Overlap may duplicate characters only if the chunk is again
		// oversized; a single chunk within budget must round-trip.
		if len(c.Text) <= 2*cfg.ChunkSize && total > len(c.Text) {
			t.Errorf("re-chunking grew text from %d to %d characters", len(c.Text), total)
		}
	}
}

func TestSlidingWindow_Termination(t *testing.T) {
	text := strings.Repeat("x", 500)

	// overlap >= size must still terminate and cover the text.
	out := SlidingWindow(text, 100, 100)
	if len(out) == 0 {
		t.Fatal("expected at least one chunk")
	}
	joined := 0
	for _, c := range out {
		joined += len(c)
	}
	if joined < len(text) {
		t.Errorf("chunks cover %d of %d characters", joined, len(text))
	}

	out = SlidingWindow(text, 50, 200)
	if len(out) != 1 || len(out[0]) != len(text) {
		t.Errorf("degenerate config: expected whole text as one chunk, got %d chunks", len(out))
	}
}

func TestSlidingWindow_WindowsAdvanceBySizeMinusOverlap(t *testing.T) {
	text := strings.Repeat("y", 250)
	out := SlidingWindow(text, 100, 20)

	if len(out) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(out))
	}
	if len(out[0]) != 100 || len(out[1]) != 100 {
		t.Errorf("expected full windows of 100, got %d and %d", len(out[0]), len(out[1]))
	}
	// Final window is clipped: starts at 160, runs to 250.
	if len(out[2]) != 90 {
		t.Errorf("expected final window of 90, got %d", len(out[2]))
	}
}

func TestSlidingWindow_EmptyText(t *testing.T) {
	if out := SlidingWindow("", 100, 10); out != nil {
		t.Errorf("expected nil for empty text, got %v", out)
	}
}
