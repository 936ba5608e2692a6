package chunker

import (
	"regexp"
	"strings"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in characters.
	ChunkOverlap int // Overlap between consecutive window chunks in characters.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

// Chunk is a text segment ready for extraction. StartOffset indexes into the
// original document text; Heading is the legal section heading that opened
// the segment's section, empty for text before the first heading.
type Chunk struct {
	Text        string
	Heading     string
	StartOffset int
	Index       int
}

// Legal section headings that open a new section. A heading must be the
// whole line: "PARTIES" splits, "Claimant: Acme Ltd" does not.
var headingRe = regexp.MustCompile(`(?im)^(PARTIES|CLAIMANTS?|DEFENDANTS?|APPLICANTS?|RESPONDENTS?|STATEMENTS FILED|WITNESS(?:ES)?|BACKGROUND|CASE SUMMARY|COSTS|DISBURSEMENTS|PROCEEDINGS|ORDER|JUDGMENT)[ \t]*\r?$`)

// ChunkText splits document text at legal section headings, then falls back
// to sliding windows for any section longer than twice the target size.
// Whitespace-only chunks are dropped. Empty input yields no chunks.
func ChunkText(text string, cfg Config) []Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []Chunk
	index := 0
	emit := func(body string, heading string, offset int) {
		trimmed := strings.TrimSpace(body)
		if trimmed == "" {
			return
		}
		leading := len(body) - len(strings.TrimLeft(body, " \t\r\n"))
		chunks = append(chunks, Chunk{
			Text:        trimmed,
			Heading:     heading,
			StartOffset: offset + leading,
			Index:       index,
		})
		index++
	}

	for _, sec := range splitByHeadings(text) {
		body := text[sec.start:sec.end]
		if len(body) > 2*cfg.ChunkSize {
			for _, span := range slidingWindowSpans(len(body), cfg.ChunkSize, cfg.ChunkOverlap) {
				emit(body[span[0]:span[1]], sec.heading, sec.start+span[0])
			}
		} else {
			emit(body, sec.heading, sec.start)
		}
	}
	return chunks
}

type section struct {
	start, end int
	heading    string
}

// splitByHeadings partitions [0, len(text)) at heading line starts. The
// boundaries cover the text exactly: no gaps, no overlaps.
func splitByHeadings(text string) []section {
	matches := headingRe.FindAllStringSubmatchIndex(text, -1)

	var sections []section
	if len(matches) == 0 || matches[0][0] != 0 {
		end := len(text)
		if len(matches) > 0 {
			end = matches[0][0]
		}
		sections = append(sections, section{start: 0, end: end})
	}
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, section{
			start:   m[0],
			end:     end,
			heading: strings.ToUpper(text[m[2]:m[3]]),
		})
	}
	return sections
}

// SlidingWindow splits text into overlapping fixed-size chunks. The final
// window is clipped to the text end. When size <= overlap sliding would
// never advance, so the whole text is emitted as one chunk instead.
func SlidingWindow(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	spans := slidingWindowSpans(len(text), size, overlap)
	out := make([]string, 0, len(spans))
	for _, span := range spans {
		out = append(out, text[span[0]:span[1]])
	}
	return out
}

func slidingWindowSpans(length, size, overlap int) [][2]int {
	if size <= overlap {
		return [][2]int{{0, length}}
	}
	var spans [][2]int
	start := 0
	for start < length {
		end := start + size
		if end > length {
			end = length
		}
		spans = append(spans, [2]int{start, end})
		if end == length {
			break
		}
		start = end - overlap
	}
	return spans
}
