package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhewitt/costgraph/internal/billing"
)

// Completer is the LLM surface the extractor depends on. Tests substitute a
// canned implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor runs category prompts against document chunks and coerces the
// responses into typed billing records. Call latency is recorded per
// category when a stats sink is attached.
type Extractor struct {
	llm   Completer
	log   *slog.Logger
	stats *LLMStats
}

func NewExtractor(llm Completer, stats *LLMStats, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{llm: llm, log: log, stats: stats}
}

// Result holds the typed records recovered from one chunk for one category.
type Result struct {
	WorkItems     []billing.WorkItem
	Disbursements []billing.Disbursement
	Parties       []billing.Party
	// Skipped counts objects the model returned that could not be coerced
	// into a usable record.
	Skipped int
	// Repaired reports that the raw response needed sanitizing before it
	// would parse.
	Repaired bool
	// Discarded reports that the response never parsed and the whole pass
	// yielded nothing.
	Discarded bool
	// Raw and Clean retain the model's response verbatim and after repair
	// when the response was discarded, for operator inspection.
	Raw   string
	Clean string
}

// DatesAssumed counts records whose dates were defaulted because the source
// value was unparseable.
func (r Result) DatesAssumed() int {
	n := 0
	for _, w := range r.WorkItems {
		if w.DateAssumed {
			n++
		}
	}
	for _, d := range r.Disbursements {
		if d.DateAssumed {
			n++
		}
	}
	return n
}

func (r Result) Count() int {
	return len(r.WorkItems) + len(r.Disbursements) + len(r.Parties)
}

// Extract runs one category pass over one chunk. Transport failures are
// returned to the caller for retry. A response that parses badly is not an
// error: the malformed objects are skipped, logged, and the rest kept.
func (e *Extractor) Extract(ctx context.Context, caseID uuid.UUID, category Category, heading, chunkText string) (Result, error) {
	prompt := BuildPrompt(category, heading, chunkText)

	start := time.Now()
	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	if e.stats != nil {
		e.stats.Record(string(category), time.Since(start).Milliseconds())
	}

	clean, found := SanitizeResponse(raw)
	repaired := found && clean != strings.TrimSpace(raw)
	objects, err := ParseArray(clean)
	if err != nil {
		// The full raw and cleaned strings are kept on the result and
		// logged whole so a bad response can be inspected after the fact.
		e.log.Warn("discarding unparseable extraction response",
			"category", category,
			"heading", heading,
			"error", err,
			"raw_response", raw,
			"clean_response", clean)
		return Result{Repaired: repaired, Discarded: true, Raw: raw, Clean: clean}, nil
	}

	res := Result{Repaired: repaired}
	now := time.Now().UTC()
	for _, obj := range objects {
		switch category {
		case CategoryWorkItems:
			w, err := CoerceWorkItem(caseID, obj, now)
			if err != nil {
				e.log.Debug("skipping work item", "error", err)
				res.Skipped++
				continue
			}
			res.WorkItems = append(res.WorkItems, w)
		case CategoryDisbursements:
			d, err := CoerceDisbursement(caseID, obj, now)
			if err != nil {
				e.log.Debug("skipping disbursement", "error", err)
				res.Skipped++
				continue
			}
			res.Disbursements = append(res.Disbursements, d)
		case CategoryParties:
			p, err := CoerceParty(caseID, obj)
			if err != nil {
				e.log.Debug("skipping party", "error", err)
				res.Skipped++
				continue
			}
			res.Parties = append(res.Parties, p)
		}
	}
	return res, nil
}
