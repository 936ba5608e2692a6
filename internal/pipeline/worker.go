package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dhewitt/costgraph/internal/billing"
	"github.com/dhewitt/costgraph/internal/chunker"
	"github.com/dhewitt/costgraph/internal/extract"
	"github.com/dhewitt/costgraph/internal/graph"
	"github.com/dhewitt/costgraph/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	extractor *extract.Extractor
	store     *graph.Client
	log       *slog.Logger
	chunkCfg  chunker.Config

	maxConcurrentExtract int
}

func NewWorker(ex *extract.Extractor, store *graph.Client, log *slog.Logger, chunkCfg chunker.Config, maxExtract int) *Worker {
	return &Worker{
		extractor:            ex,
		store:                store,
		log:                  log,
		chunkCfg:             chunkCfg,
		maxConcurrentExtract: maxExtract,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	// Compute content hash from the parsed text.
	job.ContentHash = ContentHashHex([]byte(doc.Text))

	// Phase 1.5: Dedup check
	exists, err := w.store.DocumentExists(ctx, job.ContentHash)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if exists {
		log.Info("duplicate document, skipping", "content_hash", job.ContentHash)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 1.7: Resolve the case this document belongs to.
	cs, err := w.resolveCase(ctx, job, doc)
	if err != nil {
		log.Error("case resolution failed", "error", err)
		job.AddError(fmt.Sprintf("resolve case: %s", err))
		job.SetStatus(StatusFailed, "case")
		return
	}
	job.SetCaseID(cs.ID.String())
	log = log.With("case", cs.Reference)

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	cfg := w.chunkCfg
	if job.ChunkSize > 0 {
		cfg.ChunkSize = job.ChunkSize
	}
	if job.ChunkOverlap > 0 {
		cfg.ChunkOverlap = job.ChunkOverlap
	}
	chunks := chunker.ChunkText(doc.Text, cfg)
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "chunking")
		return
	}

	for _, ch := range chunks {
		err := w.store.CreateChunk(ctx, graph.ChunkRecord{
			ID:           uuid.New(),
			CaseID:       cs.ID,
			DocumentHash: job.ContentHash,
			FileName:     job.Filename,
			Heading:      ch.Heading,
			Text:         ch.Text,
			Index:        ch.Index,
		})
		if err != nil {
			log.Warn("chunk store failed", "chunk", ch.Index, "error", err)
			job.AddError(fmt.Sprintf("store chunk %d: %s", ch.Index, err))
		}
	}

	// Phase 3: Extract entities from each chunk, one pass per category,
	// with bounded concurrency.
	job.SetStatus(StatusExtracting, "extracting")
	type task struct {
		chunk    chunker.Chunk
		category extract.Category
	}
	var tasks []task
	for _, ch := range chunks {
		for _, cat := range extract.Categories() {
			tasks = append(tasks, task{chunk: ch, category: cat})
		}
	}

	type taskResult struct {
		res extract.Result
		err error
		idx int
	}
	results := make(chan taskResult, len(tasks))
	sem := make(chan struct{}, w.maxConcurrentExtract)

	for i, t := range tasks {
		sem <- struct{}{}
		go func(i int, t task) {
			defer func() { <-sem }()
			var res extract.Result
			var lastErr error
			for attempt := 0; attempt < MaxRetries; attempt++ {
				res, lastErr = w.extractor.Extract(ctx, cs.ID, t.category, t.chunk.Heading, t.chunk.Text)
				if lastErr == nil || !IsRetryable(lastErr) {
					break
				}
				log.Warn("retryable extraction error", "chunk", t.chunk.Index, "category", t.category, "attempt", attempt, "error", lastErr)
				select {
				case <-time.After(Backoff(attempt)):
				case <-ctx.Done():
					results <- taskResult{err: ctx.Err(), idx: i}
					return
				}
			}
			results <- taskResult{res: res, err: lastErr, idx: i}
		}(i, t)
	}

	// Collect extraction results. Persistence happens below on this
	// goroutine so graph writes never race.
	var workItems []billing.WorkItem
	var disbursements []billing.Disbursement
	var parties []billing.Party
	hadErrors := false
	for range tasks {
		r := <-results
		if r.err != nil {
			t := tasks[r.idx]
			log.Error("extraction failed", "chunk", t.chunk.Index, "category", t.category, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d %s: %s", t.chunk.Index, t.category, r.err))
			job.IncrChunksFailed()
			hadErrors = true
			continue
		}
		workItems = append(workItems, r.res.WorkItems...)
		disbursements = append(disbursements, r.res.Disbursements...)
		parties = append(parties, r.res.Parties...)
		job.AddRecords(len(r.res.WorkItems), len(r.res.Disbursements), len(r.res.Parties), r.res.Skipped, r.res.DatesAssumed())
		job.NoteResponse(r.res.Repaired, r.res.Discarded)
		if r.res.Discarded {
			t := tasks[r.idx]
			job.AddError(fmt.Sprintf("chunk %d %s: response discarded as unparseable", t.chunk.Index, t.category))
		}
	}
	// A chunk counts as processed once all its category passes are in.
	for range chunks {
		job.IncrChunksProcessed()
	}
	log.Info("extraction complete",
		"work_items", len(workItems),
		"disbursements", len(disbursements),
		"parties", len(parties),
		"errors", hadErrors)

	if len(workItems)+len(disbursements)+len(parties) == 0 && hadErrors {
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 4: Persist.
	job.SetStatus(StatusStoring, "storing")
	stored := 0
	for _, wi := range workItems {
		if err := w.store.CreateWorkItem(ctx, wi); err != nil {
			log.Error("work item store failed", "error", err)
			job.AddError(fmt.Sprintf("store work item: %s", err))
			hadErrors = true
			continue
		}
		stored++
	}
	for _, d := range disbursements {
		if err := w.store.CreateDisbursement(ctx, d); err != nil {
			log.Error("disbursement store failed", "error", err)
			job.AddError(fmt.Sprintf("store disbursement: %s", err))
			hadErrors = true
			continue
		}
		stored++
	}
	for _, p := range parties {
		if err := w.store.CreateParty(ctx, p); err != nil {
			log.Error("party store failed", "error", err)
			job.AddError(fmt.Sprintf("store party: %s", err))
			hadErrors = true
			continue
		}
		stored++
	}
	log.Info("storage complete", "stored", stored)

	if hadErrors && stored > 0 {
		job.SetStatus(StatusPartial, "done")
	} else if hadErrors {
		job.SetStatus(StatusFailed, "storing")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// resolveCase finds or creates the case a document belongs to. An explicit
// reference on the job wins; otherwise the case identity is extracted from
// the document's opening text.
func (w *Worker) resolveCase(ctx context.Context, job *Job, doc *parser.Document) (billing.Case, error) {
	if job.CaseRef != "" {
		title := job.CaseTitle
		if title == "" {
			title = job.CaseRef
		}
		return w.store.EnsureCase(ctx, billing.CaseInfo{
			Reference: job.CaseRef,
			Title:     title,
		})
	}

	info, err := w.extractor.ExtractCaseInfo(ctx, doc.Text)
	if err != nil {
		return billing.Case{}, err
	}
	return w.store.EnsureCase(ctx, info)
}
