package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusChunking   JobStatus = "chunking"
	StatusExtracting JobStatus = "extracting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	// CaseRef and CaseTitle are the caller-supplied case identity. When
	// CaseRef is empty the case is discovered from the document text.
	CaseRef   string `json:"case_reference,omitempty"`
	CaseTitle string `json:"case_title,omitempty"`

	// Per-job chunking overrides; zero means use the service defaults.
	ChunkSize    int `json:"chunk_size,omitempty"`
	ChunkOverlap int `json:"chunk_overlap,omitempty"`

	Progress Progress `json:"progress"`

	CaseID      string    `json:"case_id,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalChunks     int      `json:"total_chunks"`
	ChunksProcessed int      `json:"chunks_processed"`
	ChunksFailed    int      `json:"chunks_failed"`
	WorkItems       int      `json:"work_items"`
	Disbursements   int      `json:"disbursements"`
	Parties         int      `json:"parties"`
	RecordsSkipped  int      `json:"records_skipped"`
	DatesAssumed    int      `json:"dates_assumed"`
	// Model-response quality: how many responses needed repair before they
	// parsed, and how many never parsed and were discarded.
	ResponsesRepaired  int      `json:"responses_repaired"`
	ResponsesDiscarded int      `json:"responses_discarded"`
	Errors             []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrChunksProcessed atomically increments chunks processed.
func (j *Job) IncrChunksProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksProcessed++
	j.UpdatedAt = time.Now()
}

// IncrChunksFailed atomically increments failed chunk count.
func (j *Job) IncrChunksFailed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksFailed++
	j.UpdatedAt = time.Now()
}

// AddRecords accumulates extracted record counts.
func (j *Job) AddRecords(workItems, disbursements, parties, skipped, datesAssumed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.WorkItems += workItems
	j.Progress.Disbursements += disbursements
	j.Progress.Parties += parties
	j.Progress.RecordsSkipped += skipped
	j.Progress.DatesAssumed += datesAssumed
	j.UpdatedAt = time.Now()
}

// NoteResponse tracks model-response quality for the job report.
func (j *Job) NoteResponse(repaired, discarded bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if repaired {
		j.Progress.ResponsesRepaired++
	}
	if discarded {
		j.Progress.ResponsesDiscarded++
	}
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records total chunk count.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

// SetCaseID records the resolved case.
func (j *Job) SetCaseID(id string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.CaseID = id
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	CaseRef   string    `json:"case_reference,omitempty"`
	CaseID    string    `json:"case_id,omitempty"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		CaseRef:   j.CaseRef,
		CaseID:    j.CaseID,
		Progress: Progress{
			TotalChunks:        j.Progress.TotalChunks,
			ChunksProcessed:    j.Progress.ChunksProcessed,
			ChunksFailed:       j.Progress.ChunksFailed,
			WorkItems:          j.Progress.WorkItems,
			Disbursements:      j.Progress.Disbursements,
			Parties:            j.Progress.Parties,
			RecordsSkipped:     j.Progress.RecordsSkipped,
			DatesAssumed:       j.Progress.DatesAssumed,
			ResponsesRepaired:  j.Progress.ResponsesRepaired,
			ResponsesDiscarded: j.Progress.ResponsesDiscarded,
			Errors:             errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
