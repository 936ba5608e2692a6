package extract

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dhewitt/costgraph/internal/billing"
)

const caseInfoPrompt = `You are reading the opening of a legal case document. Identify the case it belongs to.

Respond with exactly four lines in this format, nothing else:
Case Reference: <the case or claim number, or UNKNOWN>
Title: <the case title, e.g. "Smith v Jones", or UNKNOWN>
Court: <the court name, or UNKNOWN>
Description: <one sentence describing the matter, or UNKNOWN>

Document opening:
---
%s
---`

// caseInfoWindow bounds how much document text the identity prompt sees.
const caseInfoWindow = 4000

// ExtractCaseInfo asks the model to identify the case a document belongs to
// from its opening text. It always returns a usable identity: when the model
// cannot find a reference, a random CASE-XXXXXXXX one is generated so
// ingestion can proceed.
func (e *Extractor) ExtractCaseInfo(ctx context.Context, text string) (billing.CaseInfo, error) {
	window := text
	if len(window) > caseInfoWindow {
		window = window[:caseInfoWindow]
	}

	start := time.Now()
	raw, err := e.llm.Complete(ctx, fmt.Sprintf(caseInfoPrompt, window))
	if err != nil {
		return billing.CaseInfo{}, err
	}
	if e.stats != nil {
		e.stats.Record("case_info", time.Since(start).Milliseconds())
	}

	info := parseCaseInfo(raw)
	if info.Reference == "" {
		info.Reference = GeneratedCaseReference()
		e.log.Info("no case reference found in document, generated one",
			"reference", info.Reference)
	}
	if info.Title == "" {
		info.Title = info.Reference
	}
	return info, nil
}

func parseCaseInfo(raw string) billing.CaseInfo {
	var info billing.CaseInfo
	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "UNKNOWN") {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "case reference", "reference":
			info.Reference = value
		case "title", "case title":
			info.Title = value
		case "court":
			info.Court = value
		case "description":
			info.Description = value
		}
	}
	return info
}

// GeneratedCaseReference returns a synthetic reference for documents that
// carry no identifiable case number.
func GeneratedCaseReference() string {
	b := make([]byte, 4)
	rand.Read(b)
	return "CASE-" + strings.ToUpper(hex.EncodeToString(b))
}
