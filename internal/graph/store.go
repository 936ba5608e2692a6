package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dhewitt/costgraph/internal/billing"
)

const dateLayout = "2006-01-02"

// EnsureCase merges a case by reference, creating it on first sight and
// returning the stored record either way. Title, court and description are
// only written on create so later uploads never clobber earlier identity.
func (c *Client) EnsureCase(ctx context.Context, info billing.CaseInfo) (billing.Case, error) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (c:Case {reference: $reference})
ON CREATE SET
  c.case_id = $case_id,
  c.title = $title,
  c.court = $court,
  c.description = $description,
  c.created_at = $now,
  c.updated_at = $now
ON MATCH SET c.updated_at = $now
RETURN c
`, map[string]any{
			"reference":   info.Reference,
			"case_id":     uuid.New().String(),
			"title":       info.Title,
			"court":       info.Court,
			"description": info.Description,
			"now":         now,
		})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return billing.Case{}, fmt.Errorf("graph: ensure case %q: %w", info.Reference, err)
	}

	node, _, err := neo4j.GetRecordValue[neo4j.Node](result.(*neo4j.Record), "c")
	if err != nil {
		return billing.Case{}, fmt.Errorf("graph: ensure case %q: %w", info.Reference, err)
	}
	return caseFromNode(node), nil
}

// CreateWorkItem upserts a work item node and attaches it to its case.
func (c *Client) CreateWorkItem(ctx context.Context, w billing.WorkItem) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {case_id: $case_id})
MERGE (w:WorkItem {work_item_id: $work_item_id})
SET w.date_of_work = $date_of_work,
    w.activity_type = $activity_type,
    w.description = $description,
    w.time_spent_units = $time_spent_units,
    w.time_spent_decimal_hours = $time_spent_decimal_hours,
    w.applicable_hourly_rate_gbp = $applicable_hourly_rate_gbp,
    w.claimed_amount_gbp = $claimed_amount_gbp,
    w.is_recoverable = $is_recoverable,
    w.disputed = $disputed,
    w.dispute_reason = $dispute_reason,
    w.date_assumed = $date_assumed
MERGE (c)-[:HAS_WORK_ITEM]->(w)
`, map[string]any{
			"case_id":                    w.CaseID.String(),
			"work_item_id":               w.ID.String(),
			"date_of_work":               w.DateOfWork.Format(dateLayout),
			"activity_type":              string(w.ActivityType),
			"description":                w.Description,
			"time_spent_units":           int64(w.TimeSpentUnits),
			"time_spent_decimal_hours":   w.TimeSpentHours,
			"applicable_hourly_rate_gbp": w.HourlyRateGBP,
			"claimed_amount_gbp":         w.ClaimedGBP,
			"is_recoverable":             w.IsRecoverable,
			"disputed":                   w.Disputed,
			"dispute_reason":             w.DisputeReason,
			"date_assumed":               w.DateAssumed,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: create work item: %w", err)
	}
	return nil
}

// CreateDisbursement upserts a disbursement node and attaches it to its case.
func (c *Client) CreateDisbursement(ctx context.Context, d billing.Disbursement) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {case_id: $case_id})
MERGE (d:Disbursement {disbursement_id: $disbursement_id})
SET d.date_incurred = $date_incurred,
    d.disbursement_type = $disbursement_type,
    d.description = $description,
    d.payee_name = $payee_name,
    d.amount_net_gbp = $amount_net_gbp,
    d.vat_gbp = $vat_gbp,
    d.amount_gross_gbp = $amount_gross_gbp,
    d.is_recoverable = $is_recoverable,
    d.disputed = $disputed,
    d.dispute_reason = $dispute_reason,
    d.date_assumed = $date_assumed
MERGE (c)-[:HAS_DISBURSEMENT]->(d)
`, map[string]any{
			"case_id":           d.CaseID.String(),
			"disbursement_id":   d.ID.String(),
			"date_incurred":     d.DateIncurred.Format(dateLayout),
			"disbursement_type": string(d.Type),
			"description":       d.Description,
			"payee_name":        d.PayeeName,
			"amount_net_gbp":    d.NetGBP,
			"vat_gbp":           d.VATGBP,
			"amount_gross_gbp":  d.GrossGBP,
			"is_recoverable":    d.IsRecoverable,
			"disputed":          d.Disputed,
			"dispute_reason":    d.DisputeReason,
			"date_assumed":      d.DateAssumed,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: create disbursement: %w", err)
	}
	return nil
}

// CreateParty upserts a party. Parties merge on (case, name) rather than id
// so the same name extracted from several chunks lands on one node.
func (c *Client) CreateParty(ctx context.Context, p billing.Party) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {case_id: $case_id})
MERGE (c)-[:HAS_PARTY]->(p:Party {name: $name})
ON CREATE SET p.party_id = $party_id, p.role = $role
`, map[string]any{
			"case_id":  p.CaseID.String(),
			"party_id": p.ID.String(),
			"name":     p.Name,
			"role":     string(p.Role),
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: create party: %w", err)
	}
	return nil
}

// ChunkRecord is the stored form of one document chunk.
type ChunkRecord struct {
	ID           uuid.UUID
	CaseID       uuid.UUID
	DocumentHash string
	FileName     string
	Heading      string
	Text         string
	Index        int
}

// CreateChunk upserts a document chunk and attaches it to its case.
func (c *Client) CreateChunk(ctx context.Context, ch ChunkRecord) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {case_id: $case_id})
MERGE (ch:DocumentChunk {chunk_id: $chunk_id})
SET ch.document_hash = $document_hash,
    ch.file_name = $file_name,
    ch.heading = $heading,
    ch.text = $text,
    ch.chunk_index = $chunk_index
MERGE (c)-[:HAS_DOCUMENT]->(ch)
`, map[string]any{
			"case_id":       ch.CaseID.String(),
			"chunk_id":      ch.ID.String(),
			"document_hash": ch.DocumentHash,
			"file_name":     ch.FileName,
			"heading":       ch.Heading,
			"text":          ch.Text,
			"chunk_index":   int64(ch.Index),
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: create chunk: %w", err)
	}
	return nil
}

// DocumentExists reports whether any chunk with the given content hash is
// already stored, used to skip re-ingesting an unchanged file.
func (c *Client) DocumentExists(ctx context.Context, documentHash string) (bool, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (ch:DocumentChunk {document_hash: $hash})
RETURN count(ch) AS n
`, map[string]any{"hash": documentHash})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _, err := neo4j.GetRecordValue[int64](rec, "n")
		return n, err
	})
	if err != nil {
		return false, fmt.Errorf("graph: document exists: %w", err)
	}
	return result.(int64) > 0, nil
}

// FindCaseByReference looks a case up by its reference. A missing case is
// (zero, false, nil), not an error.
func (c *Client) FindCaseByReference(ctx context.Context, reference string) (billing.Case, bool, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {reference: $reference})
RETURN c
`, map[string]any{"reference": reference})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return recs, nil
	})
	if err != nil {
		return billing.Case{}, false, fmt.Errorf("graph: find case %q: %w", reference, err)
	}

	recs := result.([]*neo4j.Record)
	if len(recs) == 0 {
		return billing.Case{}, false, nil
	}
	node, _, err := neo4j.GetRecordValue[neo4j.Node](recs[0], "c")
	if err != nil {
		return billing.Case{}, false, fmt.Errorf("graph: find case %q: %w", reference, err)
	}
	return caseFromNode(node), true, nil
}

// GetCase loads a case and everything hanging off it. A missing case is
// (zero, false, nil).
func (c *Client) GetCase(ctx context.Context, caseID uuid.UUID) (billing.Case, bool, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case {case_id: $case_id})
OPTIONAL MATCH (c)-[:HAS_WORK_ITEM]->(w:WorkItem)
OPTIONAL MATCH (c)-[:HAS_DISBURSEMENT]->(d:Disbursement)
OPTIONAL MATCH (c)-[:HAS_PARTY]->(p:Party)
RETURN c,
       collect(DISTINCT w) AS work_items,
       collect(DISTINCT d) AS disbursements,
       collect(DISTINCT p) AS parties
`, map[string]any{"case_id": caseID.String()})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return recs, nil
	})
	if err != nil {
		return billing.Case{}, false, fmt.Errorf("graph: get case %s: %w", caseID, err)
	}

	recs := result.([]*neo4j.Record)
	if len(recs) == 0 {
		return billing.Case{}, false, nil
	}
	rec := recs[0]

	node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "c")
	if err != nil {
		return billing.Case{}, false, fmt.Errorf("graph: get case %s: %w", caseID, err)
	}
	cs := caseFromNode(node)

	for _, n := range nodeList(rec, "work_items") {
		cs.WorkItems = append(cs.WorkItems, workItemFromNode(n, cs.ID))
	}
	for _, n := range nodeList(rec, "disbursements") {
		cs.Disbursements = append(cs.Disbursements, disbursementFromNode(n, cs.ID))
	}
	for _, n := range nodeList(rec, "parties") {
		cs.Parties = append(cs.Parties, partyFromNode(n, cs.ID))
	}
	return cs, true, nil
}

// ListCases returns every stored case, most recently updated first.
func (c *Client) ListCases(ctx context.Context) ([]billing.Case, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (c:Case)
RETURN c
ORDER BY c.updated_at DESC
`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list cases: %w", err)
	}

	recs := result.([]*neo4j.Record)
	cases := make([]billing.Case, 0, len(recs))
	for _, rec := range recs {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "c")
		if err != nil {
			return nil, fmt.Errorf("graph: list cases: %w", err)
		}
		cases = append(cases, caseFromNode(node))
	}
	return cases, nil
}

// ListWorkItems returns a case's work items in date order.
func (c *Client) ListWorkItems(ctx context.Context, caseID uuid.UUID) ([]billing.WorkItem, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:Case {case_id: $case_id})-[:HAS_WORK_ITEM]->(w:WorkItem)
RETURN w
ORDER BY w.date_of_work
`, map[string]any{"case_id": caseID.String()})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list work items: %w", err)
	}

	recs := result.([]*neo4j.Record)
	items := make([]billing.WorkItem, 0, len(recs))
	for _, rec := range recs {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "w")
		if err != nil {
			return nil, fmt.Errorf("graph: list work items: %w", err)
		}
		items = append(items, workItemFromNode(node, caseID))
	}
	return items, nil
}

// ListDisbursements returns a case's disbursements in date order.
func (c *Client) ListDisbursements(ctx context.Context, caseID uuid.UUID) ([]billing.Disbursement, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:Case {case_id: $case_id})-[:HAS_DISBURSEMENT]->(d:Disbursement)
RETURN d
ORDER BY d.date_incurred
`, map[string]any{"case_id": caseID.String()})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list disbursements: %w", err)
	}

	recs := result.([]*neo4j.Record)
	disbs := make([]billing.Disbursement, 0, len(recs))
	for _, rec := range recs {
		node, _, err := neo4j.GetRecordValue[neo4j.Node](rec, "d")
		if err != nil {
			return nil, fmt.Errorf("graph: list disbursements: %w", err)
		}
		disbs = append(disbs, disbursementFromNode(node, caseID))
	}
	return disbs, nil
}

// ListChunkFiles returns the distinct source file names whose chunks are
// attached to a case, used to cite sources on a generated bill.
func (c *Client) ListChunkFiles(ctx context.Context, caseID uuid.UUID) ([]string, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (:Case {case_id: $case_id})-[:HAS_DOCUMENT]->(ch:DocumentChunk)
RETURN DISTINCT ch.file_name AS file_name
ORDER BY file_name
`, map[string]any{"case_id": caseID.String()})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("graph: list chunk files: %w", err)
	}

	recs := result.([]*neo4j.Record)
	files := make([]string, 0, len(recs))
	for _, rec := range recs {
		name, _, _ := neo4j.GetRecordValue[string](rec, "file_name")
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}

func nodeList(rec *neo4j.Record, key string) []neo4j.Node {
	raw, ok := rec.Get(key)
	if !ok {
		return nil
	}
	vals, ok := raw.([]any)
	if !ok {
		return nil
	}
	nodes := make([]neo4j.Node, 0, len(vals))
	for _, v := range vals {
		if n, ok := v.(neo4j.Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func caseFromNode(n neo4j.Node) billing.Case {
	return billing.Case{
		ID:          propUUID(n, "case_id"),
		Reference:   propString(n, "reference"),
		Title:       propString(n, "title"),
		Court:       propString(n, "court"),
		Description: propString(n, "description"),
		CreatedAt:   propTime(n, "created_at", time.RFC3339),
		UpdatedAt:   propTime(n, "updated_at", time.RFC3339),
	}
}

func workItemFromNode(n neo4j.Node, caseID uuid.UUID) billing.WorkItem {
	return billing.WorkItem{
		ID:             propUUID(n, "work_item_id"),
		CaseID:         caseID,
		DateOfWork:     propTime(n, "date_of_work", dateLayout),
		ActivityType:   billing.ActivityType(propString(n, "activity_type")),
		Description:    propString(n, "description"),
		TimeSpentUnits: int(propInt(n, "time_spent_units")),
		TimeSpentHours: propFloat(n, "time_spent_decimal_hours"),
		HourlyRateGBP:  propFloat(n, "applicable_hourly_rate_gbp"),
		ClaimedGBP:     propFloat(n, "claimed_amount_gbp"),
		IsRecoverable:  propBool(n, "is_recoverable"),
		Disputed:       propBool(n, "disputed"),
		DisputeReason:  propString(n, "dispute_reason"),
		DateAssumed:    propBool(n, "date_assumed"),
	}
}

func disbursementFromNode(n neo4j.Node, caseID uuid.UUID) billing.Disbursement {
	return billing.Disbursement{
		ID:            propUUID(n, "disbursement_id"),
		CaseID:        caseID,
		DateIncurred:  propTime(n, "date_incurred", dateLayout),
		Type:          billing.DisbursementType(propString(n, "disbursement_type")),
		Description:   propString(n, "description"),
		PayeeName:     propString(n, "payee_name"),
		NetGBP:        propFloat(n, "amount_net_gbp"),
		VATGBP:        propFloat(n, "vat_gbp"),
		GrossGBP:      propFloat(n, "amount_gross_gbp"),
		IsRecoverable: propBool(n, "is_recoverable"),
		Disputed:      propBool(n, "disputed"),
		DisputeReason: propString(n, "dispute_reason"),
		DateAssumed:   propBool(n, "date_assumed"),
	}
}

func partyFromNode(n neo4j.Node, caseID uuid.UUID) billing.Party {
	return billing.Party{
		ID:     propUUID(n, "party_id"),
		CaseID: caseID,
		Name:   propString(n, "name"),
		Role:   billing.PartyRole(propString(n, "role")),
	}
}

func propString(n neo4j.Node, key string) string {
	if v, ok := n.Props[key].(string); ok {
		return v
	}
	return ""
}

func propFloat(n neo4j.Node, key string) float64 {
	switch v := n.Props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func propInt(n neo4j.Node, key string) int64 {
	switch v := n.Props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func propBool(n neo4j.Node, key string) bool {
	if v, ok := n.Props[key].(bool); ok {
		return v
	}
	return false
}

func propUUID(n neo4j.Node, key string) uuid.UUID {
	id, err := uuid.Parse(propString(n, key))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func propTime(n neo4j.Node, key, layout string) time.Time {
	t, err := time.Parse(layout, propString(n, key))
	if err != nil {
		return time.Time{}
	}
	return t
}
