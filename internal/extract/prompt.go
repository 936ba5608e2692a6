package extract

import (
	"fmt"
	"strings"

	"github.com/dhewitt/costgraph/internal/billing"
)

// Category selects which entity family an extraction pass targets.
type Category string

const (
	CategoryWorkItems     Category = "work_items"
	CategoryDisbursements Category = "disbursements"
	CategoryParties       Category = "parties"
)

// Categories lists every extraction pass run against each chunk.
func Categories() []Category {
	return []Category{CategoryWorkItems, CategoryDisbursements, CategoryParties}
}

const promptRules = `Rules:
- Respond with ONLY the JSON array, no other text before or after it.
- Do not include comments in the JSON.
- Do not include trailing commas.
- Do not include ellipsis tokens ("...") or truncate the array.
- Use null only where a field is truly unknown.
- Return an empty array [] if the section contains nothing of this kind.`

const workItemSchema = `Each object must have these fields:
- "date_of_work": date the work was performed, YYYY-MM-DD
- "activity_type": one of: %s
- "description": short description of the work done
- "time_spent_units": integer 6-minute billing units (1 unit = 6 minutes)
- "time_spent_decimal_hours": decimal hours spent
- "applicable_hourly_rate_gbp": hourly rate in GBP
- "claimed_amount_gbp": amount claimed in GBP (omit to have it computed from time x rate)
- "is_recoverable": boolean, default true
- "disputed": boolean, default false
- "dispute_reason": string or null`

const disbursementSchema = `Each object must have these fields:
- "date_incurred": date the expense was incurred, YYYY-MM-DD
- "disbursement_type": one of: %s
- "description": short description of the expense
- "payee_name": who was paid, or null
- "amount_net_gbp": net amount in GBP
- "vat_gbp": VAT amount in GBP
- "amount_gross_gbp": gross amount in GBP (omit to have it computed as net + VAT)
- "is_recoverable": boolean, default true
- "disputed": boolean, default false
- "dispute_reason": string or null`

const partySchema = `Each object must have these fields:
- "name": full name of the person or organisation
- "role": one of: %s`

// BuildPrompt assembles the category-specific instruction embedding the
// chunk text and the closed enum vocabulary for that category.
func BuildPrompt(category Category, heading, chunkText string) string {
	var sb strings.Builder

	switch category {
	case CategoryWorkItems:
		sb.WriteString("Extract every billable work item (fee-earner time entry) from the following legal case document section. Return a JSON array of work items.\n\n")
		fmt.Fprintf(&sb, workItemSchema, joinActivityTypes())
	case CategoryDisbursements:
		sb.WriteString("Extract every disbursement (reimbursable case expense such as court fees, counsel fees or expert fees) from the following legal case document section. Return a JSON array of disbursements.\n\n")
		fmt.Fprintf(&sb, disbursementSchema, joinDisbursementTypes())
	case CategoryParties:
		sb.WriteString("Extract every party (claimant, defendant, applicant, respondent, witness, solicitor) named in the following legal case document section. Return a JSON array of parties.\n\n")
		fmt.Fprintf(&sb, partySchema, joinPartyRoles())
	}

	sb.WriteString("\n\n")
	sb.WriteString(promptRules)
	sb.WriteString("\n\n---\n")
	if heading != "" {
		fmt.Fprintf(&sb, "Section: %s\n", heading)
	}
	sb.WriteString("---\n")
	sb.WriteString(chunkText)
	return sb.String()
}

func joinActivityTypes() string {
	vals := billing.ActivityTypes()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%q", string(v))
	}
	return strings.Join(parts, ", ")
}

func joinDisbursementTypes() string {
	vals := billing.DisbursementTypes()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%q", string(v))
	}
	return strings.Join(parts, ", ")
}

func joinPartyRoles() string {
	vals := billing.PartyRoles()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%q", string(v))
	}
	return strings.Join(parts, ", ")
}
