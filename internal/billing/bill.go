package billing

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Section titles used on a generated bill.
const (
	SectionWorkDone      = "Work Done"
	SectionDisbursements = "Disbursements"
)

// BillItem is a single dated line on a bill section.
type BillItem struct {
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	AmountGBP     float64   `json:"amount_gbp"`
	IsRecoverable bool      `json:"is_recoverable"`
}

// BillSection is an ordered group of bill items under a heading.
type BillSection struct {
	Title string     `json:"title"`
	Items []BillItem `json:"items"`
}

// Bill is the assembled bill of costs for a case. It is a pure derived view:
// regenerating from the same work items and disbursements yields the same
// sections and totals (the identifier and timestamp aside).
type Bill struct {
	ID               uuid.UUID     `json:"bill_id"`
	CaseID           uuid.UUID     `json:"case_id"`
	GeneratedAt      time.Time     `json:"generated_at"`
	Sections         []BillSection `json:"sections"`
	TotalGBP         float64       `json:"total_amount"`
	RecoverableGBP   float64       `json:"recoverable_amount"`
}

// ErrRecoverableExceedsTotal reports a data-integrity defect in the stored
// entities (e.g. negative amounts). It is never silently corrected.
type ErrRecoverableExceedsTotal struct {
	Recoverable float64
	Total       float64
}

func (e *ErrRecoverableExceedsTotal) Error() string {
	return fmt.Sprintf("bill invariant violated: recoverable %.2f exceeds total %.2f", e.Recoverable, e.Total)
}

const penny = 0.01

// GenerateBill assembles a bill from a case's stored work items and
// disbursements. Empty inputs produce a bill with no sections and zero
// totals. A recoverable total exceeding the overall total is a construction
// error.
func GenerateBill(caseID uuid.UUID, items []WorkItem, disbs []Disbursement) (*Bill, error) {
	bill := &Bill{
		ID:          uuid.New(),
		CaseID:      caseID,
		GeneratedAt: time.Now().UTC(),
	}

	if len(items) > 0 {
		sorted := make([]WorkItem, len(items))
		copy(sorted, items)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].DateOfWork.Before(sorted[j].DateOfWork)
		})

		section := BillSection{Title: SectionWorkDone}
		for _, w := range sorted {
			section.Items = append(section.Items, BillItem{
				Date:          w.DateOfWork,
				Description:   w.Description,
				AmountGBP:     round2(w.BillAmount()),
				IsRecoverable: w.IsRecoverable,
			})
		}
		bill.Sections = append(bill.Sections, section)
	}

	if len(disbs) > 0 {
		sorted := make([]Disbursement, len(disbs))
		copy(sorted, disbs)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].DateIncurred.Before(sorted[j].DateIncurred)
		})

		section := BillSection{Title: SectionDisbursements}
		for _, d := range sorted {
			section.Items = append(section.Items, BillItem{
				Date:          d.DateIncurred,
				Description:   fmt.Sprintf("%s (%s)", d.Description, d.Type),
				AmountGBP:     round2(d.GrossAmount()),
				IsRecoverable: d.IsRecoverable,
			})
		}
		bill.Sections = append(bill.Sections, section)
	}

	var total, recoverable float64
	for _, s := range bill.Sections {
		for _, item := range s.Items {
			total += item.AmountGBP
			if item.IsRecoverable {
				recoverable += item.AmountGBP
			}
		}
	}
	bill.TotalGBP = round2(total)
	bill.RecoverableGBP = round2(recoverable)

	if bill.RecoverableGBP > bill.TotalGBP+penny/2 {
		return nil, &ErrRecoverableExceedsTotal{
			Recoverable: bill.RecoverableGBP,
			Total:       bill.TotalGBP,
		}
	}
	return bill, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
