package billing

// Fee-earner grade thresholds by hourly rate, and the flat VAT rate applied
// to profit costs and vatable disbursements for presentation.
const (
	GradeARate = 500.0
	GradeBRate = 300.0
	GradeCRate = 200.0

	VATRate = 0.20
)

// GradeFor infers a fee-earner grade from an hourly rate.
func GradeFor(hourlyRate float64) string {
	switch {
	case hourlyRate >= GradeARate:
		return "A"
	case hourlyRate >= GradeBRate:
		return "B"
	case hourlyRate >= GradeCRate:
		return "C"
	default:
		return "D"
	}
}

// GradeBlock aggregates the work claimed at a single fee-earner grade.
type GradeBlock struct {
	Grade     string  `json:"grade"`
	Items     int     `json:"items"`
	Hours     float64 `json:"hours"`
	AmountGBP float64 `json:"amount_gbp"`
}

// Summary carries the presentation aggregates rendered alongside a bill.
// These are derived for display only and are never persisted.
type Summary struct {
	Grades             []GradeBlock `json:"grades"`
	ProfitCostsGBP     float64      `json:"profit_costs_gbp"`
	DisbursementsGBP   float64      `json:"disbursements_gbp"`
	VATProfitGBP       float64      `json:"vat_on_profit_costs_gbp"`
	VATDisbursementGBP float64      `json:"vat_on_disbursements_gbp"`
	GrandTotalGBP      float64      `json:"grand_total_gbp"`
}

// Summarize groups work items by inferred grade and computes the VAT
// presentation figures.
func Summarize(items []WorkItem, disbs []Disbursement) Summary {
	byGrade := map[string]*GradeBlock{}
	var profit float64
	for _, w := range items {
		grade := GradeFor(w.HourlyRateGBP)
		block, ok := byGrade[grade]
		if !ok {
			block = &GradeBlock{Grade: grade}
			byGrade[grade] = block
		}
		block.Items++
		block.Hours += w.Hours()
		block.AmountGBP += w.BillAmount()
		profit += w.BillAmount()
	}

	var disbNet, disbVAT float64
	for _, d := range disbs {
		disbNet += d.NetGBP
		if d.VATGBP > 0 {
			disbVAT += d.VATGBP
		} else {
			disbVAT += d.NetGBP * VATRate
		}
	}

	s := Summary{
		ProfitCostsGBP:     round2(profit),
		DisbursementsGBP:   round2(disbNet),
		VATProfitGBP:       round2(profit * VATRate),
		VATDisbursementGBP: round2(disbVAT),
	}
	s.GrandTotalGBP = round2(s.ProfitCostsGBP + s.DisbursementsGBP + s.VATProfitGBP + s.VATDisbursementGBP)

	for _, grade := range []string{"A", "B", "C", "D"} {
		if block, ok := byGrade[grade]; ok {
			block.AmountGBP = round2(block.AmountGBP)
			block.Hours = round2(block.Hours)
			s.Grades = append(s.Grades, *block)
		}
	}
	return s
}
