package billing

import (
	"testing"
)

func TestGradeFor_Thresholds(t *testing.T) {
	cases := []struct {
		rate float64
		want string
	}{
		{650, "A"},
		{500, "A"},
		{499.99, "B"},
		{300, "B"},
		{250, "C"},
		{200, "C"},
		{199.99, "D"},
		{0, "D"},
	}
	for _, c := range cases {
		if got := GradeFor(c.rate); got != c.want {
			t.Errorf("GradeFor(%v): expected %q, got %q", c.rate, c.want, got)
		}
	}
}

func TestSummarize_GroupsByGrade(t *testing.T) {
	items := []WorkItem{
		{Description: "partner work", TimeSpentHours: 2, HourlyRateGBP: 500},
		{Description: "associate work", TimeSpentHours: 3, HourlyRateGBP: 300},
		{Description: "more associate work", TimeSpentHours: 1, HourlyRateGBP: 320},
	}

	s := Summarize(items, nil)
	if len(s.Grades) != 2 {
		t.Fatalf("expected 2 grade blocks, got %d", len(s.Grades))
	}
	// Blocks come out in grade order A..D.
	if s.Grades[0].Grade != "A" || s.Grades[0].Items != 1 || s.Grades[0].Hours != 2 {
		t.Errorf("unexpected grade A block %+v", s.Grades[0])
	}
	if s.Grades[1].Grade != "B" || s.Grades[1].Items != 2 || s.Grades[1].Hours != 4 {
		t.Errorf("unexpected grade B block %+v", s.Grades[1])
	}
	// 2x500 + 3x300 + 1x320 = 2220.
	if s.ProfitCostsGBP != 2220.0 {
		t.Errorf("expected profit costs 2220.0, got %v", s.ProfitCostsGBP)
	}
	if s.VATProfitGBP != 444.0 {
		t.Errorf("expected VAT on profit costs 444.0, got %v", s.VATProfitGBP)
	}
}

func TestSummarize_DisbursementVAT(t *testing.T) {
	disbs := []Disbursement{
		// Recorded VAT is used as-is.
		{Description: "court fee", NetGBP: 100, VATGBP: 20},
		// Missing VAT is presented at the flat rate.
		{Description: "courier", NetGBP: 50},
	}

	s := Summarize(nil, disbs)
	if s.DisbursementsGBP != 150.0 {
		t.Errorf("expected net disbursements 150.0, got %v", s.DisbursementsGBP)
	}
	if s.VATDisbursementGBP != 30.0 {
		t.Errorf("expected disbursement VAT 30.0 (20 recorded + 10 imputed), got %v", s.VATDisbursementGBP)
	}
	if s.GrandTotalGBP != 180.0 {
		t.Errorf("expected grand total 180.0, got %v", s.GrandTotalGBP)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)
	if len(s.Grades) != 0 || s.GrandTotalGBP != 0 {
		t.Errorf("expected empty summary, got %+v", s)
	}
}
