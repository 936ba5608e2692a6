package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhewitt/costgraph/internal/billing"
)

// Coercion turns loosely-typed JSON objects into typed billing records.
// Every field has a defined fallback; a record is dropped only when nothing
// usable survives. One bad record never aborts its batch.

// synonym maps a lowercase substring of a free-form label onto an enum
// value. Entries are checked in order; first match wins, so specific
// phrases come before generic words.
type activitySynonym struct {
	substr   string
	activity billing.ActivityType
}

var activitySynonyms = []activitySynonym{
	{"letter before action", billing.ActivityCommunicationsOut},
	{"letter of claim", billing.ActivityCommunicationsOut},
	{"letter in", billing.ActivityCommunicationsIn},
	{"email in", billing.ActivityCommunicationsIn},
	{"received", billing.ActivityCommunicationsIn},
	{"letter", billing.ActivityCommunicationsOut},
	{"email", billing.ActivityCommunicationsOut},
	{"correspondence", billing.ActivityCommunicationsOut},
	{"telephone", billing.ActivityTelephoneCalls},
	{"phone", billing.ActivityTelephoneCalls},
	{"call", billing.ActivityTelephoneCalls},
	{"travel", billing.ActivityTravelWaiting},
	{"waiting", billing.ActivityTravelWaiting},
	{"hearing", billing.ActivityAttendanceCourt},
	{"trial", billing.ActivityAttendanceCourt},
	{"court", billing.ActivityAttendanceCourt},
	{"counsel", billing.ActivityAttendanceCounsel},
	{"conference", billing.ActivityAttendanceCounsel},
	{"expert", billing.ActivityAttendanceExperts},
	{"witness", billing.ActivityAttendanceWitnesses},
	{"opponent", billing.ActivityAttendanceOpponent},
	{"other side", billing.ActivityAttendanceOpponent},
	{"client", billing.ActivityAttendanceClient},
	{"meeting", billing.ActivityAttendanceClient},
	{"attendance", billing.ActivityAttendanceOthers},
	{"draft", billing.ActivityDrafting},
	{"research", billing.ActivityResearch},
	{"authorities", billing.ActivityResearch},
	{"assessment", billing.ActivityCostsAssessment},
	{"bill of costs", billing.ActivityCostsAssessment},
	{"review", billing.ActivityPreparation},
	{"prepar", billing.ActivityPreparation},
}

type disbursementSynonym struct {
	substr string
	dtype  billing.DisbursementType
}

var disbursementSynonyms = []disbursementSynonym{
	{"court fee", billing.DisbursementCourtFees},
	{"issue fee", billing.DisbursementCourtFees},
	{"filing", billing.DisbursementCourtFees},
	{"counsel", billing.DisbursementCounselFees},
	{"barrister", billing.DisbursementCounselFees},
	{"brief fee", billing.DisbursementCounselFees},
	{"expert", billing.DisbursementExpertFees},
	{"medical report", billing.DisbursementExpertFees},
	{"witness", billing.DisbursementWitnessExpenses},
	{"travel", billing.DisbursementTravelExpenses},
	{"mileage", billing.DisbursementTravelExpenses},
	{"hotel", billing.DisbursementTravelExpenses},
	{"copy", billing.DisbursementCopying},
	{"printing", billing.DisbursementCopying},
	{"courier", billing.DisbursementCopying},
	{"postage", billing.DisbursementCopying},
}

// MapActivityType maps a free-form activity label onto the closed enum.
// Unmatched labels fall back to Preparation: a deliberate lossy
// normalization, not an error.
func MapActivityType(s string) billing.ActivityType {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return billing.DefaultActivityType
	}
	for _, at := range billing.ActivityTypes() {
		if label == strings.ToLower(string(at)) {
			return at
		}
	}
	for _, syn := range activitySynonyms {
		if strings.Contains(label, syn.substr) {
			return syn.activity
		}
	}
	return billing.DefaultActivityType
}

// MapDisbursementType maps a free-form disbursement label onto the closed
// enum, falling back to Other.
func MapDisbursementType(s string) billing.DisbursementType {
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return billing.DefaultDisbursementType
	}
	for _, dt := range billing.DisbursementTypes() {
		if label == strings.ToLower(string(dt)) {
			return dt
		}
	}
	for _, syn := range disbursementSynonyms {
		if strings.Contains(label, syn.substr) {
			return syn.dtype
		}
	}
	return billing.DefaultDisbursementType
}

// MapPartyRole maps a free-form role label onto the closed enum, falling
// back to Other.
func MapPartyRole(s string) billing.PartyRole {
	label := strings.ToLower(strings.TrimSpace(s))
	for _, r := range billing.PartyRoles() {
		if label == strings.ToLower(string(r)) {
			return r
		}
	}
	switch {
	case strings.Contains(label, "claimant"), strings.Contains(label, "plaintiff"):
		return billing.RoleClaimant
	case strings.Contains(label, "defendant"):
		return billing.RoleDefendant
	case strings.Contains(label, "applicant"):
		return billing.RoleApplicant
	case strings.Contains(label, "respondent"):
		return billing.RoleRespondent
	case strings.Contains(label, "witness"):
		return billing.RoleWitness
	case strings.Contains(label, "solicitor"), strings.Contains(label, "counsel"):
		return billing.RoleSolicitor
	}
	return billing.RoleOther
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
	"02.01.2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

var rangeSeparators = []string{" - ", " to ", " until ", " – "}

// NormalizeDate parses a model-supplied date string to a UTC date. Ranges
// take their first date. An unparseable string defaults to today's date and
// reports assumed=true so the record can be flagged as suspect rather than
// passed off as valid data.
func NormalizeDate(s string, now time.Time) (t time.Time, assumed bool) {
	s = strings.TrimSpace(s)
	for _, sep := range rangeSeparators {
		if i := strings.Index(s, sep); i > 0 {
			s = strings.TrimSpace(s[:i])
			break
		}
	}
	if s != "" {
		// ISO timestamps reduce to their date part.
		if len(s) > 10 && s[4] == '-' && s[7] == '-' {
			s = s[:10]
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), false
			}
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// numField reads the first present key as a float64. Strings are parsed
// after stripping currency noise. Missing or non-numeric values yield 0,
// never an error: declared-numeric fields are always numbers downstream.
func numField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case string:
			cleaned := strings.NewReplacer("£", "", "$", "", ",", "", " ", "").Replace(n)
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func intField(m map[string]any, keys ...string) int {
	return int(numField(m, keys...))
}

// boolField coerces by truthiness with an explicit default for absence.
func boolField(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
		return def
	}
	return def
}

func strField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// CoerceWorkItem builds a typed work item from a parsed JSON object.
func CoerceWorkItem(caseID uuid.UUID, m map[string]any, now time.Time) (billing.WorkItem, error) {
	desc := strField(m, "description", "work_description", "details")
	if desc == "" {
		return billing.WorkItem{}, fmt.Errorf("work item missing description")
	}

	date, assumed := NormalizeDate(strField(m, "date_of_work", "date"), now)

	units := intField(m, "time_spent_units", "units")
	hours := numField(m, "time_spent_decimal_hours", "time_spent_hours", "hours")
	if hours <= 0 && units > 0 {
		hours = float64(units) / billing.UnitsPerHour
	}
	if units <= 0 && hours > 0 {
		units = int(hours*billing.UnitsPerHour + 0.5)
	}

	rate := numField(m, "applicable_hourly_rate_gbp", "hourly_rate_gbp", "hourly_rate")
	claimed := numField(m, "claimed_amount_gbp", "amount_gbp", "amount")
	if claimed <= 0 {
		claimed = hours * rate
	}

	w := billing.WorkItem{
		ID:             uuid.New(),
		CaseID:         caseID,
		DateOfWork:     date,
		ActivityType:   MapActivityType(strField(m, "activity_type", "activity", "category")),
		Description:    desc,
		TimeSpentUnits: units,
		TimeSpentHours: hours,
		HourlyRateGBP:  clampNonNegative(rate),
		ClaimedGBP:     clampNonNegative(claimed),
		IsRecoverable:  boolField(m, "is_recoverable", true),
		Disputed:       boolField(m, "disputed", false),
		DisputeReason:  strField(m, "dispute_reason"),
		DateAssumed:    assumed,
	}
	return w, nil
}

// CoerceDisbursement builds a typed disbursement from a parsed JSON object.
// A missing gross amount is computed as net + VAT; a gross below net + VAT
// is recomputed rather than trusted.
func CoerceDisbursement(caseID uuid.UUID, m map[string]any, now time.Time) (billing.Disbursement, error) {
	date, assumed := NormalizeDate(strField(m, "date_incurred", "date"), now)
	dtype := MapDisbursementType(strField(m, "disbursement_type", "type", "category"))

	net := clampNonNegative(numField(m, "amount_net_gbp", "net_amount_gbp", "amount"))
	vat := clampNonNegative(numField(m, "vat_gbp", "vat_amount_gbp", "vat"))
	gross := clampNonNegative(numField(m, "amount_gross_gbp", "gross_amount_gbp"))
	if gross < net+vat-0.005 {
		gross = net + vat
	}

	desc := strField(m, "description", "details")
	if desc == "" {
		if net == 0 && gross == 0 && strField(m, "payee_name", "payee") == "" {
			return billing.Disbursement{}, fmt.Errorf("disbursement carries no description, payee or amount")
		}
		desc = fmt.Sprintf("%s on %s", dtype, date.Format("2006-01-02"))
	}

	d := billing.Disbursement{
		ID:            uuid.New(),
		CaseID:        caseID,
		DateIncurred:  date,
		Type:          dtype,
		Description:   desc,
		PayeeName:     strField(m, "payee_name", "payee"),
		NetGBP:        net,
		VATGBP:        vat,
		GrossGBP:      gross,
		IsRecoverable: boolField(m, "is_recoverable", true),
		Disputed:      boolField(m, "disputed", false),
		DisputeReason: strField(m, "dispute_reason"),
		DateAssumed:   assumed,
	}
	return d, nil
}

// CoerceParty builds a typed party from a parsed JSON object.
func CoerceParty(caseID uuid.UUID, m map[string]any) (billing.Party, error) {
	name := strField(m, "name", "party_name")
	if name == "" {
		return billing.Party{}, fmt.Errorf("party missing name")
	}
	return billing.Party{
		ID:     uuid.New(),
		CaseID: caseID,
		Name:   name,
		Role:   MapPartyRole(strField(m, "role", "party_role", "type")),
	}, nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
