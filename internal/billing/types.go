package billing

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType classifies a unit of fee-earner work on a bill of costs.
type ActivityType string

const (
	ActivityAttendanceClient    ActivityType = "Attendance on Client"
	ActivityAttendanceOpponent  ActivityType = "Attendance on Opponent"
	ActivityAttendanceCourt     ActivityType = "Attendance on Court"
	ActivityAttendanceCounsel   ActivityType = "Attendance on Counsel"
	ActivityAttendanceWitnesses ActivityType = "Attendance on Witnesses"
	ActivityAttendanceExperts   ActivityType = "Attendance on Experts"
	ActivityAttendanceOthers    ActivityType = "Attendance on Others"
	ActivityCommunicationsOut   ActivityType = "Communications Out"
	ActivityCommunicationsIn    ActivityType = "Communications In"
	ActivityTelephoneCalls      ActivityType = "Telephone Calls"
	ActivityPreparation         ActivityType = "Preparation"
	ActivityDrafting            ActivityType = "Drafting"
	ActivityResearch            ActivityType = "Research"
	ActivityTravelWaiting       ActivityType = "Travel and Waiting"
	ActivityCostsAssessment     ActivityType = "Costs Assessment"
)

// DefaultActivityType is used when a free-form activity label cannot be
// mapped onto the closed set.
const DefaultActivityType = ActivityPreparation

// ActivityTypes lists every valid activity type in display order.
func ActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityAttendanceClient,
		ActivityAttendanceOpponent,
		ActivityAttendanceCourt,
		ActivityAttendanceCounsel,
		ActivityAttendanceWitnesses,
		ActivityAttendanceExperts,
		ActivityAttendanceOthers,
		ActivityCommunicationsOut,
		ActivityCommunicationsIn,
		ActivityTelephoneCalls,
		ActivityPreparation,
		ActivityDrafting,
		ActivityResearch,
		ActivityTravelWaiting,
		ActivityCostsAssessment,
	}
}

// DisbursementType classifies a reimbursable expense.
type DisbursementType string

const (
	DisbursementCourtFees       DisbursementType = "Court Fees"
	DisbursementCounselFees     DisbursementType = "Counsel Fees"
	DisbursementExpertFees      DisbursementType = "Expert Fees"
	DisbursementWitnessExpenses DisbursementType = "Witness Expenses"
	DisbursementTravelExpenses  DisbursementType = "Travel Expenses"
	DisbursementCopying         DisbursementType = "Copying and Printing"
	DisbursementOther           DisbursementType = "Other"
)

const DefaultDisbursementType = DisbursementOther

// DisbursementTypes lists every valid disbursement type in display order.
func DisbursementTypes() []DisbursementType {
	return []DisbursementType{
		DisbursementCourtFees,
		DisbursementCounselFees,
		DisbursementExpertFees,
		DisbursementWitnessExpenses,
		DisbursementTravelExpenses,
		DisbursementCopying,
		DisbursementOther,
	}
}

// PartyRole is the capacity in which a party appears on a case.
type PartyRole string

const (
	RoleClaimant   PartyRole = "Claimant"
	RoleDefendant  PartyRole = "Defendant"
	RoleApplicant  PartyRole = "Applicant"
	RoleRespondent PartyRole = "Respondent"
	RoleWitness    PartyRole = "Witness"
	RoleSolicitor  PartyRole = "Solicitor"
	RoleOther      PartyRole = "Other"
)

func PartyRoles() []PartyRole {
	return []PartyRole{
		RoleClaimant, RoleDefendant, RoleApplicant, RoleRespondent,
		RoleWitness, RoleSolicitor, RoleOther,
	}
}

// UnitsPerHour converts between 6-minute billing units and decimal hours.
const UnitsPerHour = 10

// WorkItem is a billable unit of fee-earner time on a case.
type WorkItem struct {
	ID            uuid.UUID    `json:"work_item_id"`
	CaseID        uuid.UUID    `json:"case_id"`
	DateOfWork    time.Time    `json:"date_of_work"`
	ActivityType  ActivityType `json:"activity_type"`
	Description   string       `json:"description"`
	TimeSpentUnits int         `json:"time_spent_units"`
	TimeSpentHours float64     `json:"time_spent_decimal_hours"`
	HourlyRateGBP  float64     `json:"applicable_hourly_rate_gbp"`
	ClaimedGBP     float64     `json:"claimed_amount_gbp"`
	IsRecoverable  bool        `json:"is_recoverable"`
	Disputed       bool        `json:"disputed"`
	DisputeReason  string      `json:"dispute_reason,omitempty"`
	// DateAssumed marks a record whose source date could not be parsed and
	// was defaulted to the ingestion date.
	DateAssumed bool `json:"date_assumed,omitempty"`
}

// Hours returns decimal hours, deriving from 6-minute units when the
// decimal field is absent.
func (w WorkItem) Hours() float64 {
	if w.TimeSpentHours > 0 {
		return w.TimeSpentHours
	}
	return float64(w.TimeSpentUnits) / UnitsPerHour
}

// BillAmount is the claimed amount, falling back to time x rate.
func (w WorkItem) BillAmount() float64 {
	if w.ClaimedGBP > 0 {
		return w.ClaimedGBP
	}
	return w.Hours() * w.HourlyRateGBP
}

// Disbursement is a reimbursable case expense, separate from fee-earner time.
type Disbursement struct {
	ID            uuid.UUID        `json:"disbursement_id"`
	CaseID        uuid.UUID        `json:"case_id"`
	DateIncurred  time.Time        `json:"date_incurred"`
	Type          DisbursementType `json:"disbursement_type"`
	Description   string           `json:"description"`
	PayeeName     string           `json:"payee_name,omitempty"`
	NetGBP        float64          `json:"amount_net_gbp"`
	VATGBP        float64          `json:"vat_gbp"`
	GrossGBP      float64          `json:"amount_gross_gbp"`
	IsRecoverable bool             `json:"is_recoverable"`
	Disputed      bool             `json:"disputed"`
	DisputeReason string           `json:"dispute_reason,omitempty"`
	DateAssumed   bool             `json:"date_assumed,omitempty"`
}

// GrossAmount returns the gross figure, deriving net+VAT when absent.
func (d Disbursement) GrossAmount() float64 {
	if d.GrossGBP > 0 {
		return d.GrossGBP
	}
	return d.NetGBP + d.VATGBP
}

// Party is a person or organisation appearing on a case.
type Party struct {
	ID     uuid.UUID `json:"party_id"`
	CaseID uuid.UUID `json:"case_id"`
	Name   string    `json:"name"`
	Role   PartyRole `json:"role"`
}

// Case is a legal matter owning work items, disbursements and parties.
type Case struct {
	ID            uuid.UUID      `json:"case_id"`
	Reference     string         `json:"reference"`
	Title         string         `json:"title"`
	Court         string         `json:"court,omitempty"`
	Description   string         `json:"description,omitempty"`
	WorkItems     []WorkItem     `json:"work_items,omitempty"`
	Disbursements []Disbursement `json:"disbursements,omitempty"`
	Parties       []Party        `json:"parties,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CaseInfo is the minimal case identity extracted from document text when no
// explicit case reference accompanies an upload.
type CaseInfo struct {
	Reference   string `json:"reference"`
	Title       string `json:"title"`
	Court       string `json:"court"`
	Description string `json:"description"`
}
