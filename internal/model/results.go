package model

// Check type identifiers. They double as scorer category keys.
const (
	CheckPatientDetails = "patient_details"
	CheckDates          = "dates"
	CheckReports        = "reports"
	CheckLineItems      = "line_items"
	CheckTariffs        = "tariffs"
)

// CheckResult is the outcome of one quality check. Exactly one payload
// pointer is set on success; Error is set instead when the check could
// not run.
type CheckResult struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`

	PatientDetails *PatientDetailsResult    `json:"patient_details,omitempty"`
	Dates          *DateValidationResult    `json:"dates,omitempty"`
	Reports        *ReportCrossCheckResult  `json:"reports,omitempty"`
	LineItems      *LineItemChecklistResult `json:"line_items,omitempty"`
	Tariffs        *TariffMatchResult       `json:"tariffs,omitempty"`
}

// Failed reports whether the check errored instead of producing a
// payload.
func (r *CheckResult) Failed() bool { return r.Error != "" }

// PatientDetailsResult reports identity-field consistency across the
// merged document partitions.
type PatientDetailsResult struct {
	Discrepancies  []Discrepancy  `json:"discrepancies"`
	MatchedFields  []string       `json:"matched_fields"`
	SeverityCounts map[string]int `json:"severity_counts"`
	Summary        string         `json:"summary"`
}

// DateItem is one line item's service-date verdict.
type DateItem struct {
	ItemName      string `json:"item_name"`
	ItemCode      string `json:"item_code,omitempty"`
	DateOfService string `json:"date_of_service,omitempty"`
	Reason        string `json:"reason,omitempty"`
	DaysOutside   int    `json:"days_outside,omitempty"`
}

// DateValidationResult reports which billed items fall inside the
// approved treatment window.
type DateValidationResult struct {
	ValidItems   []DateItem `json:"valid_items"`
	InvalidItems []DateItem `json:"invalid_items"`
	MissingDates []DateItem `json:"missing_dates"`
	TotalItems   int        `json:"total_items"`
	ValidCount   int        `json:"valid_count"`
	InvalidCount int        `json:"invalid_count"`
	Note         string     `json:"note,omitempty"`
}

// ReportMatch is a diagnostic report whose date agrees with the invoice.
type ReportMatch struct {
	ReportName string `json:"report_name"`
	ReportDate string `json:"report_date"`
}

// ReportDiscrepancy is a report whose date disagrees with the invoice
// beyond tolerance.
type ReportDiscrepancy struct {
	ReportName     string `json:"report_name"`
	ReportDate     string `json:"report_date"`
	InvoiceDate    string `json:"invoice_date"`
	DateDifference int    `json:"date_difference_days"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
}

// MissingReport is an expected diagnostic report that no document
// evidences.
type MissingReport struct {
	ReportType string `json:"report_type"`
	Reason     string `json:"reason"`
	Severity   string `json:"severity"`
}

// ReportCrossCheckResult reports diagnostic-report presence and date
// agreement.
type ReportCrossCheckResult struct {
	Matching       []ReportMatch       `json:"matching"`
	Discrepancies  []ReportDiscrepancy `json:"discrepancies"`
	MissingReports []MissingReport     `json:"missing_reports"`
	TotalReports   int                 `json:"total_reports"`
	MatchingCount  int                 `json:"matching_count"`
}

// ChecklistItem is one line item's case-level requirement verdicts.
type ChecklistItem struct {
	ItemName      string        `json:"item_name"`
	ItemCode      string        `json:"item_code,omitempty"`
	RequiresProof bool          `json:"requires_proof"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
}

// PayerChecklistItem is one payer-mandated supporting document's
// presence verdict.
type PayerChecklistItem struct {
	DocumentName string `json:"document_name"`
	Presence     bool   `json:"presence"`
	Accurate     *bool  `json:"accurate,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ApprovalTreatmentMatch compares approved procedures against what was
// actually billed.
type ApprovalTreatmentMatch struct {
	ApprovedProcedures []string `json:"approved_procedures"`
	BilledProcedures   []string `json:"billed_procedures"`
	MatchStatus        string   `json:"match_status"`
	Unapproved         []string `json:"unapproved,omitempty"`
	Missing            []string `json:"missing,omitempty"`
	Issues             []string `json:"issues,omitempty"`
}

// LineItemChecklistResult reports proof requirements, service-window
// membership and approval alignment per billed item.
type LineItemChecklistResult struct {
	CaseChecklist          []ChecklistItem        `json:"case_checklist"`
	PayerChecklist         []PayerChecklistItem   `json:"payer_checklist,omitempty"`
	AllDiscrepancies       []Discrepancy          `json:"all_discrepancies"`
	ApprovalTreatmentMatch ApprovalTreatmentMatch `json:"approval_treatment_match"`
	TotalItems             int                    `json:"total_items"`
}

// TariffCheck is one line item's price verdict against the tariff
// reference.
type TariffCheck struct {
	ItemCode    string   `json:"item_code,omitempty"`
	ItemName    string   `json:"item_name"`
	BilledPrice float64  `json:"billed_price"`
	TariffPrice *float64 `json:"tariff_price,omitempty"`
	Match       bool     `json:"match"`
	Difference  *float64 `json:"difference,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// TariffMatchResult reports billed prices against the agreed tariff.
type TariffMatchResult struct {
	Checks       []TariffCheck `json:"checks"`
	TotalChecked int           `json:"total_checked"`
	Matched      int           `json:"matched"`
	Note         string        `json:"note,omitempty"`
}
