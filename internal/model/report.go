package model

import "time"

// ScoreBreakdown is the transparent output of the weighted scorer.
type ScoreBreakdown struct {
	Breakdown map[string]float64 `json:"breakdown"`
	Weights   map[string]float64 `json:"weights"`
	Excluded  []string           `json:"excluded,omitempty"`
	Score     float64            `json:"score"`
	Threshold float64            `json:"threshold"`
	Passed    bool               `json:"passed"`
}

// CashlessVerification summarizes the approval partition.
type CashlessVerification struct {
	ApprovalFound     bool   `json:"approval_found"`
	ApprovalStage     string `json:"approval_stage,omitempty"`
	ApprovingEntity   string `json:"approving_entity,omitempty"`
	ApprovalReference string `json:"approval_reference,omitempty"`
	ApprovalDate      string `json:"approval_date,omitempty"`
	Note              string `json:"note,omitempty"`
}

// PayerHospitalSection identifies the parties to the claim.
type PayerHospitalSection struct {
	PayerName    string `json:"payer_name,omitempty"`
	PayerID      string `json:"payer_id,omitempty"`
	HospitalName string `json:"hospital_name,omitempty"`
	HospitalID   string `json:"hospital_id,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	TPAName      string `json:"tpa_name,omitempty"`
}

// PatientProfileSection summarizes the patient with identity verdicts.
type PatientProfileSection struct {
	Name          string        `json:"name,omitempty"`
	PatientID     string        `json:"patient_id,omitempty"`
	DateOfBirth   string        `json:"date_of_birth,omitempty"`
	Gender        string        `json:"gender,omitempty"`
	MatchedFields []string      `json:"matched_fields,omitempty"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
}

// AdmissionTreatmentSection summarizes the clinical stay.
type AdmissionTreatmentSection struct {
	AdmissionDate       string   `json:"admission_date,omitempty"`
	DischargeDate       string   `json:"discharge_date,omitempty"`
	Diagnosis           string   `json:"diagnosis,omitempty"`
	ProceduresPerformed []string `json:"procedures_performed,omitempty"`
	SurgeryPerformed    bool     `json:"surgery_performed"`
	DischargeCondition  string   `json:"discharge_condition,omitempty"`
}

// InvoiceAnalysisSection summarizes billed amounts against the approval.
type InvoiceAnalysisSection struct {
	TotalClaimedAmount float64       `json:"total_claimed_amount"`
	ApprovedAmount     *float64      `json:"approved_amount,omitempty"`
	AmountDifference   *float64      `json:"amount_difference,omitempty"`
	LineItemCount      int           `json:"line_item_count"`
	TariffChecks       []TariffCheck `json:"tariff_checks,omitempty"`
	Note               string        `json:"note,omitempty"`
}

// CaseRequirementsSection carries the per-item proof checklist.
type CaseRequirementsSection struct {
	Checklist    []ChecklistItem       `json:"checklist"`
	DateFindings *DateValidationResult `json:"date_findings,omitempty"`
}

// UnrelatedService is a billed entry flagged as unrelated to treatment.
type UnrelatedService struct {
	ItemName string  `json:"item_name"`
	Category string  `json:"category,omitempty"`
	Amount   float64 `json:"amount"`
	Reason   string  `json:"reason"`
}

// PredictiveFinding is one anticipated payer query with its mitigation.
type PredictiveFinding struct {
	Query      string `json:"query"`
	Basis      string `json:"basis"`
	Mitigation string `json:"mitigation"`
}

// PredictiveAnalysisSection is a deterministic risk digest derived from
// the check outputs.
type PredictiveAnalysisSection struct {
	RiskLevel string              `json:"risk_level"`
	Findings  []PredictiveFinding `json:"findings,omitempty"`
	Summary   string              `json:"summary"`
}

// ReportMetadata carries provenance for the generated report.
type ReportMetadata struct {
	ClaimID         string    `json:"claim_id"`
	ClaimNumber     string    `json:"claim_number"`
	GeneratedAt     time.Time `json:"generated_at"`
	DocumentCount   int       `json:"document_count"`
	ExcludedDocs    []string  `json:"excluded_documents,omitempty"`
	Caveats         []string  `json:"caveats,omitempty"`
	ApprovalMissing bool      `json:"approval_missing,omitempty"`
}

// FinalReport is the twelve-section adjudication report.
type FinalReport struct {
	CashlessVerification CashlessVerification      `json:"cashless_verification"`
	PayerHospital        PayerHospitalSection      `json:"payer_hospital"`
	PatientProfile       PatientProfileSection     `json:"patient_profile"`
	AdmissionTreatment   AdmissionTreatmentSection `json:"admission_treatment"`
	PayerChecklist       []PayerChecklistItem      `json:"payer_checklist,omitempty"`
	InvoiceAnalysis      InvoiceAnalysisSection    `json:"invoice_analysis"`
	CaseRequirements     CaseRequirementsSection   `json:"case_requirements"`
	UnrelatedServices    []UnrelatedService        `json:"unrelated_services"`
	Discrepancies        []Discrepancy             `json:"discrepancies"`
	PredictiveAnalysis   PredictiveAnalysisSection `json:"predictive_analysis"`
	OverallScore         ScoreBreakdown            `json:"overall_score"`
	Metadata             ReportMetadata            `json:"metadata"`
}
