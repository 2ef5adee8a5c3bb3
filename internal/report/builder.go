// Package report assembles the final adjudication report from the
// merged claim and check results.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// Input carries everything the builder needs for one claim.
type Input struct {
	ClaimID       string
	ClaimNumber   string
	Merged        *model.MergedClaim
	Results       map[string]*model.CheckResult
	Score         *model.ScoreBreakdown
	DocumentCount int
	ExcludedDocs  []string
	Caveats       []string
}

// Builder renders the twelve-section final report.
type Builder struct{}

// New returns a Builder.
func New() *Builder { return &Builder{} }

// Build assembles the report. Errored checks contribute a caveat
// instead of their section content; the report is always complete.
func (b *Builder) Build(in Input) *model.FinalReport {
	caveats := append([]string{}, in.Caveats...)
	for _, name := range sortedKeys(in.Results) {
		if res := in.Results[name]; res.Failed() {
			caveats = append(caveats, fmt.Sprintf("%s check did not complete: %s", name, res.Error))
		}
	}

	rep := &model.FinalReport{
		CashlessVerification: cashlessSection(in.Merged),
		PayerHospital:        payerHospitalSection(in.Merged),
		PatientProfile:       patientSection(in.Merged, in.Results),
		AdmissionTreatment:   admissionSection(in.Merged),
		InvoiceAnalysis:      invoiceSection(in.Merged, in.Results),
		CaseRequirements:     caseRequirementsSection(in.Results),
		UnrelatedServices:    unrelatedServices(in.Merged),
		Discrepancies:        collectDiscrepancies(in.Results),
		OverallScore:         *in.Score,
		Metadata: model.ReportMetadata{
			ClaimID:         in.ClaimID,
			ClaimNumber:     in.ClaimNumber,
			GeneratedAt:     time.Now().UTC(),
			DocumentCount:   in.DocumentCount,
			ExcludedDocs:    in.ExcludedDocs,
			Caveats:         caveats,
			ApprovalMissing: in.Merged.ApprovalMissing(),
		},
	}

	if liRes := in.Results[model.CheckLineItems]; liRes != nil && liRes.LineItems != nil {
		rep.PayerChecklist = liRes.LineItems.PayerChecklist
	}

	rep.PredictiveAnalysis = predictiveSection(rep.Discrepancies, in.Score)
	return rep
}

func cashlessSection(claim *model.MergedClaim) model.CashlessVerification {
	if claim.ApprovalMissing() {
		return model.CashlessVerification{
			Note: "No approval document was found among the submitted documents",
		}
	}
	return model.CashlessVerification{
		ApprovalFound:     true,
		ApprovalStage:     claim.Approval.StringAt("cashless_assessment.approval_stage"),
		ApprovingEntity:   firstString(claim.Approval, "approving_entity", "payer_details.payer_name"),
		ApprovalReference: firstString(claim.Approval, "approval_reference", "cashless_assessment.approval_reference"),
		ApprovalDate:      firstString(claim.Approval, "approval_date", "approval_dates.from"),
	}
}

func payerHospitalSection(claim *model.MergedClaim) model.PayerHospitalSection {
	return model.PayerHospitalSection{
		PayerName:    firstString(claim.Insurer, "payer_details.payer_name", "payer_details.name"),
		PayerID:      claim.Insurer.StringAt("payer_details.payer_id"),
		HospitalName: firstString(claim.Hospital, "hospital_details.hospital_name", "hospital_details.name"),
		HospitalID:   claim.Hospital.StringAt("hospital_details.hospital_id"),
		PolicyNumber: firstString(claim.Insurer, "payer_details.policy_number", "policy_number"),
		TPAName:      claim.Insurer.StringAt("payer_details.tpa_name"),
	}
}

func patientSection(claim *model.MergedClaim, results map[string]*model.CheckResult) model.PatientProfileSection {
	section := model.PatientProfileSection{
		Name:        patientField(claim, "name"),
		PatientID:   patientField(claim, "patient_id"),
		DateOfBirth: patientField(claim, "date_of_birth"),
		Gender:      patientField(claim, "gender"),
	}
	if res := results[model.CheckPatientDetails]; res != nil && res.PatientDetails != nil {
		section.MatchedFields = res.PatientDetails.MatchedFields
		section.Discrepancies = res.PatientDetails.Discrepancies
	}
	return section
}

// patientField reads the field from the first partition carrying it,
// hospital first as the richest source.
func patientField(claim *model.MergedClaim, key string) string {
	for _, part := range []model.Value{claim.Hospital, claim.Insurer, claim.Approval} {
		if s := part.StringAt("patient_details." + key); s != "" {
			return s
		}
	}
	return ""
}

func admissionSection(claim *model.MergedClaim) model.AdmissionTreatmentSection {
	var procedures []string
	for _, v := range claim.Hospital.SeqAt("clinical_summary.procedures_performed") {
		if s, ok := v.AsString(); ok && s != "" {
			procedures = append(procedures, s)
		}
	}
	return model.AdmissionTreatmentSection{
		AdmissionDate:       claim.Hospital.StringAt("claim_information.admission_details.admission_date"),
		DischargeDate:       claim.Hospital.StringAt("claim_information.admission_details.discharge_date"),
		Diagnosis:           firstString(claim.Hospital, "clinical_summary.diagnosis", "clinical_summary.primary_diagnosis"),
		ProceduresPerformed: procedures,
		SurgeryPerformed:    claim.Hospital.BoolAt("clinical_summary.surgery_performed"),
		DischargeCondition:  claim.Hospital.StringAt("clinical_summary.discharge_condition"),
	}
}

func invoiceSection(claim *model.MergedClaim, results map[string]*model.CheckResult) model.InvoiceAnalysisSection {
	section := model.InvoiceAnalysisSection{
		LineItemCount: len(claim.LineItems),
	}

	claimed, claimedOK := claim.Hospital.NumberAt("financial_summary.total_claimed_amount")
	if !claimedOK {
		for _, li := range claim.LineItems {
			claimed += li.TotalPrice
		}
		if len(claim.LineItems) > 0 {
			section.Note = "total claimed amount derived from line items"
		}
	}
	section.TotalClaimedAmount = claimed

	if approved, ok := approvedAmount(claim); ok {
		section.ApprovedAmount = &approved
		diff := claimed - approved
		section.AmountDifference = &diff
		if diff > 0 {
			section.Note = strings.TrimSpace(section.Note + " " +
				fmt.Sprintf("claimed amount exceeds approved amount by %.2f", diff))
		}
	}

	if res := results[model.CheckTariffs]; res != nil && res.Tariffs != nil {
		section.TariffChecks = res.Tariffs.Checks
	}
	return section
}

func approvedAmount(claim *model.MergedClaim) (float64, bool) {
	for _, path := range []string{"approved_amount", "cashless_assessment.approved_amount", "financial_summary.approved_amount"} {
		if f, ok := claim.Approval.NumberAt(path); ok {
			return f, true
		}
	}
	return 0, false
}

func caseRequirementsSection(results map[string]*model.CheckResult) model.CaseRequirementsSection {
	section := model.CaseRequirementsSection{}
	if res := results[model.CheckLineItems]; res != nil && res.LineItems != nil {
		section.Checklist = res.LineItems.CaseChecklist
	}
	if res := results[model.CheckDates]; res != nil && res.Dates != nil {
		section.DateFindings = res.Dates
	}
	return section
}

var unrelatedCategories = []string{"administrative", "non_medical", "non-medical", "nonmedical"}

func unrelatedServices(claim *model.MergedClaim) []model.UnrelatedService {
	var out []model.UnrelatedService
	for _, li := range claim.LineItems {
		cat := strings.ToLower(li.Category)
		for _, marker := range unrelatedCategories {
			if strings.Contains(cat, marker) {
				out = append(out, model.UnrelatedService{
					ItemName: li.ItemName,
					Category: li.Category,
					Amount:   li.TotalPrice,
					Reason:   "billed under a non-medical category",
				})
				break
			}
		}
	}
	return out
}

func collectDiscrepancies(results map[string]*model.CheckResult) []model.Discrepancy {
	var all []model.Discrepancy
	for _, name := range sortedKeys(results) {
		res := results[name]
		switch {
		case res.PatientDetails != nil:
			all = append(all, res.PatientDetails.Discrepancies...)
		case res.Dates != nil:
			for _, item := range res.Dates.InvalidItems {
				all = append(all, model.Discrepancy{
					Category:    model.CheckDates,
					Field:       item.ItemName,
					Severity:    model.SeverityMedium,
					Description: item.Reason,
				})
			}
		case res.Reports != nil:
			for _, d := range res.Reports.Discrepancies {
				all = append(all, model.Discrepancy{
					Category:    model.CheckReports,
					Field:       d.ReportName,
					Severity:    d.Severity,
					Description: d.Description,
				})
			}
			for _, mr := range res.Reports.MissingReports {
				all = append(all, model.Discrepancy{
					Category:    model.CheckReports,
					Field:       mr.ReportType,
					Severity:    mr.Severity,
					Description: fmt.Sprintf("%s expected (%s) but not found", mr.ReportType, mr.Reason),
				})
			}
		case res.LineItems != nil:
			all = append(all, res.LineItems.AllDiscrepancies...)
		case res.Tariffs != nil:
			for _, tc := range res.Tariffs.Checks {
				if tc.Difference != nil {
					all = append(all, model.Discrepancy{
						Category:    model.CheckTariffs,
						Field:       tc.ItemName,
						Severity:    model.SeverityMedium,
						Description: fmt.Sprintf("%s billed %.2f against tariff %.2f", tc.ItemName, tc.BilledPrice, *tc.TariffPrice),
					})
				}
			}
		}
	}
	return all
}

// predictiveSection derives a deterministic risk digest from the
// discrepancies and the score. Same inputs, same digest.
func predictiveSection(discrepancies []model.Discrepancy, score *model.ScoreBreakdown) model.PredictiveAnalysisSection {
	high, medium := 0, 0
	for _, d := range discrepancies {
		switch d.Severity {
		case model.SeverityHigh:
			high++
		case model.SeverityMedium:
			medium++
		}
	}

	var level string
	switch {
	case high >= 2 || score.Score < 60:
		level = "High"
	case high == 1 || medium > 0:
		level = "Medium"
	default:
		level = "Low"
	}

	var findings []model.PredictiveFinding
	for _, d := range discrepancies {
		if d.Severity != model.SeverityHigh {
			continue
		}
		findings = append(findings, model.PredictiveFinding{
			Query:      fmt.Sprintf("Payer is likely to query: %s", d.Description),
			Basis:      d.Category,
			Mitigation: mitigationFor(d.Category),
		})
	}

	return model.PredictiveAnalysisSection{
		RiskLevel: level,
		Findings:  findings,
		Summary: fmt.Sprintf("%s risk of payer queries: %d high and %d medium severity finding(s), accuracy %.1f",
			level, high, medium, score.Score),
	}
}

func mitigationFor(category string) string {
	switch category {
	case model.CheckPatientDetails:
		return "Attach a government identity document confirming the patient details"
	case model.CheckDates:
		return "Provide clinical justification for services outside the approved window"
	case model.CheckReports:
		return "Enclose the missing diagnostic reports before submission"
	case model.CheckLineItems:
		return "Enclose the supporting report for each flagged line item"
	case model.CheckTariffs:
		return "Reconcile billed prices with the agreed tariff or document the variance"
	default:
		return "Review the flagged finding with the treating hospital"
	}
}

func firstString(root model.Value, paths ...string) string {
	for _, p := range paths {
		if s := root.StringAt(p); s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(m map[string]*model.CheckResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
