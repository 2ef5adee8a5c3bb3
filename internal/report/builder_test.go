package report

import (
	"strings"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func mustValue(t *testing.T, raw string) model.Value {
	t.Helper()
	v, err := model.FromJSON([]byte(raw))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	return v
}

func sampleInput(t *testing.T) Input {
	merged := &model.MergedClaim{
		Insurer: mustValue(t, `{"payer_details":{"payer_name":"Acme Health","policy_number":"POL-9"}}`),
		Approval: mustValue(t, `{
			"cashless_assessment":{"approval_stage":"Final"},
			"approved_amount":20000,
			"approval_dates":{"from":"2025-03-01","to":"2025-03-10"}
		}`),
		Hospital: mustValue(t, `{
			"hospital_details":{"hospital_name":"City Hospital"},
			"patient_details":{"name":"John Doe","gender":"Male"},
			"claim_information":{"admission_details":{"admission_date":"2025-03-01","discharge_date":"2025-03-05"}},
			"clinical_summary":{"diagnosis":"Appendicitis","surgery_performed":true},
			"financial_summary":{"total_claimed_amount":25000}
		}`),
		LineItems: []model.LineItem{
			{ItemName: "Appendectomy", TotalPrice: 20000},
			{ItemName: "Admission Kit", Category: "Administrative", TotalPrice: 500},
		},
	}

	results := map[string]*model.CheckResult{
		model.CheckPatientDetails: {
			Type:           model.CheckPatientDetails,
			PatientDetails: &model.PatientDetailsResult{MatchedFields: []string{"Patient Name"}},
		},
		model.CheckDates: {
			Type:  model.CheckDates,
			Dates: &model.DateValidationResult{TotalItems: 2, ValidCount: 2},
		},
		model.CheckReports: {Type: model.CheckReports, Error: "timed out"},
		model.CheckLineItems: {
			Type: model.CheckLineItems,
			LineItems: &model.LineItemChecklistResult{
				TotalItems:    2,
				CaseChecklist: []model.ChecklistItem{{ItemName: "Appendectomy"}, {ItemName: "Admission Kit"}},
				PayerChecklist: []model.PayerChecklistItem{
					{DocumentName: "Final Bill", Presence: true},
				},
			},
		},
	}

	score := &model.ScoreBreakdown{
		Breakdown: map[string]float64{model.CheckPatientDetails: 100},
		Weights:   map[string]float64{model.CheckPatientDetails: 1},
		Score:     92.5,
		Threshold: 80,
		Passed:    true,
		Excluded:  []string{model.CheckReports, model.CheckTariffs},
	}

	return Input{
		ClaimID:       "c-1",
		ClaimNumber:   "CLM-ABC",
		Merged:        merged,
		Results:       results,
		Score:         score,
		DocumentCount: 3,
	}
}

func TestBuildAssemblesAllSections(t *testing.T) {
	rep := New().Build(sampleInput(t))

	if !rep.CashlessVerification.ApprovalFound || rep.CashlessVerification.ApprovalStage != "Final" {
		t.Errorf("cashless section = %+v", rep.CashlessVerification)
	}
	if rep.PayerHospital.PayerName != "Acme Health" || rep.PayerHospital.HospitalName != "City Hospital" {
		t.Errorf("payer/hospital section = %+v", rep.PayerHospital)
	}
	if rep.PatientProfile.Name != "John Doe" {
		t.Errorf("patient name = %q", rep.PatientProfile.Name)
	}
	if rep.AdmissionTreatment.Diagnosis != "Appendicitis" || !rep.AdmissionTreatment.SurgeryPerformed {
		t.Errorf("admission section = %+v", rep.AdmissionTreatment)
	}
	if len(rep.PayerChecklist) != 1 {
		t.Errorf("payer checklist = %+v", rep.PayerChecklist)
	}
	if rep.InvoiceAnalysis.TotalClaimedAmount != 25000 {
		t.Errorf("claimed amount = %v", rep.InvoiceAnalysis.TotalClaimedAmount)
	}
	if len(rep.CaseRequirements.Checklist) != 2 {
		t.Errorf("case requirements = %+v", rep.CaseRequirements)
	}
	if len(rep.UnrelatedServices) != 1 || rep.UnrelatedServices[0].ItemName != "Admission Kit" {
		t.Errorf("unrelated services = %+v", rep.UnrelatedServices)
	}
	if rep.OverallScore.Score != 92.5 {
		t.Errorf("score = %v", rep.OverallScore.Score)
	}
	if rep.Metadata.ClaimNumber != "CLM-ABC" || rep.Metadata.DocumentCount != 3 {
		t.Errorf("metadata = %+v", rep.Metadata)
	}
	if rep.PredictiveAnalysis.RiskLevel == "" {
		t.Error("predictive analysis risk level empty")
	}
}

func TestBuildErroredCheckBecomesCaveat(t *testing.T) {
	rep := New().Build(sampleInput(t))

	found := false
	for _, c := range rep.Metadata.Caveats {
		if strings.Contains(c, "reports") && strings.Contains(c, "timed out") {
			found = true
		}
	}
	if !found {
		t.Errorf("errored check should appear in caveats, got %v", rep.Metadata.Caveats)
	}
}

func TestBuildAmountComparison(t *testing.T) {
	rep := New().Build(sampleInput(t))

	inv := rep.InvoiceAnalysis
	if inv.ApprovedAmount == nil || *inv.ApprovedAmount != 20000 {
		t.Fatalf("approved amount = %v", inv.ApprovedAmount)
	}
	if inv.AmountDifference == nil || *inv.AmountDifference != 5000 {
		t.Errorf("amount difference = %v, want 5000", inv.AmountDifference)
	}
	if !strings.Contains(inv.Note, "exceeds approved amount") {
		t.Errorf("note = %q", inv.Note)
	}
}

func TestBuildApprovalMissing(t *testing.T) {
	in := sampleInput(t)
	in.Merged.Approval = mustValue(t, `{"approval_missing":true}`)

	rep := New().Build(in)
	if rep.CashlessVerification.ApprovalFound {
		t.Error("approval should be reported missing")
	}
	if !rep.Metadata.ApprovalMissing {
		t.Error("metadata should flag the missing approval")
	}
}

func TestPredictiveAnalysisDeterministicLevels(t *testing.T) {
	score := &model.ScoreBreakdown{Score: 90}

	tests := []struct {
		name string
		disc []model.Discrepancy
		want string
	}{
		{"no findings", nil, "Low"},
		{"one medium", []model.Discrepancy{{Severity: model.SeverityMedium}}, "Medium"},
		{"one high", []model.Discrepancy{{Severity: model.SeverityHigh, Category: model.CheckReports}}, "Medium"},
		{"two high", []model.Discrepancy{
			{Severity: model.SeverityHigh, Category: model.CheckReports},
			{Severity: model.SeverityHigh, Category: model.CheckPatientDetails},
		}, "High"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := predictiveSection(tt.disc, score)
			if got.RiskLevel != tt.want {
				t.Errorf("RiskLevel = %s, want %s", got.RiskLevel, tt.want)
			}
		})
	}

	lowScore := predictiveSection(nil, &model.ScoreBreakdown{Score: 55})
	if lowScore.RiskLevel != "High" {
		t.Errorf("score below 60 should be High risk, got %s", lowScore.RiskLevel)
	}
}

func TestPredictiveFindingsCarryMitigations(t *testing.T) {
	sec := predictiveSection([]model.Discrepancy{
		{Severity: model.SeverityHigh, Category: model.CheckLineItems, Description: "MRI lacks a report"},
	}, &model.ScoreBreakdown{Score: 75})

	if len(sec.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(sec.Findings))
	}
	f := sec.Findings[0]
	if !strings.Contains(f.Query, "MRI lacks a report") || f.Mitigation == "" {
		t.Errorf("finding = %+v", f)
	}
}
