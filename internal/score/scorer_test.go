package score

import (
	"math"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func newScorer() *Scorer {
	return New(model.DefaultConfig().Scoring)
}

func perfectResults() map[string]*model.CheckResult {
	return map[string]*model.CheckResult{
		model.CheckPatientDetails: {
			Type:           model.CheckPatientDetails,
			PatientDetails: &model.PatientDetailsResult{MatchedFields: []string{"Patient Name", "Gender"}},
		},
		model.CheckDates: {
			Type:  model.CheckDates,
			Dates: &model.DateValidationResult{TotalItems: 3, ValidCount: 3},
		},
		model.CheckReports: {
			Type:    model.CheckReports,
			Reports: &model.ReportCrossCheckResult{TotalReports: 2, MatchingCount: 2},
		},
		model.CheckLineItems: {
			Type: model.CheckLineItems,
			LineItems: &model.LineItemChecklistResult{
				TotalItems: 3,
				CaseChecklist: []model.ChecklistItem{
					{ItemName: "a"}, {ItemName: "b"}, {ItemName: "c"},
				},
			},
		},
		model.CheckTariffs: {
			Type:    model.CheckTariffs,
			Tariffs: &model.TariffMatchResult{TotalChecked: 3, Matched: 3},
		},
	}
}

func TestCalculatePerfectScore(t *testing.T) {
	sb := newScorer().Calculate(perfectResults(), false)
	if sb.Score != 100 {
		t.Errorf("Score = %v, want 100", sb.Score)
	}
	if !sb.Passed {
		t.Error("perfect claim should pass")
	}
	if len(sb.Excluded) != 0 {
		t.Errorf("Excluded = %v, want none", sb.Excluded)
	}
}

func TestCalculateWeightsSumToOne(t *testing.T) {
	results := perfectResults()
	delete(results, model.CheckTariffs)
	results[model.CheckReports].Error = "timed out"
	results[model.CheckReports].Reports = nil

	sb := newScorer().Calculate(results, false)

	var sum float64
	for _, w := range sb.Weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("redistributed weights sum to %v, want 1.0", sum)
	}
	if len(sb.Excluded) != 2 {
		t.Errorf("Excluded = %v, want reports and tariffs", sb.Excluded)
	}
}

func TestCalculateRedistributionKeepsProportions(t *testing.T) {
	results := perfectResults()
	delete(results, model.CheckTariffs)

	sb := newScorer().Calculate(results, false)

	// Without tariffs (0.10), patient 0.25 renormalizes to 0.25/0.90.
	want := 0.25 / 0.90
	got := sb.Weights[model.CheckPatientDetails]
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("patient_details weight = %v, want %v", got, want)
	}
}

func TestCalculatePartialScore(t *testing.T) {
	results := perfectResults()
	// 1 of 3 dates invalid: dates sub-score 66.67.
	results[model.CheckDates].Dates = &model.DateValidationResult{
		TotalItems: 3, ValidCount: 2, InvalidCount: 1,
	}

	sb := newScorer().Calculate(results, false)

	wantDates := 100 * 2.0 / 3.0
	if math.Abs(sb.Breakdown[model.CheckDates]-wantDates) > 1e-9 {
		t.Errorf("dates sub-score = %v, want %v", sb.Breakdown[model.CheckDates], wantDates)
	}
	// 100 - 0.20*(100-66.67) = 93.3 after rounding.
	if sb.Score != 93.3 {
		t.Errorf("Score = %v, want 93.3", sb.Score)
	}
}

func TestCalculateThresholdBoundary(t *testing.T) {
	s := newScorer()

	// Drive the score with a single surviving category.
	mk := func(valid, invalid int) map[string]*model.CheckResult {
		return map[string]*model.CheckResult{
			model.CheckDates: {
				Type:  model.CheckDates,
				Dates: &model.DateValidationResult{ValidCount: valid, InvalidCount: invalid},
			},
		}
	}

	if sb := s.Calculate(mk(4, 1), false); !sb.Passed || sb.Score != 80 {
		t.Errorf("80.0 should pass, got score=%v passed=%v", sb.Score, sb.Passed)
	}
	if sb := s.Calculate(mk(799, 201), false); sb.Passed || sb.Score != 79.9 {
		t.Errorf("79.9 should fail, got score=%v passed=%v", sb.Score, sb.Passed)
	}
}

func TestCalculateVacuousCategories(t *testing.T) {
	results := map[string]*model.CheckResult{
		model.CheckPatientDetails: {
			Type:           model.CheckPatientDetails,
			PatientDetails: &model.PatientDetailsResult{},
		},
	}

	sb := newScorer().Calculate(results, false)
	if sb.Score != 100 {
		t.Errorf("empty denominators should score vacuous 100, got %v", sb.Score)
	}
}

func TestCalculateIgnoreDiscrepancies(t *testing.T) {
	results := map[string]*model.CheckResult{
		model.CheckDates: {
			Type:  model.CheckDates,
			Dates: &model.DateValidationResult{ValidCount: 2, InvalidCount: 1},
		},
	}

	strict := newScorer().Calculate(results, false)
	lenient := newScorer().Calculate(results, true)

	if strict.Score >= lenient.Score {
		t.Errorf("ignore_discrepancies should not lower the score: strict=%v lenient=%v", strict.Score, lenient.Score)
	}
	if lenient.Score != 100 {
		t.Errorf("lenient score = %v, want 100 with discrepancies removed from the denominator", lenient.Score)
	}
}

func TestCalculateLineItemMediumSeverityStaysFavorable(t *testing.T) {
	medium := model.Discrepancy{
		Category: model.CheckLineItems,
		Severity: model.SeverityMedium,
	}
	results := map[string]*model.CheckResult{
		model.CheckLineItems: {
			Type: model.CheckLineItems,
			LineItems: &model.LineItemChecklistResult{
				TotalItems: 1,
				CaseChecklist: []model.ChecklistItem{
					{ItemName: "Room Rent", Discrepancies: []model.Discrepancy{medium}},
				},
				AllDiscrepancies: []model.Discrepancy{medium},
			},
		},
	}

	sb := newScorer().Calculate(results, false)
	if got := sb.Breakdown[model.CheckLineItems]; got != 100 {
		t.Errorf("line_items sub-score = %v, want 100 for a medium-only finding", got)
	}

	// A high-severity finding on the same item makes it unfavorable.
	high := medium
	high.Severity = model.SeverityHigh
	results[model.CheckLineItems].LineItems.CaseChecklist[0].Discrepancies = []model.Discrepancy{high}
	sb = newScorer().Calculate(results, false)
	if got := sb.Breakdown[model.CheckLineItems]; got != 0 {
		t.Errorf("line_items sub-score = %v, want 0 for a high finding", got)
	}
}

func TestCalculateLineItemDiscrepantItemsCountOnce(t *testing.T) {
	high := model.Discrepancy{Category: model.CheckLineItems, Severity: model.SeverityHigh}
	medium := model.Discrepancy{Category: model.CheckLineItems, Severity: model.SeverityMedium}
	results := map[string]*model.CheckResult{
		model.CheckLineItems: {
			Type: model.CheckLineItems,
			LineItems: &model.LineItemChecklistResult{
				TotalItems: 2,
				CaseChecklist: []model.ChecklistItem{
					{ItemName: "CT Scan", Discrepancies: []model.Discrepancy{high, medium, medium}},
					{ItemName: "Room Rent"},
				},
				AllDiscrepancies: []model.Discrepancy{high, medium, medium},
			},
		},
	}

	// One of two items is discrepant; ignoring discrepancies leaves a
	// denominator of one clean, favorable item.
	sb := newScorer().Calculate(results, true)
	if got := sb.Breakdown[model.CheckLineItems]; got != 100 {
		t.Errorf("lenient line_items sub-score = %v, want 100", got)
	}

	sb = newScorer().Calculate(results, false)
	if got := sb.Breakdown[model.CheckLineItems]; got != 50 {
		t.Errorf("strict line_items sub-score = %v, want 50", got)
	}
}

func TestCalculateAllExcluded(t *testing.T) {
	results := map[string]*model.CheckResult{
		model.CheckDates: {Type: model.CheckDates, Error: "boom"},
	}

	sb := newScorer().Calculate(results, false)
	if sb.Score != 0 || sb.Passed {
		t.Errorf("all categories excluded should score 0 and fail, got %v passed=%v", sb.Score, sb.Passed)
	}
	if len(sb.Excluded) != 5 {
		t.Errorf("Excluded = %v, want all five categories", sb.Excluded)
	}
}

func TestCalculateBounds(t *testing.T) {
	results := map[string]*model.CheckResult{
		model.CheckTariffs: {
			Type:    model.CheckTariffs,
			Tariffs: &model.TariffMatchResult{TotalChecked: 4, Matched: 0},
		},
	}

	sb := newScorer().Calculate(results, false)
	if sb.Score < 0 || sb.Score > 100 {
		t.Errorf("score out of bounds: %v", sb.Score)
	}
}
