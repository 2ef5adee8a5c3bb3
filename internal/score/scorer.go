// Package score turns check results into a weighted accuracy score with
// a transparent per-category breakdown.
package score

import (
	"math"
	"sort"

	"github.com/claimlens/claimlens/internal/model"
)

// Scorer computes the overall claim accuracy score.
type Scorer struct {
	weights   map[string]float64
	threshold float64
}

// New returns a Scorer from the scoring configuration.
func New(cfg model.ScoringConfig) *Scorer {
	return &Scorer{weights: cfg.Weights, threshold: cfg.PassThreshold}
}

// Calculate folds the check results into one score. Categories that are
// absent or errored are excluded and their weight redistributed
// proportionally over the rest. With ignoreDiscrepancies set,
// discrepant entries drop out of each category's denominator, so only
// structural findings count against the claim.
func (s *Scorer) Calculate(results map[string]*model.CheckResult, ignoreDiscrepancies bool) *model.ScoreBreakdown {
	breakdown := make(map[string]float64)
	var excluded []string

	for category := range s.weights {
		res, ok := results[category]
		if !ok || res.Failed() {
			excluded = append(excluded, category)
			continue
		}
		breakdown[category] = subScore(res, ignoreDiscrepancies)
	}
	sort.Strings(excluded)

	weights := s.redistribute(breakdown)

	var total float64
	for category, sub := range breakdown {
		total += sub * weights[category]
	}
	total = math.Round(total*10) / 10

	return &model.ScoreBreakdown{
		Breakdown: breakdown,
		Weights:   weights,
		Excluded:  excluded,
		Score:     total,
		Threshold: s.threshold,
		Passed:    total >= s.threshold,
	}
}

// redistribute renormalizes the configured weights over the categories
// that actually produced a sub-score.
func (s *Scorer) redistribute(breakdown map[string]float64) map[string]float64 {
	var sum float64
	for category := range breakdown {
		sum += s.weights[category]
	}
	weights := make(map[string]float64, len(breakdown))
	if sum == 0 {
		return weights
	}
	for category := range breakdown {
		weights[category] = s.weights[category] / sum
	}
	return weights
}

// subScore reduces one check result to 100 * favorable / evaluated.
// An empty denominator scores a vacuous 100.
func subScore(res *model.CheckResult, ignoreDiscrepancies bool) float64 {
	favorable, evaluated, discrepant := tally(res)
	denom := evaluated
	if ignoreDiscrepancies {
		denom = evaluated - discrepant
	}
	if denom <= 0 {
		return 100
	}
	score := 100 * float64(favorable) / float64(denom)
	if score > 100 {
		score = 100
	}
	return score
}

// tally extracts (favorable, evaluated, discrepant) counts from a
// check payload.
func tally(res *model.CheckResult) (favorable, evaluated, discrepant int) {
	switch {
	case res.PatientDetails != nil:
		pd := res.PatientDetails
		favorable = len(pd.MatchedFields)
		discrepant = len(pd.Discrepancies)
		evaluated = favorable + discrepant
	case res.Dates != nil:
		d := res.Dates
		favorable = d.ValidCount
		discrepant = d.InvalidCount
		evaluated = d.ValidCount + d.InvalidCount
	case res.Reports != nil:
		r := res.Reports
		favorable = r.MatchingCount
		discrepant = len(r.Discrepancies) + len(r.MissingReports)
		evaluated = favorable + discrepant
	case res.LineItems != nil:
		// An item counts against the claim only when it carries a
		// high-severity issue; a discrepant item counts once no matter
		// how many issues it accumulated.
		li := res.LineItems
		evaluated = li.TotalItems
		for _, item := range li.CaseChecklist {
			high := false
			for _, d := range item.Discrepancies {
				if d.Severity == model.SeverityHigh {
					high = true
					break
				}
			}
			if !high {
				favorable++
			}
			if len(item.Discrepancies) > 0 {
				discrepant++
			}
		}
	case res.Tariffs != nil:
		tm := res.Tariffs
		favorable = tm.Matched
		evaluated = tm.TotalChecked
		discrepant = tm.TotalChecked - tm.Matched
	}
	return favorable, evaluated, discrepant
}
