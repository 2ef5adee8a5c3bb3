package checks

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

var proofCategories = []string{"lab", "radiolog", "imaging", "ecg", "patholog", "scan", "investigat"}

// LineItemChecklist verifies per-item proof requirements, service-window
// membership and the alignment of billed procedures with the approval.
type LineItemChecklist struct {
	// IncludePayerChecklist adds the payer supporting-document
	// checklist derived from the extraction flags.
	IncludePayerChecklist bool
}

func (c *LineItemChecklist) Name() string { return model.CheckLineItems }

func (c *LineItemChecklist) Run(claim *model.MergedClaim, cfg *model.ChecksConfig) (*model.CheckResult, error) {
	res := &model.LineItemChecklistResult{TotalItems: len(claim.LineItems)}

	admit, admitOK := parseClaimDate(claim.Hospital, "claim_information.admission_details.admission_date")
	discharge, dischargeOK := parseClaimDate(claim.Hospital, "claim_information.admission_details.discharge_date")

	for _, li := range claim.LineItems {
		item := model.ChecklistItem{
			ItemName:      li.ItemName,
			ItemCode:      li.ItemCode,
			RequiresProof: requiresProof(li),
		}

		if item.RequiresProof {
			if li.ProofIncluded == nil || !*li.ProofIncluded {
				item.Discrepancies = append(item.Discrepancies, model.Discrepancy{
					Category:    model.CheckLineItems,
					Field:       li.ItemName,
					Severity:    model.SeverityHigh,
					Description: fmt.Sprintf("%s requires a supporting report but none is enclosed", li.ItemName),
				})
			} else if li.ProofAccurate != nil && !*li.ProofAccurate {
				item.Discrepancies = append(item.Discrepancies, model.Discrepancy{
					Category:    model.CheckLineItems,
					Field:       li.ItemName,
					Severity:    model.SeverityMedium,
					Description: fmt.Sprintf("supporting report for %s does not match the billed service", li.ItemName),
				})
			}
		}

		if li.DateOfService != "" && admitOK && dischargeOK {
			svc, err := time.Parse(dateLayout, li.DateOfService)
			if err == nil && (svc.Before(admit) || svc.After(discharge)) {
				item.Discrepancies = append(item.Discrepancies, model.Discrepancy{
					Category: model.CheckLineItems,
					Field:    li.ItemName,
					Severity: model.SeverityMedium,
					Description: fmt.Sprintf("%s dated %s falls outside the admission period %s to %s",
						li.ItemName, li.DateOfService, admit.Format(dateLayout), discharge.Format(dateLayout)),
				})
			}
		}

		res.CaseChecklist = append(res.CaseChecklist, item)
		res.AllDiscrepancies = append(res.AllDiscrepancies, item.Discrepancies...)
	}

	res.ApprovalTreatmentMatch = matchApprovalToTreatment(claim)
	if c.IncludePayerChecklist {
		res.PayerChecklist = payerChecklist(claim)
	}

	return &model.CheckResult{Type: c.Name(), LineItems: res}, nil
}

// requiresProof reports whether an item needs an enclosed report:
// investigation-class categories and implants.
func requiresProof(li model.LineItem) bool {
	if li.IsImplant {
		return true
	}
	cat := strings.ToLower(li.Category)
	for _, kw := range proofCategories {
		if strings.Contains(cat, kw) {
			return true
		}
	}
	return false
}

// matchApprovalToTreatment compares normalized procedure names between
// the approval and the clinical record. A missing approval yields "No
// Match" with an explanatory issue rather than an error.
func matchApprovalToTreatment(claim *model.MergedClaim) model.ApprovalTreatmentMatch {
	match := model.ApprovalTreatmentMatch{
		BilledProcedures: procedureList(claim.Hospital, "clinical_summary.procedures_performed"),
	}

	if claim.ApprovalMissing() {
		match.MatchStatus = "No Match"
		match.Issues = append(match.Issues, "no approval document available for comparison")
		return match
	}

	match.ApprovedProcedures = procedureList(claim.Approval, "approved_procedures", "cashless_assessment.approved_procedures")

	approved := normalizedSet(match.ApprovedProcedures)
	billed := normalizedSet(match.BilledProcedures)

	for name, orig := range billed {
		if _, ok := approved[name]; !ok {
			match.Unapproved = append(match.Unapproved, orig)
		}
	}
	for name, orig := range approved {
		if _, ok := billed[name]; !ok {
			match.Missing = append(match.Missing, orig)
		}
	}
	sort.Strings(match.Unapproved)
	sort.Strings(match.Missing)

	switch {
	case len(approved) == 0 && len(billed) == 0:
		match.MatchStatus = "Full Match"
	case len(match.Unapproved) == 0 && len(match.Missing) == 0:
		match.MatchStatus = "Full Match"
	case len(match.Unapproved) < len(billed) || len(match.Missing) < len(approved):
		match.MatchStatus = "Partial Match"
	default:
		match.MatchStatus = "No Match"
	}

	if len(match.Unapproved) > 0 {
		match.Issues = append(match.Issues,
			fmt.Sprintf("%d billed procedure(s) not covered by the approval", len(match.Unapproved)))
	}
	return match
}

func procedureList(root model.Value, paths ...string) []string {
	for _, p := range paths {
		seq := root.SeqAt(p)
		if len(seq) == 0 {
			continue
		}
		var out []string
		for _, v := range seq {
			if s, ok := v.AsString(); ok && s != "" {
				out = append(out, s)
			} else if m, ok := v.AsMap(); ok {
				if name, ok := m["name"]; ok {
					if s, ok := name.AsString(); ok && s != "" {
						out = append(out, s)
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func normalizedSet(names []string) map[string]string {
	set := make(map[string]string, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.Join(strings.Fields(n), " "))] = n
	}
	return set
}

// payerChecklist derives the payer-mandated supporting-document
// checklist from the extraction's presence flags.
func payerChecklist(claim *model.MergedClaim) []model.PayerChecklistItem {
	required := []struct {
		name string
		path string
	}{
		{"Discharge Summary", "supporting_documents.discharge_summary"},
		{"Final Bill", "supporting_documents.final_bill"},
		{"Lab Reports", "supporting_documents.lab_reports"},
		{"Radiology Reports", "supporting_documents.radiology_reports"},
		{"Pharmacy Bills", "supporting_documents.pharmacy_bills"},
		{"Approval Letter", ""},
	}

	var items []model.PayerChecklistItem
	for _, req := range required {
		item := model.PayerChecklistItem{DocumentName: req.name}
		if req.path != "" {
			item.Presence = claim.Hospital.BoolAt(req.path)
		} else {
			item.Presence = !claim.ApprovalMissing()
		}
		if !item.Presence {
			item.Notes = "not found among submitted documents"
		}
		items = append(items, item)
	}
	return items
}
