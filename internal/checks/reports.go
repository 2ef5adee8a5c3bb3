package checks

import (
	"fmt"
	"strings"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

// ReportCrossCheck verifies that diagnostic reports exist for the
// services billed and that their dates agree with the invoice.
type ReportCrossCheck struct{}

func (c *ReportCrossCheck) Name() string { return model.CheckReports }

func (c *ReportCrossCheck) Run(claim *model.MergedClaim, cfg *model.ChecksConfig) (*model.CheckResult, error) {
	res := &model.ReportCrossCheckResult{}

	invoiceDate, invoiceOK := parseClaimDate(claim.Hospital,
		"financial_summary.invoice_date", "claim_information.admission_details.discharge_date")

	for _, seq := range claim.Hospital.FindSequences("reports") {
		for _, entry := range seq {
			name, date := reportFields(entry)
			if name == "" {
				continue
			}
			res.TotalReports++

			if date == "" || !invoiceOK {
				res.Matching = append(res.Matching, model.ReportMatch{ReportName: name, ReportDate: date})
				continue
			}
			rd, err := time.Parse(dateLayout, date)
			if err != nil {
				res.Matching = append(res.Matching, model.ReportMatch{ReportName: name, ReportDate: date})
				continue
			}

			gap := daysBetween(rd, invoiceDate)
			if gap <= cfg.ReportToleranceDays {
				res.Matching = append(res.Matching, model.ReportMatch{ReportName: name, ReportDate: date})
				continue
			}

			res.Discrepancies = append(res.Discrepancies, model.ReportDiscrepancy{
				ReportName:     name,
				ReportDate:     date,
				InvoiceDate:    invoiceDate.Format(dateLayout),
				DateDifference: gap,
				Severity:       gapSeverity(gap, cfg),
				Description:    fmt.Sprintf("report dated %d day(s) away from the invoice date", gap),
			})
		}
	}

	res.MissingReports = expectedReportsMissing(claim)
	res.MatchingCount = len(res.Matching)
	return &model.CheckResult{Type: c.Name(), Reports: res}, nil
}

func reportFields(entry model.Value) (name, date string) {
	m, ok := entry.AsMap()
	if !ok {
		if s, ok := entry.AsString(); ok {
			return s, ""
		}
		return "", ""
	}
	for _, k := range []string{"report_name", "name", "type", "report_type"} {
		if v, ok := m[k]; ok {
			if s, ok := v.AsString(); ok && s != "" {
				name = s
				break
			}
		}
	}
	for _, k := range []string{"report_date", "date"} {
		if v, ok := m[k]; ok {
			if s, ok := v.AsString(); ok && s != "" {
				date = s
				break
			}
		}
	}
	return name, date
}

// expectedReportsMissing lists reports the clinical record implies but
// no document evidences. Presence is accepted from either the reports
// sequences or the supporting_documents flags.
func expectedReportsMissing(claim *model.MergedClaim) []model.MissingReport {
	type expectation struct {
		reportType string
		reason     string
		needed     bool
	}

	hasLabItems := false
	hasRadiologyItems := false
	for _, li := range claim.LineItems {
		cat := strings.ToLower(li.Category)
		switch {
		case strings.Contains(cat, "lab") || strings.Contains(cat, "patholog"):
			hasLabItems = true
		case strings.Contains(cat, "radiolog") || strings.Contains(cat, "imaging") || strings.Contains(cat, "scan"):
			hasRadiologyItems = true
		}
	}

	surgery := claim.Hospital.BoolAt("clinical_summary.surgery_performed")
	condition := strings.ToLower(claim.Hospital.StringAt("clinical_summary.discharge_condition"))
	deceased := condition == "expired" || condition == "deceased" ||
		claim.Hospital.BoolAt("clinical_summary.patient_deceased")

	expectations := []expectation{
		{"Lab Report", "lab services billed", hasLabItems},
		{"Radiology Report", "radiology services billed", hasRadiologyItems},
		{"Surgery Notes", "surgery performed", surgery},
		{"Death Summary", "patient recorded as expired", deceased},
	}

	var missing []model.MissingReport
	for _, exp := range expectations {
		if !exp.needed || reportEvidenced(claim, exp.reportType) {
			continue
		}
		missing = append(missing, model.MissingReport{
			ReportType: exp.reportType,
			Reason:     exp.reason,
			Severity:   model.SeverityHigh,
		})
	}
	return missing
}

func reportEvidenced(claim *model.MergedClaim, reportType string) bool {
	needle := strings.ToLower(strings.TrimSuffix(reportType, " Report"))

	for _, seq := range claim.Hospital.FindSequences("reports") {
		for _, entry := range seq {
			name, _ := reportFields(entry)
			if strings.Contains(strings.ToLower(name), needle) {
				return true
			}
		}
	}

	flags := map[string]string{
		"Lab Report":       "supporting_documents.lab_reports",
		"Radiology Report": "supporting_documents.radiology_reports",
		"Surgery Notes":    "supporting_documents.surgery_notes",
		"Death Summary":    "supporting_documents.death_summary",
	}
	if path, ok := flags[reportType]; ok && claim.Hospital.BoolAt(path) {
		return true
	}
	return false
}

func gapSeverity(gap int, cfg *model.ChecksConfig) string {
	switch {
	case gap > cfg.HighGapDays:
		return model.SeverityHigh
	case gap > cfg.MediumGapDays:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func parseClaimDate(root model.Value, paths ...string) (time.Time, bool) {
	for _, p := range paths {
		raw := root.StringAt(p)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
