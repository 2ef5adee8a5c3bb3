package checks

import (
	"fmt"
	"time"

	"github.com/claimlens/claimlens/internal/model"
)

const dateLayout = "2006-01-02"

// DateValidity verifies that every billed service date falls inside the
// approved treatment window.
type DateValidity struct{}

func (c *DateValidity) Name() string { return model.CheckDates }

func (c *DateValidity) Run(claim *model.MergedClaim, cfg *model.ChecksConfig) (*model.CheckResult, error) {
	res := &model.DateValidationResult{TotalItems: len(claim.LineItems)}

	from, fromOK := approvalDate(claim, "approval_dates.from", "approval_dates.start_date")
	to, toOK := approvalDate(claim, "approval_dates.to", "approval_dates.end_date")

	if !fromOK || !toOK {
		// No usable window: nothing can be invalidated.
		for _, li := range claim.LineItems {
			res.ValidItems = append(res.ValidItems, dateItem(li, "", 0))
		}
		res.ValidCount = len(res.ValidItems)
		res.Note = "No approval date range available; service dates could not be verified"
		return &model.CheckResult{Type: c.Name(), Dates: res}, nil
	}

	for _, li := range claim.LineItems {
		if li.DateOfService == "" {
			res.MissingDates = append(res.MissingDates, dateItem(li, "no date of service recorded", 0))
			continue
		}
		svc, err := time.Parse(dateLayout, li.DateOfService)
		if err != nil {
			res.MissingDates = append(res.MissingDates, dateItem(li, fmt.Sprintf("unparseable date %q", li.DateOfService), 0))
			continue
		}

		switch {
		case svc.Before(from):
			days := int(from.Sub(svc).Hours() / 24)
			res.InvalidItems = append(res.InvalidItems,
				dateItem(li, fmt.Sprintf("service %d day(s) before approval window start %s", days, from.Format(dateLayout)), days))
		case svc.After(to):
			days := int(svc.Sub(to).Hours() / 24)
			res.InvalidItems = append(res.InvalidItems,
				dateItem(li, fmt.Sprintf("service %d day(s) after approval window end %s", days, to.Format(dateLayout)), days))
		default:
			res.ValidItems = append(res.ValidItems, dateItem(li, "", 0))
		}
	}

	res.ValidCount = len(res.ValidItems)
	res.InvalidCount = len(res.InvalidItems)
	return &model.CheckResult{Type: c.Name(), Dates: res}, nil
}

func dateItem(li model.LineItem, reason string, days int) model.DateItem {
	return model.DateItem{
		ItemName:      li.ItemName,
		ItemCode:      li.ItemCode,
		DateOfService: li.DateOfService,
		Reason:        reason,
		DaysOutside:   days,
	}
}

// approvalDate reads the first parseable date among the given approval
// paths.
func approvalDate(claim *model.MergedClaim, paths ...string) (time.Time, bool) {
	for _, p := range paths {
		raw := claim.Approval.StringAt(p)
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
