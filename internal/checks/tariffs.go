package checks

import (
	"fmt"
	"math"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// TariffMatch compares billed prices against the agreed tariff
// reference. Matching is by item code first, normalized name second.
type TariffMatch struct {
	Tariffs []model.TariffEntry
}

func (c *TariffMatch) Name() string { return model.CheckTariffs }

func (c *TariffMatch) Run(claim *model.MergedClaim, cfg *model.ChecksConfig) (*model.CheckResult, error) {
	byCode := make(map[string]model.TariffEntry, len(c.Tariffs))
	byName := make(map[string]model.TariffEntry, len(c.Tariffs))
	for _, t := range c.Tariffs {
		if t.ItemCode != "" {
			byCode[strings.ToLower(t.ItemCode)] = t
		}
		if t.ItemName != "" {
			byName[normalizeItemName(t.ItemName)] = t
		}
	}

	res := &model.TariffMatchResult{}
	for _, li := range claim.LineItems {
		check := model.TariffCheck{
			ItemCode:    li.ItemCode,
			ItemName:    li.ItemName,
			BilledPrice: li.TotalPrice,
		}

		entry, found := lookup(li, byCode, byName)
		if !found {
			check.Note = "No tariff reference provided"
			res.Checks = append(res.Checks, check)
			res.TotalChecked++
			continue
		}

		price := entry.TariffPrice
		diff := li.TotalPrice - price
		check.TariffPrice = &price
		if math.Abs(diff) <= cfg.TariffPriceTolerance {
			check.Match = true
		} else {
			d := diff
			check.Difference = &d
			check.Note = fmt.Sprintf("billed %.2f against tariff %.2f", li.TotalPrice, price)
		}
		res.Checks = append(res.Checks, check)
		res.TotalChecked++
		if check.Match {
			res.Matched++
		}
	}

	if res.TotalChecked == 0 {
		res.Note = "no line items to check against the tariff"
	}
	return &model.CheckResult{Type: c.Name(), Tariffs: res}, nil
}

func lookup(li model.LineItem, byCode, byName map[string]model.TariffEntry) (model.TariffEntry, bool) {
	if li.ItemCode != "" {
		if entry, ok := byCode[strings.ToLower(li.ItemCode)]; ok {
			return entry, true
		}
	}
	name := li.NormalizedName
	if name == "" {
		name = li.ItemName
	}
	if name != "" {
		if entry, ok := byName[normalizeItemName(name)]; ok {
			return entry, true
		}
	}
	return model.TariffEntry{}, false
}

func normalizeItemName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
