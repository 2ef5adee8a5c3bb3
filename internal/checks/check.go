// Package checks implements the five independent quality checks run
// against a merged claim.
package checks

import (
	"context"
	"fmt"
	"sync"

	"github.com/claimlens/claimlens/internal/model"
)

// Check is one quality check over the merged claim. Checks are pure:
// same claim and config, same result.
type Check interface {
	Name() string
	Run(claim *model.MergedClaim, cfg *model.ChecksConfig) (*model.CheckResult, error)
}

// ForClaim returns the checks to run. The tariff check only joins when
// enabled with a non-empty reference.
func ForClaim(cfg *model.ChecksConfig, tariffs []model.TariffEntry, enableTariffs bool) []Check {
	cs := []Check{
		&PatientConsistency{},
		&DateValidity{},
		&ReportCrossCheck{},
		&LineItemChecklist{},
	}
	if enableTariffs {
		cs = append(cs, &TariffMatch{Tariffs: tariffs})
	}
	return cs
}

// RunAll executes the checks concurrently and returns one result per
// check, keyed by check name. A check that returns an error or panics
// degrades to an error-only result so the remaining categories can
// still be scored.
func RunAll(ctx context.Context, cs []Check, claim *model.MergedClaim, cfg *model.ChecksConfig) map[string]*model.CheckResult {
	results := make(map[string]*model.CheckResult, len(cs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range cs {
		wg.Add(1)
		go func(c Check) {
			defer wg.Done()
			res := runOne(ctx, c, claim, cfg)
			mu.Lock()
			results[c.Name()] = res
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

func runOne(ctx context.Context, c Check, claim *model.MergedClaim, cfg *model.ChecksConfig) (res *model.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = &model.CheckResult{Type: c.Name(), Error: fmt.Sprintf("check panicked: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return &model.CheckResult{Type: c.Name(), Error: err.Error()}
	}
	res, err := c.Run(claim, cfg)
	if err != nil {
		return &model.CheckResult{Type: c.Name(), Error: err.Error()}
	}
	if res == nil {
		return &model.CheckResult{Type: c.Name(), Error: "check returned no result"}
	}
	return res
}
