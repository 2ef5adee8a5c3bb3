package pipeline

import "github.com/claimlens/claimlens/internal/progress"

// tracker publishes progress events while clamping percentages so the
// reported progress never decreases.
type tracker struct {
	claimID string
	pub     progress.Publisher
	highest int
}

func newTracker(claimID string, pub progress.Publisher) *tracker {
	if pub == nil {
		pub = progress.NopPublisher{}
	}
	return &tracker{claimID: claimID, pub: pub}
}

func (t *tracker) Emit(step, message string, pct int) {
	if pct < t.highest {
		pct = t.highest
	}
	t.highest = pct
	t.pub.Publish(progress.Event{
		ClaimID:  t.claimID,
		Step:     step,
		Message:  message,
		Progress: pct,
	})
}
