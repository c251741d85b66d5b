// ABOUTME: Per-import accumulator wrapping the daily merger, activities and diagnostics.
// ABOUTME: Owned by a single import call and discarded once the Result is built.
package importer

import (
	"github.com/djtroymx1/PepMetrics-sub000/internal/garmin"
	"github.com/djtroymx1/PepMetrics-sub000/internal/models"
)

type batch struct {
	merger     *garmin.Merger
	activities []*models.ParsedActivity
	seen       map[string]bool
	diags      []string
}

func newBatch() *batch {
	return &batch{merger: garmin.NewMerger(), seen: make(map[string]bool)}
}

func (b *batch) diag(msg string) {
	b.diags = append(b.diags, msg)
}

func (b *batch) addFile(pf *garmin.ParsedFile) {
	b.merger.AddFile(pf)
}

// addActivities keeps the first activity for each type and start time.
func (b *batch) addActivities(activities []*models.ParsedActivity) {
	var fresh []*models.ParsedActivity
	for _, a := range activities {
		key := a.ActivityType + "|" + a.StartTime.UTC().String()
		if b.seen[key] {
			continue
		}
		b.seen[key] = true
		fresh = append(fresh, a)
	}
	b.activities = append(b.activities, fresh...)
	b.merger.AddActivities(fresh)
}

func (b *batch) finish(userID string, res *Result) {
	res.Summaries = b.merger.Summaries(userID)
	for _, a := range b.activities {
		a.UserID = userID
	}
	res.Activities = b.activities
	res.ErrorCount = len(b.diags)
	if len(b.diags) > MaxReportedErrors {
		res.Errors = append([]string(nil), b.diags[:MaxReportedErrors]...)
	} else {
		res.Errors = b.diags
	}
}
