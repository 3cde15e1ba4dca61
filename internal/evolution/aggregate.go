package evolution

import (
	"time"

	"github.com/falobo92/ADC2/internal/record"
	"github.com/falobo92/ADC2/internal/schema"
	"github.com/falobo92/ADC2/internal/scope"
)

// WeeklyCounts returns, per week, how many records on the latest reporting
// day observed within that week are finalized and how many are in editorial
// review. A week with no records in scope yields nil in both series. Records
// with a malformed date take no part in choosing or matching the latest day.
func WeeklyCounts(records []record.Record, weeks []int, sc scope.Scope) (finalized, editorial []*int) {
	byWeek := make(map[int][]record.Record)
	for _, r := range records {
		if sc.Matches(r) {
			byWeek[r.Week] = append(byWeek[r.Week], r)
		}
	}

	finalized = make([]*int, len(weeks))
	editorial = make([]*int, len(weeks))
	for i, w := range weeks {
		f, e, ok := latestDayCounts(byWeek[w])
		if !ok {
			continue
		}
		finalized[i] = schema.Int(f)
		editorial[i] = schema.Int(e)
	}
	return finalized, editorial
}

func latestDayCounts(records []record.Record) (finalized, editorial int, ok bool) {
	var latest time.Time
	dated := make([]time.Time, len(records))
	valid := make([]bool, len(records))
	for i, r := range records {
		d, good := r.Date()
		if !good {
			continue
		}
		dated[i], valid[i] = d, true
		if !ok || d.After(latest) {
			latest, ok = d, true
		}
	}
	if !ok {
		return 0, 0, false
	}

	day := record.Day(latest)
	for i, r := range records {
		if !valid[i] || record.Day(dated[i]) != day {
			continue
		}
		switch r.State.Tracked() {
		case record.TrackedFinalized:
			finalized++
		case record.TrackedEditorial:
			editorial++
		}
	}
	return finalized, editorial, true
}

// CumulativeAsOf returns, per week w, the number of distinct items whose
// latest state as of w counts toward the goal, clamped at sc.Goal. The entry
// is nil when no record in scope has Week <= w.
func CumulativeAsOf(records []record.Record, weeks []int, sc scope.Scope) []*int {
	out, _ := cumulativeAsOf(sc.Filter(records), weeks, sc.Goal)
	return out
}

func cumulativeAsOf(records []record.Record, weeks []int, goal int) ([]*int, skipped) {
	out := make([]*int, len(weeks))
	if len(records) == 0 {
		return out, skipped{}
	}
	first := records[0].Week
	for _, r := range records[1:] {
		first = min(first, r.Week)
	}

	var skip skipped
	for i, w := range weeks {
		if w < first {
			continue
		}
		latest, s := latestStateAsOf(records, w)
		skip.malformed = max(skip.malformed, s.malformed)
		skip.missingID = max(skip.missingID, s.missingID)
		count := 0
		for _, r := range latest {
			if r.State.CountsTowardGoal() {
				count++
			}
		}
		out[i] = schema.Int(clamp(count, goal))
	}
	return out, skip
}

// Observed masks cumulative to nil for every week without records of its own
// in scope. This is the series a chart draws as observed history.
func Observed(records []record.Record, weeks []int, sc scope.Scope, cumulative []*int) []*int {
	has := make(map[int]bool)
	for _, r := range records {
		if sc.Matches(r) {
			has[r.Week] = true
		}
	}
	out := make([]*int, len(weeks))
	for i, w := range weeks {
		if has[w] && i < len(cumulative) && cumulative[i] != nil {
			out[i] = schema.Int(*cumulative[i])
		}
	}
	return out
}

// clamp bounds n to [0, goal]; a non-positive goal clamps to 0.
func clamp(n, goal int) int {
	return max(0, min(n, goal))
}
