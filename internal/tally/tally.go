// Package tally computes point-in-time state breakdowns.
package tally

import (
	"math"
	"sort"
	"strings"

	"github.com/falobo92/ADC2/internal/record"
	"github.com/falobo92/ADC2/internal/schema"
)

// States returns the per-state breakdown for ADC, PAC and all records.
func States(records []record.Record) *schema.StateReport {
	var adc, pac []record.Record
	for _, r := range records {
		switch r.Category {
		case record.CategoryADC:
			adc = append(adc, r)
		case record.CategoryPAC:
			pac = append(pac, r)
		}
	}
	return &schema.StateReport{
		Total:      Counts(records),
		ADC:        Counts(adc),
		PAC:        Counts(pac),
		Completion: Completion(records),
	}
}

// Counts returns how many records are in each state, in display order.
// Known states always appear, with zero counts; unknown states follow in
// lexical order.
func Counts(records []record.Record) []schema.StateCount {
	counts := make(map[record.State]int)
	for _, r := range records {
		counts[r.State]++
	}

	var unknown []record.State
	for s := range counts {
		if !s.IsKnown() {
			unknown = append(unknown, s)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })

	ordered := append(record.States(), unknown...)
	out := make([]schema.StateCount, 0, len(ordered))
	for _, s := range ordered {
		out = append(out, schema.StateCount{
			State:   string(s),
			Count:   counts[s],
			Percent: share(counts[s], len(records)),
		})
	}
	return out
}

// Completion summarizes how far a set of records has progressed.
// Pending covers Pendiente and both drafting states; everything else that is
// not finalized is in progress.
func Completion(records []record.Record) schema.Completion {
	c := schema.Completion{Total: len(records)}
	for _, r := range records {
		switch {
		case r.State == record.StateFinalized:
			c.Completed++
		case isPending(r.State):
			c.Pending++
		default:
			c.InProgress++
		}
	}
	if c.Total > 0 {
		c.CompletionRate = int(math.Round(float64(c.Completed) * 100 / float64(c.Total)))
	}
	return c
}

func isPending(s record.State) bool {
	return s == record.StatePending || strings.HasPrefix(string(s), string(record.StateDrafting))
}

// share returns n as a percentage of total with one decimal.
func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}

// PointInTime selects the records of one week on one report day. A zero week
// picks the latest week present; an empty day picks the latest parseable day
// within that week. It returns the chosen week and day.
func PointInTime(records []record.Record, week int, day string) ([]record.Record, int, string) {
	if week == 0 {
		for _, r := range records {
			week = max(week, r.Week)
		}
	}
	var inWeek []record.Record
	for _, r := range records {
		if r.Week == week {
			inWeek = append(inWeek, r)
		}
	}
	if day == "" {
		for _, r := range inWeek {
			if d, ok := r.Date(); ok && record.Day(d) > day {
				day = record.Day(d)
			}
		}
	}
	var out []record.Record
	for _, r := range inWeek {
		if d, ok := r.Date(); ok && record.Day(d) == day {
			out = append(out, r)
		}
	}
	return out, week, day
}
