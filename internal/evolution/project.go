package evolution

import "github.com/falobo92/ADC2/internal/schema"

// Projection is the forward fill from the last observed week to the end of
// the week range.
type Projection struct {
	WeeklyIncrement int
	// PerWeekIncrements is nil at and before LastObservedIndex.
	PerWeekIncrements []*int
	// Cumulative copies the input up to LastObservedIndex and holds projected
	// totals after it.
	Cumulative          []*int
	FinalProjectedTotal int
	LastObservedIndex   int // -1 when no week has data
	LastKnownTotal      int
}

// Project distributes the gap between the last known total and goal evenly
// over the weeks remaining until targetWeek. The increment is rounded up and
// the projected total never exceeds goal: the last step absorbs the remainder
// and later weeks add 0. A non-positive goal or no remaining weeks yields an
// increment of 0.
func Project(weeks []int, cumulative []*int, goal, targetWeek int) Projection {
	p := Projection{
		LastObservedIndex: -1,
		PerWeekIncrements: make([]*int, len(weeks)),
		Cumulative:        make([]*int, len(weeks)),
	}
	if len(weeks) == 0 {
		return p
	}

	for i := range weeks {
		if i < len(cumulative) && cumulative[i] != nil {
			p.LastObservedIndex = i
		}
	}

	baseWeek := weeks[0] - 1
	if p.LastObservedIndex >= 0 {
		baseWeek = weeks[p.LastObservedIndex]
		p.LastKnownTotal = *cumulative[p.LastObservedIndex]
	}
	remainingWeeks := targetWeek - baseWeek
	gap := goal - p.LastKnownTotal
	if goal > 0 && remainingWeeks > 0 && gap > 0 {
		p.WeeklyIncrement = (gap + remainingWeeks - 1) / remainingWeeks
	}

	for i := 0; i <= p.LastObservedIndex; i++ {
		if cumulative[i] != nil {
			p.Cumulative[i] = schema.Int(*cumulative[i])
		}
	}

	ceiling := max(goal, 0)
	added := 0
	for i := p.LastObservedIndex + 1; i < len(weeks); i++ {
		step := 0
		if gap > 0 {
			step = min(p.WeeklyIncrement, gap-added)
		}
		added += step
		p.PerWeekIncrements[i] = schema.Int(step)
		p.Cumulative[i] = schema.Int(min(p.LastKnownTotal+added, ceiling))
	}

	p.FinalProjectedTotal = p.LastKnownTotal
	if last := p.Cumulative[len(weeks)-1]; last != nil {
		p.FinalProjectedTotal = *last
	}
	return p
}
