// Package evolution computes weekly progress toward a goal from a history of
// review snapshots: per-week snapshot counts, deduplicated cumulative totals
// and a linear projection to the target week.
package evolution

import (
	"log/slog"
	"math"

	"github.com/falobo92/ADC2/internal/locale"
	"github.com/falobo92/ADC2/internal/logging"
	"github.com/falobo92/ADC2/internal/record"
	"github.com/falobo92/ADC2/internal/schema"
	"github.com/falobo92/ADC2/internal/scope"
)

// Params selects the week range, target and scope for one analysis.
type Params struct {
	Weeks      []int
	TargetWeek int
	Year       int
	Scope      scope.Scope
	Locale     locale.Locale
}

// Engine runs analyses. It holds no state besides its logger and is safe
// for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// New returns an Engine that reports skipped records to logger.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{logger: logger.With("component", "evolution")}
}

// Analyze runs the full pipeline for p.Scope over records. It never fails:
// an empty week range or an empty scope yields an Evolution with NoData set.
func (e *Engine) Analyze(records []record.Record, p Params) *schema.Evolution {
	ev := &schema.Evolution{
		Scope:      string(p.Scope.Name),
		Goal:       p.Scope.Goal,
		TargetWeek: p.TargetWeek,
		Weeks:      Labels(p.Weeks, p.Year, p.Locale),
	}
	if p.Scope.Goal <= 0 {
		e.logger.Warn("non-positive goal, projection disabled", "scope", p.Scope.Name, "goal", p.Scope.Goal)
	}

	inScope := p.Scope.Filter(records)
	if len(p.Weeks) == 0 || len(inScope) == 0 {
		ev.NoData = true
		ev.Summary = []string{p.Locale.T("nodata")}
		e.logger.Debug("no data", "scope", p.Scope.Name, "weeks", len(p.Weeks), "records", len(inScope))
		return ev
	}

	ev.Finalized, ev.EditorialReview = WeeklyCounts(inScope, p.Weeks, p.Scope)
	asOf, skip := cumulativeAsOf(inScope, p.Weeks, p.Scope.Goal)
	if skip.any() {
		e.logger.Warn("records excluded from deduplication",
			"scope", p.Scope.Name,
			"malformed_date", skip.malformed,
			"missing_identifier", skip.missingID,
		)
	}
	ev.Cumulative = Observed(inScope, p.Weeks, p.Scope, asOf)

	proj := Project(p.Weeks, ev.Cumulative, p.Scope.Goal, p.TargetWeek)
	// Historical segment shows the full as-of curve, including weeks
	// without reports of their own.
	for i := 0; i <= proj.LastObservedIndex; i++ {
		proj.Cumulative[i] = asOf[i]
	}

	ev.ProjectedIncrements = proj.PerWeekIncrements
	ev.ProjectedCumulative = proj.Cumulative
	ev.WeeklyIncrement = proj.WeeklyIncrement
	ev.LastKnownTotal = proj.LastKnownTotal
	ev.FinalProjectedTotal = proj.FinalProjectedTotal
	if proj.LastObservedIndex >= 0 {
		ev.LastObservedWeek = schema.Int(p.Weeks[proj.LastObservedIndex])
	}

	ev.Summary = summary(ev, p.Locale)
	ev.Table = Table(ev, p.Locale)
	e.logger.Debug("analysis complete",
		"scope", p.Scope.Name,
		"records", len(inScope),
		"last_known_total", ev.LastKnownTotal,
		"weekly_increment", ev.WeeklyIncrement,
	)
	return ev
}

func summary(ev *schema.Evolution, loc locale.Locale) []string {
	var out []string
	if ev.LastObservedWeek == nil {
		out = append(out, loc.T("summary.no_observed"))
	}
	return append(out,
		loc.T("summary.projection", ev.Goal, ev.TargetWeek, ev.WeeklyIncrement),
		loc.T("summary.current", ev.LastKnownTotal, ev.Goal, percent(ev.LastKnownTotal, ev.Goal)),
		loc.T("summary.projected_total", ev.FinalProjectedTotal, ev.TargetWeek, percent(ev.FinalProjectedTotal, ev.Goal)),
	)
}

func percent(n, of int) int {
	if of <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(of)))
}
