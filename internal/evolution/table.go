package evolution

import (
	"fmt"
	"strconv"

	"github.com/falobo92/ADC2/internal/isoweek"
	"github.com/falobo92/ADC2/internal/locale"
	"github.com/falobo92/ADC2/internal/record"
	"github.com/falobo92/ADC2/internal/schema"
)

// Placeholder is rendered for "no data" cells.
const Placeholder = "-"

// Labels returns the axis label for each week of year.
func Labels(weeks []int, year int, loc locale.Locale) []schema.WeekLabel {
	out := make([]schema.WeekLabel, len(weeks))
	for i, w := range weeks {
		start := isoweek.WeekStartDate(w, year)
		out[i] = schema.WeekLabel{
			Week:  w,
			Start: record.Day(start),
			Label: fmt.Sprintf("S. %d", w),
			Date:  loc.ShortDate(start),
		}
	}
	return out
}

// Table builds the metric × week row-set for ev. It returns nil when ev has
// no data.
func Table(ev *schema.Evolution, loc locale.Locale) *schema.Table {
	if ev == nil || ev.NoData {
		return nil
	}
	header := make([]string, 0, len(ev.Weeks)+1)
	header = append(header, loc.T("metric"))
	for _, w := range ev.Weeks {
		header = append(header, w.Label)
	}
	return &schema.Table{
		Header: header,
		Rows: []schema.Row{
			{Metric: loc.T("row.finalized"), Values: cells(ev.Finalized, len(ev.Weeks))},
			{Metric: loc.T("row.editorial"), Values: cells(ev.EditorialReview, len(ev.Weeks))},
			{Metric: loc.T("row.projected_increment"), Values: cells(ev.ProjectedIncrements, len(ev.Weeks))},
			{Metric: loc.T("row.projected_cumulative"), Values: cells(ev.ProjectedCumulative, len(ev.Weeks))},
		},
	}
}

func cells(series []*int, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = Placeholder
		if i < len(series) && series[i] != nil {
			out[i] = strconv.Itoa(*series[i])
		}
	}
	return out
}
