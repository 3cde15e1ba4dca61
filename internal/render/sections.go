package render

import (
	"strconv"

	"github.com/falobo92/ADC2/internal/locale"
	"github.com/falobo92/ADC2/internal/schema"
)

// section is one titled grid shared by the table, csv and xlsx renderers.
type section struct {
	Name   string // short sheet name
	Title  string
	Header []string
	Rows   [][]string
	Notes  []string
}

func sections(report *schema.Report) []section {
	loc := locale.Resolve(report.Meta.Locale)
	var out []section
	if ev := report.Evolution; ev != nil {
		out = append(out, evolutionSection(ev, loc))
	}
	if st := report.States; st != nil {
		out = append(out, statesSection(st, loc))
	}
	return out
}

func evolutionSection(ev *schema.Evolution, loc locale.Locale) section {
	s := section{
		Name:  "Evolucion",
		Title: loc.T("evolution.title") + " · " + ev.Scope,
		Notes: ev.Summary,
	}
	if ev.NoData || ev.Table == nil {
		return s
	}
	s.Header = ev.Table.Header
	for _, row := range ev.Table.Rows {
		s.Rows = append(s.Rows, append([]string{row.Metric}, row.Values...))
	}
	return s
}

func statesSection(st *schema.StateReport, loc locale.Locale) section {
	s := section{
		Name:   "Estados",
		Title:  loc.T("states.title"),
		Header: []string{loc.T("states.state"), "ADC", "PAC", loc.T("states.total")},
	}
	adc := countsByState(st.ADC)
	pac := countsByState(st.PAC)
	var sumADC, sumPAC, sumTotal int
	for _, c := range st.Total {
		s.Rows = append(s.Rows, []string{
			c.State,
			strconv.Itoa(adc[c.State]),
			strconv.Itoa(pac[c.State]),
			strconv.Itoa(c.Count),
		})
		sumADC += adc[c.State]
		sumPAC += pac[c.State]
		sumTotal += c.Count
	}
	s.Rows = append(s.Rows, []string{
		loc.T("states.total"), strconv.Itoa(sumADC), strconv.Itoa(sumPAC), strconv.Itoa(sumTotal),
	})
	comp := st.Completion
	s.Notes = []string{loc.T("states.completion",
		comp.Completed, comp.Total, comp.CompletionRate, comp.InProgress, comp.Pending)}
	return s
}

func countsByState(counts []schema.StateCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.State] = c.Count
	}
	return m
}
