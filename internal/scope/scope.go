package scope

import (
	"fmt"
	"strings"

	"github.com/falobo92/ADC2/internal/config"
	"github.com/falobo92/ADC2/internal/record"
)

// Name identifies a category filter selection.
type Name string

const (
	Total Name = "TOTAL"
	ADC   Name = "ADC"
	PAC   Name = "PAC"
)

// Scope is a category filter bound to its goal ceiling.
type Scope struct {
	Name     Name
	Category record.Category // empty for TOTAL
	Goal     int
}

// Get returns the scope for the given name with its configured goal.
// The name is case-insensitive; "" and "TODOS" select TOTAL.
func Get(name string, goals config.GoalsConfig) (Scope, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", string(Total), "TODOS":
		return Scope{Name: Total, Goal: goals.Total}, nil
	case string(ADC):
		return Scope{Name: ADC, Category: record.CategoryADC, Goal: goals.ADC}, nil
	case string(PAC):
		return Scope{Name: PAC, Category: record.CategoryPAC, Goal: goals.PAC}, nil
	default:
		return Scope{}, fmt.Errorf("unknown scope %q: valid scopes are TOTAL, ADC, PAC", name)
	}
}

// Matches reports whether r falls inside the scope.
func (s Scope) Matches(r record.Record) bool {
	return s.Category == "" || r.Category == s.Category
}

// Filter returns the records inside the scope. The input is not modified.
func (s Scope) Filter(records []record.Record) []record.Record {
	if s.Category == "" {
		return records
	}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if s.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
