package record

import (
	"fmt"
	"strings"
	"time"
)

// Record is one reported observation of one tracked item on one reporting date.
type Record struct {
	ItemID      string            `json:"item_id"`
	PrimaryID   string            `json:"id,omitempty"`
	CorrectedID string            `json:"corrected_id,omitempty"`
	Category    Category          `json:"category"`
	State       State             `json:"state"`
	Week        int               `json:"week"`
	ReportDate  string            `json:"report_date"`
	SubItem     string            `json:"sub_item,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Category is the document/workstream an item belongs to.
type Category string

const (
	CategoryADC Category = "ADC"
	CategoryPAC Category = "PAC"
)

// ResolveID applies the identifier precedence: the corrected identifier wins
// when present and non-empty, otherwise the primary identifier is used.
// Returns "" when neither is set.
func ResolveID(corrected, primary string) string {
	if c := strings.TrimSpace(corrected); c != "" {
		return c
	}
	return strings.TrimSpace(primary)
}

// HasID reports whether the record carries a usable item identifier.
func (r Record) HasID() bool {
	return r.ItemID != ""
}

// Key returns the merge key (itemId, week, reportDate, subItem, category)
// under which the Record Store keeps at most one entry.
func (r Record) Key() string {
	return fmt.Sprintf("%s_%d_%s_%s_%s", r.ItemID, r.Week, r.ReportDate, r.SubItem, r.Category)
}

// Equal reports whether two records carry identical content.
func (r Record) Equal(o Record) bool {
	if r.ItemID != o.ItemID || r.PrimaryID != o.PrimaryID || r.CorrectedID != o.CorrectedID ||
		r.Category != o.Category || r.State != o.State || r.Week != o.Week ||
		r.ReportDate != o.ReportDate || r.SubItem != o.SubItem {
		return false
	}
	if len(r.Attributes) != len(o.Attributes) {
		return false
	}
	for k, v := range r.Attributes {
		if ov, ok := o.Attributes[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Attr returns a pass-through attribute, or "" when absent.
func (r Record) Attr(name string) string {
	return r.Attributes[name]
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// ParseDate parses a reporting date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed report date %q", s)
}

// Date parses the record's ReportDate. ok is false for a malformed date.
func (r Record) Date() (t time.Time, ok bool) {
	t, err := ParseDate(r.ReportDate)
	return t, err == nil
}

// Day returns the calendar day of t as YYYY-MM-DD, ignoring time of day.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}
