package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/falobo92/ADC2/internal/isoweek"
	"github.com/falobo92/ADC2/internal/record"
)

// ErrInvalidShape is returned when a file is neither a JSON array of entries
// nor an object with a "body" array.
var ErrInvalidShape = errors.New("invalid snapshot shape")

// RequiredFields must be present as keys on every entry.
var RequiredFields = []string{
	"ID", "ID_Corregido", "Documento", "Estado", "Elaborador", "Revisor",
	"Coordinador", "FechaReporte", "Tematica", "Pregunta",
}

// Fields mapped onto Record columns; everything else is an opaque attribute.
const (
	fieldID          = "ID"
	fieldCorrectedID = "ID_Corregido"
	fieldCategory    = "Documento"
	fieldState       = "Estado"
	fieldWeek        = "Semana"
	fieldReportDate  = "FechaReporte"
	fieldSubItem     = "Item"
)

// Snapshot holds one loaded snapshot file.
type Snapshot struct {
	Path      string
	Hash      string // "sha256:<hex>"
	Records   []record.Record
	MissingID int // entries with neither identifier; kept, excluded later from dedup
}

// Load reads a snapshot file from disk and converts its entries to records.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// LoadAll loads every path in order.
func LoadAll(paths []string) ([]*Snapshot, error) {
	out := make([]*Snapshot, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Records flattens the records of several snapshots, preserving order.
func Records(snaps []*Snapshot) []record.Record {
	var out []record.Record
	for _, s := range snaps {
		out = append(out, s.Records...)
	}
	return out
}

// Parse decodes snapshot content and validates every entry.
func Parse(data []byte) (*Snapshot, error) {
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidShape)
	}

	sum := sha256.Sum256(data)
	s := &Snapshot{
		Hash:    fmt.Sprintf("sha256:%x", sum),
		Records: make([]record.Record, 0, len(entries)),
	}
	for i, e := range entries {
		if err := validateEntry(e, i); err != nil {
			return nil, err
		}
		r, err := toRecord(e, i)
		if err != nil {
			return nil, err
		}
		if !r.HasID() {
			s.MissingID++
		}
		s.Records = append(s.Records, r)
	}
	return s, nil
}

func decodeEntries(data []byte) ([]map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidShape)
	}

	var entries []map[string]json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
		}
	case '{':
		var wrapper struct {
			Body []map[string]json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
		}
		if wrapper.Body == nil {
			return nil, fmt.Errorf("%w: object without a body array", ErrInvalidShape)
		}
		entries = wrapper.Body
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object", ErrInvalidShape)
	}
	return entries, nil
}

func validateEntry(e map[string]json.RawMessage, idx int) error {
	for _, f := range RequiredFields {
		if _, ok := e[f]; !ok {
			return fmt.Errorf("entry[%d]: required field %s is missing", idx, f)
		}
	}
	return nil
}

func toRecord(e map[string]json.RawMessage, idx int) (record.Record, error) {
	primary := text(e[fieldID])
	corrected := text(e[fieldCorrectedID])
	r := record.Record{
		ItemID:      record.ResolveID(corrected, primary),
		PrimaryID:   primary,
		CorrectedID: corrected,
		Category:    record.Category(text(e[fieldCategory])),
		State:       record.State(text(e[fieldState])),
		ReportDate:  text(e[fieldReportDate]),
		SubItem:     text(e[fieldSubItem]),
	}

	week, err := weekOf(e[fieldWeek], r.ReportDate)
	if err != nil {
		return record.Record{}, fmt.Errorf("entry[%d]: %w", idx, err)
	}
	r.Week = week

	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case fieldID, fieldCorrectedID, fieldCategory, fieldState, fieldWeek, fieldReportDate, fieldSubItem:
			continue
		}
		if v := text(e[k]); v != "" {
			if r.Attributes == nil {
				r.Attributes = make(map[string]string)
			}
			r.Attributes[k] = v
		}
	}
	return r, nil
}

// weekOf reads the week field, deriving it from the report date when absent.
func weekOf(raw json.RawMessage, reportDate string) (int, error) {
	if s := text(raw); s != "" {
		w, err := strconv.Atoi(s)
		if err != nil || w <= 0 {
			return 0, fmt.Errorf("week %q is not a positive integer", s)
		}
		return w, nil
	}
	d, err := record.ParseDate(reportDate)
	if err != nil {
		return 0, fmt.Errorf("no week and %w", err)
	}
	_, w := isoweek.WeekOf(d)
	return w, nil
}

// text renders a JSON scalar as a trimmed string; null and absent yield "".
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
