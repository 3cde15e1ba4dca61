package evolution

import (
	"time"

	"github.com/falobo92/ADC2/internal/record"
)

// skipped counts records left out of deduplication.
type skipped struct {
	malformed int
	missingID int
}

func (s skipped) any() bool {
	return s.malformed > 0 || s.missingID > 0
}

// LatestStateAsOf returns, per item, the record with the latest report date
// among records with Week <= asOfWeek. On identical report dates the record
// later in input order wins. Records with a malformed date or no identifier
// are skipped. The input is never modified.
func LatestStateAsOf(records []record.Record, asOfWeek int) map[string]record.Record {
	latest, _ := latestStateAsOf(records, asOfWeek)
	return latest
}

func latestStateAsOf(records []record.Record, asOfWeek int) (map[string]record.Record, skipped) {
	var skip skipped
	latest := make(map[string]record.Record)
	dates := make(map[string]time.Time)
	for _, r := range records {
		if r.Week > asOfWeek {
			continue
		}
		if !r.HasID() {
			skip.missingID++
			continue
		}
		d, ok := r.Date()
		if !ok {
			skip.malformed++
			continue
		}
		if cur, seen := dates[r.ItemID]; seen && d.Before(cur) {
			continue
		}
		dates[r.ItemID] = d
		latest[r.ItemID] = r
	}
	return latest, skip
}
