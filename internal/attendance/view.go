package attendance

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// BuildView consolidates attendance for display.
//
// For the primary event every person gets at most one row: their stored
// record, or a synthesized Absent row once the event has ended, or nothing
// while it is still open. Records for non-primary events are passed through
// as stored; with no primary event in the catalog, all records are.
//
// Rows with a check-in time sort before synthesized rows, most recent
// first; synthesized rows sort by person name. The sort is stable and the
// whole build is a pure read of current state.
func (s *Service) BuildView(now time.Time) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var primary *Event
	for i := range s.events {
		if s.events[i].IsPrimary {
			primary = &s.events[i]
			break
		}
	}

	rows := make([]Record, 0, len(s.people)+len(s.records))
	if primary != nil {
		for _, p := range s.people {
			if rec, ok := s.recordFor(p.ID, primary.ID); ok {
				rows = append(rows, rec)
				continue
			}
			if now.After(primary.EndTime) {
				rows = append(rows, Record{
					PersonID:   p.ID,
					PersonName: p.Name,
					PersonKind: p.Kind,
					Status:     StatusAbsent,
					EventID:    primary.ID,
					EventName:  primary.Name,
				})
			}
		}
	}
	for _, r := range s.records {
		if primary != nil && r.EventID == primary.ID {
			continue
		}
		rows = append(rows, r)
	}

	names := collate.New(language.English)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.CheckinTime != nil && b.CheckinTime != nil:
			return a.CheckinTime.After(*b.CheckinTime)
		case a.CheckinTime != nil:
			return true
		case b.CheckinTime != nil:
			return false
		default:
			return names.CompareString(a.PersonName, b.PersonName) < 0
		}
	})
	return rows
}

func (s *Service) recordFor(personID, eventID string) (Record, bool) {
	for _, r := range s.records {
		if r.PersonID == personID && r.EventID == eventID {
			return r, true
		}
	}
	return Record{}, false
}
