package attendance

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Seed is the startup catalog and roster. Event clock times are "HH:MM"
// strings resolved against today's date, which keeps the demo live
// whichever day it is started on.
type Seed struct {
	Events []SeedEvent  `json:"events"`
	People []SeedPerson `json:"people"`
}

// SeedEvent is one catalog entry before time resolution.
type SeedEvent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Location  string `json:"location"`
	IsPrimary bool   `json:"is_primary"`
}

// SeedPerson is one roster entry; seeded people are always members.
type SeedPerson struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultSeed returns the demo data the service ships with.
func DefaultSeed() Seed {
	return Seed{
		Events: []SeedEvent{
			{ID: "evt-001", Name: "Sunday Service", Start: "09:00", End: "10:30", Location: "Main Auditorium", IsPrimary: true},
			{ID: "evt-002", Name: "Choir Rehearsal", Start: "09:45", End: "11:00", Location: "Rehearsal Hall"},
			{ID: "evt-003", Name: "Youth Group", Start: "11:00", End: "12:30", Location: "Youth Center"},
		},
		People: []SeedPerson{
			{ID: "mem-001", Name: "John Okoro"},
			{ID: "mem-002", Name: "Mary Uduak"},
			{ID: "mem-003", Name: "Samuel Ajayi"},
			{ID: "mem-004", Name: "Emeka James"},
			{ID: "mem-005", Name: "David Lee"},
			{ID: "mem-006", Name: "Sophia Chen"},
		},
	}
}

// LoadSeed reads a seed file, falling back to the built-in defaults when no
// path is configured.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := json.Unmarshal(raw, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return s, nil
}

// Resolve materializes the seed against the given day in that day's
// location. At most one event may be primary and every window must be
// non-negative.
func (s Seed) Resolve(day time.Time) ([]Event, []Person, error) {
	y, m, d := day.Date()
	loc := day.Location()
	parse := func(clock string) (time.Time, error) {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
	}

	primaries := 0
	events := make([]Event, 0, len(s.Events))
	for _, se := range s.Events {
		start, err := parse(se.Start)
		if err != nil {
			return nil, nil, fmt.Errorf("event %s: bad start %q: %w", se.ID, se.Start, err)
		}
		end, err := parse(se.End)
		if err != nil {
			return nil, nil, fmt.Errorf("event %s: bad end %q: %w", se.ID, se.End, err)
		}
		if end.Before(start) {
			return nil, nil, fmt.Errorf("event %s: end %s before start %s", se.ID, se.End, se.Start)
		}
		if se.IsPrimary {
			primaries++
		}
		events = append(events, Event{
			ID:        se.ID,
			Name:      se.Name,
			StartTime: start,
			EndTime:   end,
			Location:  se.Location,
			IsPrimary: se.IsPrimary,
		})
	}
	if primaries > 1 {
		return nil, nil, fmt.Errorf("seed declares %d primary events, at most one allowed", primaries)
	}

	people := make([]Person, 0, len(s.People))
	for _, sp := range s.People {
		people = append(people, Person{ID: sp.ID, Name: sp.Name, Kind: KindMember})
	}
	return events, people, nil
}
