package attendance

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service owns the roster, the event catalog and the append-only record
// list. It is the single writer: every mutation runs under its lock, reads
// hand out copies.
type Service struct {
	log   *zap.Logger
	grace time.Duration

	mu        sync.RWMutex
	events    []Event
	people    []Person
	records   []Record
	newcomers int
}

// NewService seeds a service with the resolved catalog and roster. The
// grace period defaults to 30 minutes when unset.
func NewService(log *zap.Logger, events []Event, people []Person, grace time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	s := &Service{log: log, grace: grace}
	s.events = append(s.events, events...)
	s.people = append(s.people, people...)
	return s
}

// Events returns a snapshot of the catalog in seed order.
func (s *Service) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// People returns a snapshot of the roster.
func (s *Service) People() []Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Person, len(s.people))
	copy(out, s.people)
	return out
}

// Records returns a snapshot of all stored check-in records.
func (s *Service) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// PrimaryEvent returns the primary event when the catalog has one.
func (s *Service) PrimaryEvent() (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.IsPrimary {
			return e, true
		}
	}
	return Event{}, false
}

// ActiveEvents returns the events whose window contains now, in catalog order.
func (s *Service) ActiveEvents(now time.Time) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Active(now) {
			out = append(out, e)
		}
	}
	return out
}

// CheckIn records that a person attended an event at now. Unknown ids are
// rejected; a second check-in for the same (person, event) pair is a no-op
// that returns the stored record with created=false.
//
// Status is classified against the grace deadline only; a check-in outside
// the event's own window is still accepted and classified by the same rule.
func (s *Service) CheckIn(personID, eventID string, now time.Time) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkInLocked(personID, eventID, now)
}

func (s *Service) checkInLocked(personID, eventID string, now time.Time) (Record, bool, error) {
	person := s.findPerson(personID)
	if person == nil {
		s.log.Warn("check-in for unknown person", zap.String("person_id", personID))
		return Record{}, false, ErrPersonNotFound
	}
	event := s.findEvent(eventID)
	if event == nil {
		s.log.Warn("check-in for unknown event", zap.String("event_id", eventID))
		return Record{}, false, ErrEventNotFound
	}

	for _, r := range s.records {
		if r.PersonID == personID && r.EventID == eventID {
			return r, false, nil
		}
	}

	status := StatusPresent
	if now.After(event.StartTime.Add(s.grace)) {
		status = StatusLate
	}

	when := now
	rec := Record{
		PersonID:    person.ID,
		PersonName:  person.Name,
		PersonKind:  person.Kind,
		Status:      status,
		CheckinTime: &when,
		EventID:     event.ID,
		EventName:   event.Name,
	}
	s.records = append(s.records, rec)
	s.log.Info("check-in recorded",
		zap.String("person", person.Name),
		zap.String("event", event.Name),
		zap.String("status", string(status)))
	return rec, true, nil
}

// AdmitNewcomer adds a walk-in person to the roster and checks them into
// the first event in catalog order whose window contains now. When no event
// is active the roster is left untouched and ErrNoActiveEvent is returned.
func (s *Service) AdmitNewcomer(now time.Time) (Person, Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active *Event
	for i := range s.events {
		if s.events[i].Active(now) {
			active = &s.events[i]
			break
		}
	}
	if active == nil {
		return Person{}, Record{}, ErrNoActiveEvent
	}

	s.newcomers++
	p := Person{
		ID:   uuid.NewString(),
		Name: fmt.Sprintf("Newcomer %d (New)", s.newcomers),
		Kind: KindNewcomer,
	}
	s.people = append(s.people, p)
	s.log.Info("newcomer admitted", zap.String("person", p.Name), zap.String("event", active.Name))

	rec, _, err := s.checkInLocked(p.ID, active.ID, now)
	if err != nil {
		return Person{}, Record{}, err
	}
	return p, rec, nil
}

func (s *Service) findPerson(id string) *Person {
	for i := range s.people {
		if s.people[i].ID == id {
			return &s.people[i]
		}
	}
	return nil
}

func (s *Service) findEvent(id string) *Event {
	for i := range s.events {
		if s.events[i].ID == id {
			return &s.events[i]
		}
	}
	return nil
}
