package attendance

import "time"

// Status is the resolved attendance state shown for a person.
type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Present (Late)"
	StatusAbsent  Status = "Absent"
)

// Kind distinguishes seeded members from people admitted at the door.
type Kind string

const (
	KindMember   Kind = "Member"
	KindNewcomer Kind = "Newcomer"
)

// Event is one time-boxed entry in the catalog. Events come from the seed
// at startup and never change afterwards.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Location  string    `json:"location"`
	IsPrimary bool      `json:"is_primary"`
}

// Active reports whether now falls inside the event window, inclusive on
// both ends.
func (e Event) Active(now time.Time) bool {
	return !now.Before(e.StartTime) && !now.After(e.EndTime)
}

// Person is a roster entry.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Record is one attendance fact. Person and event names are captured at
// check-in time; later roster or catalog changes never rewrite history.
// A nil CheckinTime marks a synthesized Absent row, never a real check-in.
type Record struct {
	PersonID    string     `json:"person_id"`
	PersonName  string     `json:"person_name"`
	PersonKind  Kind       `json:"person_kind"`
	Status      Status     `json:"status"`
	CheckinTime *time.Time `json:"checkin_time"`
	EventID     string     `json:"event_id"`
	EventName   string     `json:"event_name"`
}
