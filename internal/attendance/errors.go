package attendance

import "errors"

var (
	// ErrPersonNotFound rejects a check-in whose person id is not on the roster.
	ErrPersonNotFound = errors.New("person not found")
	// ErrEventNotFound rejects a check-in whose event id is not in the catalog.
	ErrEventNotFound = errors.New("event not found")
	// ErrNoActiveEvent means a newcomer arrived while no event window contains now.
	ErrNoActiveEvent = errors.New("no active event to check into")
)
