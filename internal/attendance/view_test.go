package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildViewWhilePrimaryStillOpen(t *testing.T) {
	svc := seededService(t)

	// Nobody has checked in and the primary event has not ended: no rows,
	// not even synthesized absences.
	assert.Empty(t, svc.BuildView(at(10, 0, 0)))

	// End bound is exclusive for absence synthesis.
	assert.Empty(t, svc.BuildView(at(10, 30, 0)))
}

func TestBuildViewSynthesizesAbsences(t *testing.T) {
	svc := seededService(t)

	rows := svc.BuildView(at(10, 31, 0))
	require.Len(t, rows, 6)
	for _, r := range rows {
		assert.Equal(t, StatusAbsent, r.Status)
		assert.Nil(t, r.CheckinTime)
		assert.Equal(t, "evt-001", r.EventID)
	}

	// Synthesized rows order by person name ascending.
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.PersonName)
	}
	assert.Equal(t, []string{"David Lee", "Emeka James", "John Okoro", "Mary Uduak", "Samuel Ajayi", "Sophia Chen"}, names)
}

func TestBuildViewAbsentRowOncePerPerson(t *testing.T) {
	svc := seededService(t)

	rows := svc.BuildView(at(11, 0, 0))
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.PersonID]++
	}
	for id, n := range seen {
		assert.Equalf(t, 1, n, "person %s must appear exactly once", id)
	}
}

func TestBuildViewOrdering(t *testing.T) {
	svc := seededService(t)

	_, _, err := svc.CheckIn("mem-001", "evt-001", at(9, 10, 0))
	require.NoError(t, err)
	_, _, err = svc.CheckIn("mem-002", "evt-001", at(9, 20, 0))
	require.NoError(t, err)
	_, _, err = svc.CheckIn("mem-003", "evt-002", at(9, 50, 0))
	require.NoError(t, err)

	rows := svc.BuildView(at(10, 31, 0))
	require.Len(t, rows, 6, "3 real records plus 3 synthesized absences")

	// Timestamped rows first, most recent first.
	assert.Equal(t, "mem-003", rows[0].PersonID)
	assert.Equal(t, "evt-002", rows[0].EventID)
	assert.Equal(t, "mem-002", rows[1].PersonID)
	assert.Equal(t, "mem-001", rows[2].PersonID)

	// Then null-instant rows by name.
	assert.Nil(t, rows[3].CheckinTime)
	assert.Equal(t, []string{"David Lee", "Emeka James", "Sophia Chen"},
		[]string{rows[3].PersonName, rows[4].PersonName, rows[5].PersonName})
}

func TestBuildViewSecondaryRecordVisibleBeforePrimaryEnds(t *testing.T) {
	svc := seededService(t)

	_, _, err := svc.CheckIn("mem-003", "evt-002", at(9, 50, 0))
	require.NoError(t, err)

	rows := svc.BuildView(at(10, 0, 0))
	require.Len(t, rows, 1)
	assert.Equal(t, "evt-002", rows[0].EventID)
}

func TestBuildViewNewcomerAppears(t *testing.T) {
	svc := seededService(t)

	person, _, err := svc.AdmitNewcomer(at(9, 15, 0))
	require.NoError(t, err)

	rows := svc.BuildView(at(11, 0, 0))
	require.Len(t, rows, 7)
	assert.Equal(t, person.ID, rows[0].PersonID)
	assert.Equal(t, StatusPresent, rows[0].Status)
}

func TestBuildViewNoPrimaryIncludesAllRecords(t *testing.T) {
	events := []Event{
		{ID: "a", Name: "A", StartTime: at(9, 0, 0), EndTime: at(10, 0, 0)},
		{ID: "b", Name: "B", StartTime: at(9, 0, 0), EndTime: at(10, 0, 0)},
	}
	_, people, err := DefaultSeed().Resolve(testDay)
	require.NoError(t, err)
	svc := NewService(zap.NewNop(), events, people, 30*time.Minute)

	_, _, err = svc.CheckIn("mem-001", "a", at(9, 5, 0))
	require.NoError(t, err)
	_, _, err = svc.CheckIn("mem-002", "b", at(9, 10, 0))
	require.NoError(t, err)

	// No primary: no synthesis step, every stored record passes through.
	rows := svc.BuildView(at(12, 0, 0))
	require.Len(t, rows, 2)
	assert.Equal(t, "mem-002", rows[0].PersonID)
	assert.Equal(t, "mem-001", rows[1].PersonID)
}

func TestBuildViewDeterministic(t *testing.T) {
	svc := seededService(t)

	_, _, err := svc.CheckIn("mem-004", "evt-001", at(9, 12, 0))
	require.NoError(t, err)
	_, _, err = svc.CheckIn("mem-005", "evt-003", at(11, 5, 0))
	require.NoError(t, err)

	now := at(11, 30, 0)
	first := svc.BuildView(now)
	second := svc.BuildView(now)
	assert.Equal(t, first, second)
	assert.Len(t, svc.Records(), 2, "view building must not mutate state")
}
