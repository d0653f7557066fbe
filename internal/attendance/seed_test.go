package attendance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeedResolve(t *testing.T) {
	events, people, err := DefaultSeed().Resolve(testDay)
	require.NoError(t, err)

	require.Len(t, events, 3)
	require.Len(t, people, 6)

	primary := events[0]
	assert.True(t, primary.IsPrimary)
	assert.Equal(t, at(9, 0, 0), primary.StartTime)
	assert.Equal(t, at(10, 30, 0), primary.EndTime)
	assert.False(t, events[1].IsPrimary)
	assert.False(t, events[2].IsPrimary)

	for _, p := range people {
		assert.Equal(t, KindMember, p.Kind)
	}
}

func TestLoadSeedEmptyPathUsesDefaults(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSeed(), seed)
}

func TestLoadSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	content := `{
		"events": [
			{"id": "e1", "name": "Standup", "start": "10:00", "end": "10:15", "location": "Room 1", "is_primary": true}
		],
		"people": [
			{"id": "p1", "name": "Ada"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	events, people, err := seed.Resolve(testDay)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Name)
	assert.Equal(t, at(10, 0, 0), events[0].StartTime)
	require.Len(t, people, 1)
	assert.Equal(t, KindMember, people[0].Kind)
}

func TestLoadSeedBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadSeed(path)
	assert.Error(t, err)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResolveValidation(t *testing.T) {
	testCases := []struct {
		name string
		seed Seed
	}{
		{
			"bad clock time",
			Seed{Events: []SeedEvent{{ID: "e1", Start: "9am", End: "10:00"}}},
		},
		{
			"end before start",
			Seed{Events: []SeedEvent{{ID: "e1", Start: "11:00", End: "10:00"}}},
		},
		{
			"two primary events",
			Seed{Events: []SeedEvent{
				{ID: "e1", Start: "09:00", End: "10:00", IsPrimary: true},
				{ID: "e2", Start: "10:00", End: "11:00", IsPrimary: true},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tc.seed.Resolve(testDay)
			assert.Error(t, err)
		})
	}
}

func TestResolveKeepsDayAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	day := time.Date(2025, 6, 1, 15, 42, 0, 0, loc)

	events, _, err := DefaultSeed().Resolve(day)
	require.NoError(t, err)
	start := events[0].StartTime
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, loc), start)
}
