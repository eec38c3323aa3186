package importsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncState_IsAfter(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	state := &SyncState{
		Kind:             StreamOrders,
		LastImportedDate: day,
		LastExternalID:   100,
	}

	tests := []struct {
		name       string
		date       time.Time
		externalID int64
		after      bool
	}{
		{"later day", day.AddDate(0, 0, 1), 1, true},
		{"same day higher id", day, 101, true},
		{"same day same id", day, 100, false},
		{"same day lower id", day, 99, false},
		{"earlier day higher id", day.AddDate(0, 0, -1), 999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.after, state.IsAfter(tt.date, tt.externalID))
		})
	}
}

func TestStreamKind_IsValid(t *testing.T) {
	assert.True(t, StreamOrders.IsValid())
	assert.True(t, StreamExpenses.IsValid())
	assert.False(t, StreamKind("customers").IsValid())
	assert.False(t, StreamKind("").IsValid())
}

func TestStats_Record(t *testing.T) {
	var s Stats
	s.Record(OutcomeCreated)
	s.Record(OutcomeCreated)
	s.Record(OutcomeUpdated)
	s.Record(OutcomeSkipped)
	s.Record(OutcomeUnchanged)

	assert.Equal(t, Stats{Created: 2, Updated: 1, Skipped: 1}, s)
	// Unchanged rows are deliberately invisible in the counters.
	assert.Equal(t, 4, s.Total())
}

func TestStats_Add(t *testing.T) {
	a := Stats{Created: 1, Updated: 2, Skipped: 3, Errors: 4}
	b := Stats{Created: 10, Errors: 1}
	a.Add(b)
	assert.Equal(t, Stats{Created: 11, Updated: 2, Skipped: 3, Errors: 5}, a)
}

func TestReferencePolicy_IsValid(t *testing.T) {
	assert.True(t, PolicySkipOnMissing.IsValid())
	assert.True(t, PolicyAutoCreate.IsValid())
	assert.False(t, ReferencePolicy("ignore").IsValid())
}
