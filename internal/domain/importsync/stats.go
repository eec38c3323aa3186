package importsync

// ReferencePolicy decides what happens when an import row references a
// missing natural key (product, expense type, product item parent).
type ReferencePolicy string

const (
	// PolicySkipOnMissing counts the row as skipped and continues
	PolicySkipOnMissing ReferencePolicy = "skip_on_missing"
	// PolicyAutoCreate self-heals by creating the missing reference
	// through the reference sync services
	PolicyAutoCreate ReferencePolicy = "auto_create"
)

// IsValid returns true for a known policy
func (p ReferencePolicy) IsValid() bool {
	return p == PolicySkipOnMissing || p == PolicyAutoCreate
}

// Outcome classifies what one row's import did
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
	OutcomeSkipped
)

// Stats aggregates the result of one import run. Unchanged rows count
// toward neither created nor updated; re-running an identical window
// therefore yields all-zero counters.
type Stats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Record tallies one row outcome
func (s *Stats) Record(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	}
}

// Add merges another stats block into this one
func (s *Stats) Add(other Stats) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Errors += other.Errors
}

// Total returns the number of rows accounted for
func (s *Stats) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Errors
}
