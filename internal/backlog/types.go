// Package backlog tracks policy questions the knowledge base could not
// answer, so support staff can see which documents are missing.
package backlog

import "time"

// Status represents the lifecycle stage of a knowledge gap.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusRetired  Status = "retired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusAnswered || s == StatusRetired
}

// Question is a customer question with no good policy passage. Repeats of
// the same question bump Occurrences instead of adding rows.
type Question struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	Occurrences    int        `json:"occurrences"`
	BestSource     string     `json:"best_source,omitempty"`
	BestSimilarity float64    `json:"best_similarity"`
	Status         Status     `json:"status"`
	Answer         string     `json:"answer,omitempty"`
	AnsweredBy     string     `json:"answered_by,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	FirstSeen      time.Time  `json:"first_seen"`
	LastSeen       time.Time  `json:"last_seen"`
}

// ListFilter controls which questions to return.
type ListFilter struct {
	Status         Status
	MinOccurrences int
	Limit          int
	Offset         int
}
