package model

import "time"

// Status is the terminal state of one source or one target within a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Outcome records what happened to a single named unit (a source during
// collection, a target during storage). Immutable once appended to a Summary.
type Outcome struct {
	Name         string        `json:"name" csv:"name"`
	Status       Status        `json:"status" csv:"status"`
	RecordCount  int           `json:"record_count" csv:"record_count"`
	Duration     time.Duration `json:"duration" csv:"-"`
	ErrorMessage string        `json:"error_message,omitempty" csv:"error_message"`
}

// DurationSeconds returns the elapsed time in seconds, the unit used by the
// run log and the audit exports.
func (o Outcome) DurationSeconds() float64 {
	return o.Duration.Seconds()
}

// Summary is the ordered sequence of outcomes for one phase of a run. It is
// the run's durable output and the sole error-reporting channel downstream.
type Summary struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Append adds an outcome, preserving order.
func (s *Summary) Append(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
}

// Counts returns the number of outcomes per status.
func (s Summary) Counts() (succeeded, failed, skipped int) {
	for _, o := range s.Outcomes {
		switch o.Status {
		case StatusSuccess:
			succeeded++
		case StatusError:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// TotalRecords sums the record counts across all outcomes.
func (s Summary) TotalRecords() int {
	var n int
	for _, o := range s.Outcomes {
		n += o.RecordCount
	}
	return n
}

// Failed reports whether any outcome ended in error.
func (s Summary) Failed() bool {
	for _, o := range s.Outcomes {
		if o.Status == StatusError {
			return true
		}
	}
	return false
}
