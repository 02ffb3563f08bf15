// Package model holds the shared data types passed between the collection
// and storage phases of a run.
package model

// RawRecord is an untyped key→value mapping as returned by a remote API.
// Key presence varies between vendors; a missing key simply reads as absent.
type RawRecord map[string]any

// Record is a canonical record whose keys are exactly the declared output
// columns of its source, plus the collected_at timestamp stamped by the
// normalizer.
type Record map[string]any

// CollectedAtColumn is appended to every normalized record.
const CollectedAtColumn = "collected_at"

// RecordSet pairs a source name with the ordered records it produced during
// one run. All records share the set's column schema.
type RecordSet struct {
	Name    string
	Columns []string
	Records []Record
}

// Empty reports whether the set holds no records.
func (rs RecordSet) Empty() bool { return len(rs.Records) == 0 }

// AllColumns returns the declared columns plus collected_at, in insert order.
func (rs RecordSet) AllColumns() []string {
	cols := make([]string, 0, len(rs.Columns)+1)
	cols = append(cols, rs.Columns...)
	return append(cols, CollectedAtColumn)
}

// Rows converts the records into positional rows following AllColumns.
// Absent values become nil.
func (rs RecordSet) Rows() [][]any {
	cols := rs.AllColumns()
	rows := make([][]any, 0, len(rs.Records))
	for _, rec := range rs.Records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		rows = append(rows, row)
	}
	return rows
}
