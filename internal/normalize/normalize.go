// Package normalize turns raw heterogeneous API records into canonical
// fixed-schema records via ordered candidate-field coalescing.
package normalize

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

// Extractor pulls a candidate value out of a raw record. ok is false when
// the candidate is absent.
type Extractor func(raw model.RawRecord) (value any, ok bool)

// Candidate is one place a column's value may live in a raw record: either
// a dotted key path or a custom extractor.
type Candidate struct {
	Key     string
	Extract Extractor
}

// Key returns a path-based candidate. Dots descend into nested objects,
// e.g. "author.email".
func Key(path string) Candidate { return Candidate{Key: path} }

// Func returns an extractor-based candidate.
func Func(fn Extractor) Candidate { return Candidate{Extract: fn} }

// FieldSpec declares how one output column is derived: candidates are tried
// in the declared order and the first present value wins. The order is part
// of the collector's contract and is never reordered.
type FieldSpec struct {
	Column     string
	Candidates []Candidate
	Default    any
	Required   bool
}

// Field is shorthand for a spec with path candidates only.
func Field(column string, required bool, paths ...string) FieldSpec {
	spec := FieldSpec{Column: column, Required: required}
	for _, p := range paths {
		spec.Candidates = append(spec.Candidates, Key(p))
	}
	return spec
}

// Normalizer applies a fixed set of field specs to raw records. It performs
// no I/O and holds no mutable state; one instance is safe for reuse across
// every record of a source.
type Normalizer struct {
	specs []FieldSpec
	now   func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides the collected_at timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer for the given specs.
func New(specs []FieldSpec, opts ...Option) *Normalizer {
	n := &Normalizer{specs: specs, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Columns returns the declared output columns in spec order.
func (n *Normalizer) Columns() []string {
	cols := make([]string, len(n.specs))
	for i, s := range n.specs {
		cols[i] = s.Column
	}
	return cols
}

// Apply normalizes one raw record. The second return is false when the
// record is dropped: a required column had no present candidate, or every
// declared column came out empty.
func (n *Normalizer) Apply(raw model.RawRecord) (model.Record, bool) {
	rec := make(model.Record, len(n.specs)+1)
	anyPresent := false

	for _, spec := range n.specs {
		val, ok := coalesce(raw, spec.Candidates)
		if ok {
			rec[spec.Column] = cleanValue(val)
			anyPresent = true
			continue
		}
		if spec.Required {
			return nil, false
		}
		if spec.Default != nil {
			rec[spec.Column] = spec.Default
		}
	}

	if !anyPresent {
		return nil, false
	}

	rec[model.CollectedAtColumn] = n.now().UTC()
	return rec, true
}

// ApplyAll normalizes a batch, silently dropping rejected records.
func (n *Normalizer) ApplyAll(raws []model.RawRecord) []model.Record {
	records := make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		if rec, ok := n.Apply(raw); ok {
			records = append(records, rec)
		}
	}
	return records
}

// coalesce tries the candidates in declared order and returns the first
// present value.
func coalesce(raw model.RawRecord, candidates []Candidate) (any, bool) {
	for _, c := range candidates {
		if c.Extract != nil {
			if v, ok := c.Extract(raw); ok && present(v) {
				return v, true
			}
			continue
		}
		if v, ok := lookupPath(raw, c.Key); ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

// lookupPath resolves a dotted key path through nested maps.
func lookupPath(raw model.RawRecord, path string) (any, bool) {
	cur := any(raw)
	for part := range strings.SplitSeq(path, ".") {
		m, ok := toMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case model.RawRecord:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// present treats nil and blank strings as absent.
func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// cleanValue NFC-normalizes and trims string values; vendor APIs disagree
// on unicode composition for names and titles.
func cleanValue(v any) any {
	if s, ok := v.(string); ok {
		return norm.NFC.String(strings.TrimSpace(s))
	}
	return v
}
