package store

import (
	"context"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

type sinkCall struct {
	op      string
	table   string
	columns []string
	keys    []string
	rows    [][]any
}

// memSink records calls and can be told to fail or report tables missing.
type memSink struct {
	calls   []sinkCall
	missing map[string]bool
	failOn  map[string]error
}

func newMemSink() *memSink {
	return &memSink{missing: map[string]bool{}, failOn: map[string]error{}}
}

func (m *memSink) Exists(_ context.Context, table string) (bool, error) {
	return !m.missing[table], nil
}

func (m *memSink) Insert(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return m.record("insert", table, columns, nil, rows)
}

func (m *memSink) Replace(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return m.record("replace", table, columns, nil, rows)
}

func (m *memSink) Upsert(_ context.Context, table string, columns, keys []string, rows [][]any) (int64, error) {
	return m.record("upsert", table, columns, keys, rows)
}

func (m *memSink) Close() error { return nil }

func (m *memSink) record(op, table string, columns, keys []string, rows [][]any) (int64, error) {
	if err := m.failOn[table]; err != nil {
		return 0, err
	}
	m.calls = append(m.calls, sinkCall{op: op, table: table, columns: columns, keys: keys, rows: rows})
	return int64(len(rows)), nil
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func testTargets() map[string]Target {
	return map[string]Target{
		"alpha": {Name: "alpha", Table: "activity.alpha", KeyColumns: []string{"id"}},
		"beta":  {Name: "beta", Table: "activity.beta", KeyColumns: []string{"id"}},
	}
}

func set(name string, ids ...string) model.RecordSet {
	rs := model.RecordSet{Name: name, Columns: []string{"id", "val"}}
	for _, id := range ids {
		rs.Records = append(rs.Records, model.Record{"id": id, "val": "v-" + id})
	}
	return rs
}

func TestEngineStoreSortedOrderAndIsolation(t *testing.T) {
	sink := newMemSink()
	sink.failOn["activity.alpha"] = eris.New("disk is sad")

	engine := NewEngine(sink, testTargets())
	summary := engine.Store(context.Background(), map[string]model.RecordSet{
		"beta":  set("beta", "b1", "b2"),
		"alpha": set("alpha", "a1"),
	}, ModeUpsert)

	require.Len(t, summary.Outcomes, 2)
	// Sorted by name, and beta succeeds despite alpha failing.
	assert.Equal(t, "alpha", summary.Outcomes[0].Name)
	assert.Equal(t, model.StatusError, summary.Outcomes[0].Status)
	assert.Contains(t, summary.Outcomes[0].ErrorMessage, "disk is sad")
	assert.Equal(t, "beta", summary.Outcomes[1].Name)
	assert.Equal(t, model.StatusSuccess, summary.Outcomes[1].Status)
	assert.Equal(t, 2, summary.Outcomes[1].RecordCount)

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "upsert", sink.calls[0].op)
	assert.Equal(t, "activity.beta", sink.calls[0].table)
	assert.Equal(t, []string{"id", "val", "collected_at"}, sink.calls[0].columns)
}

func TestEngineSkipsUnknownTargetAndEmptySet(t *testing.T) {
	sink := newMemSink()
	engine := NewEngine(sink, testTargets())

	summary := engine.Store(context.Background(), map[string]model.RecordSet{
		"mystery": set("mystery", "m1"),
		"alpha":   set("alpha"), // no records
	}, ModeAppend)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, model.StatusSkipped, summary.Outcomes[0].Status)
	assert.Contains(t, summary.Outcomes[0].ErrorMessage, "no records")
	assert.Equal(t, model.StatusSkipped, summary.Outcomes[1].Status)
	assert.Contains(t, summary.Outcomes[1].ErrorMessage, "no storage target")
	assert.Empty(t, sink.calls, "skipped sets never reach the sink")
	assert.False(t, summary.Failed())
}

func TestEngineMissingTableIsErrorNotCreate(t *testing.T) {
	sink := newMemSink()
	sink.missing["activity.alpha"] = true

	engine := NewEngine(sink, testTargets())
	summary := engine.Store(context.Background(), map[string]model.RecordSet{
		"alpha": set("alpha", "a1"),
	}, ModeAppend)

	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, model.StatusError, summary.Outcomes[0].Status)
	assert.Contains(t, summary.Outcomes[0].ErrorMessage, "does not exist")
	assert.Empty(t, sink.calls)
}

func TestEngineUpsertDedupesLastWins(t *testing.T) {
	sink := newMemSink()
	engine := NewEngine(sink, testTargets())

	rs := model.RecordSet{
		Name:    "alpha",
		Columns: []string{"id", "val"},
		Records: []model.Record{
			{"id": "a1", "val": "old"},
			{"id": "a2", "val": "keep"},
			{"id": "a1", "val": "new"},
		},
	}
	summary := engine.Store(context.Background(), map[string]model.RecordSet{"alpha": rs}, ModeUpsert)

	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, model.StatusSuccess, summary.Outcomes[0].Status)
	assert.Equal(t, 2, summary.Outcomes[0].RecordCount)

	require.Len(t, sink.calls, 1)
	rows := sink.calls[0].rows
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", rows[0][0])
	assert.Equal(t, "new", rows[0][1], "later duplicate wins")
	assert.Equal(t, "a2", rows[1][0])
}

func TestDedupeByKeyDistinguishesTypes(t *testing.T) {
	rows := [][]any{
		{float64(1), "numeric"},
		{"1", "string"},
	}

	out, err := dedupeByKey(rows, []string{"id", "val"}, []string{"id"})
	require.NoError(t, err)
	assert.Len(t, out, 2, "a numeric key and its string rendering are different identities")
}

func TestEngineAppendDoesNotDedupe(t *testing.T) {
	sink := newMemSink()
	engine := NewEngine(sink, testTargets())

	rs := model.RecordSet{
		Name:    "alpha",
		Columns: []string{"id", "val"},
		Records: []model.Record{
			{"id": "a1", "val": "x"},
			{"id": "a1", "val": "y"},
		},
	}
	engine.Store(context.Background(), map[string]model.RecordSet{"alpha": rs}, ModeAppend)

	require.Len(t, sink.calls, 1)
	assert.Len(t, sink.calls[0].rows, 2)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"append", "replace", "upsert"} {
		mode, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, WriteMode(s), mode)
	}

	_, err := ParseMode("merge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown write mode "merge"`)
}

func TestLoadTargetsOverlay(t *testing.T) {
	targets, err := LoadTargets("")
	require.NoError(t, err)
	assert.Len(t, targets, 4)
	assert.Equal(t, []string{"user_email", "report_date"}, targets["workspace"].KeyColumns)

	path := t.TempDir() + "/targets.yaml"
	yaml := `
targets:
  - name: scm
    table: activity.commits_v2
    key_columns: [commit_sha]
  - name: badges
    table: activity.badge_swipes
    key_columns: [badge_id, swiped_at]
`
	require.NoError(t, writeFile(path, yaml))

	targets, err = LoadTargets(path)
	require.NoError(t, err)
	assert.Len(t, targets, 5)
	assert.Equal(t, "activity.commits_v2", targets["scm"].Table)
	assert.Equal(t, []string{"badge_id", "swiped_at"}, targets["badges"].KeyColumns)
	// Untouched defaults survive the overlay.
	assert.Equal(t, "activity.survey_responses", targets["surveys"].Table)
}

func TestLoadTargetsRejectsIncompleteEntry(t *testing.T) {
	path := t.TempDir() + "/targets.yaml"
	require.NoError(t, writeFile(path, "targets:\n  - name: nameless\n"))

	_, err := LoadTargets(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name or table")
}
