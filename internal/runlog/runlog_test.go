package runlog

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestRecordWritesOneRowPerOutcome(t *testing.T) {
	mock := newMock(t)
	runID := NewRunID()

	summary := model.Summary{}
	summary.Append(model.Outcome{
		Name: "surveys", Status: model.StatusSuccess, RecordCount: 42, Duration: 1500 * time.Millisecond,
	})
	summary.Append(model.Outcome{
		Name: "scm", Status: model.StatusError, ErrorMessage: "auth rejected", Duration: 80 * time.Millisecond,
	})

	mock.ExpectExec("INSERT INTO activity.run_log").
		WithArgs(runID, PhaseCollect, "surveys", "success", 42, 1.5, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO activity.run_log").
		WithArgs(runID, PhaseCollect, "scm", "error", 0, 0.08, "auth rejected").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, New(mock).Record(context.Background(), runID, PhaseCollect, summary))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByRun(t *testing.T) {
	mock := newMock(t)
	runID := NewRunID()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM activity.run_log").
		WithArgs(runID).
		WillReturnRows(pgxmock.NewRows([]string{
			"run_id", "phase", "name", "status", "record_count", "duration_seconds", "error_message", "recorded_at",
		}).
			AddRow(runID, PhaseCollect, "surveys", "success", 42, 1.5, "", now).
			AddRow(runID, PhaseStore, "surveys", "success", 42, 0.3, "", now))

	entries, err := New(mock).ByRun(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, PhaseCollect, entries[0].Phase)
	assert.Equal(t, PhaseStore, entries[1].Phase)
	assert.Equal(t, 42, entries[0].RecordCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesDefaultLimit(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("ORDER BY recorded_at DESC").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"run_id", "phase", "name", "status", "record_count", "duration_seconds", "error_message", "recorded_at",
		}))

	entries, err := New(mock).List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
