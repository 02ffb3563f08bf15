package collect

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

type fakeCollector struct {
	name    string
	records []model.Record
	err     error
	calls   int
}

func (f *fakeCollector) Name() string      { return f.name }
func (f *fakeCollector) Columns() []string { return []string{"id"} }

func (f *fakeCollector) Collect(ctx context.Context) (model.RecordSet, error) {
	f.calls++
	return model.RecordSet{
		Name:    f.name,
		Columns: f.Columns(),
		Records: f.records,
	}, f.err
}

func recs(ids ...string) []model.Record {
	out := make([]model.Record, len(ids))
	for i, id := range ids {
		out[i] = model.Record{"id": id}
	}
	return out
}

func TestOrchestratorRunAll(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeCollector{name: "alpha", records: recs("a1", "a2", "a3")})
	reg.Register(&fakeCollector{name: "beta", records: recs("b1")})

	sets, summary, err := NewOrchestrator(reg).Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, sets, 2)
	assert.Len(t, sets["alpha"].Records, 3)
	assert.Len(t, sets["beta"].Records, 1)

	require.Len(t, summary.Outcomes, 2)
	assert.Equal(t, "alpha", summary.Outcomes[0].Name)
	assert.Equal(t, "beta", summary.Outcomes[1].Name)
	for _, o := range summary.Outcomes {
		assert.Equal(t, model.StatusSuccess, o.Status)
	}
	assert.Equal(t, 4, summary.TotalRecords())
	assert.False(t, summary.Failed())
}

func TestOrchestratorIsolatesFailure(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeCollector{name: "alpha", records: recs("a1", "a2")})
	reg.Register(&fakeCollector{name: "beta", err: eris.New("upstream exploded")})
	gamma := &fakeCollector{name: "gamma", records: recs("g1")}
	reg.Register(gamma)

	sets, summary, err := NewOrchestrator(reg).Run(context.Background(), nil)
	require.NoError(t, err)

	// The failure is confined to beta; gamma still ran.
	assert.Equal(t, 1, gamma.calls)
	assert.Len(t, sets["alpha"].Records, 2)
	assert.Len(t, sets["gamma"].Records, 1)

	require.Len(t, summary.Outcomes, 3)
	assert.Equal(t, model.StatusSuccess, summary.Outcomes[0].Status)
	assert.Equal(t, model.StatusError, summary.Outcomes[1].Status)
	assert.Contains(t, summary.Outcomes[1].ErrorMessage, "upstream exploded")
	assert.Equal(t, model.StatusSuccess, summary.Outcomes[2].Status)
	assert.True(t, summary.Failed())
}

func TestOrchestratorKeepsPartialRecordsOnError(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeCollector{
		name:    "alpha",
		records: recs("a1", "a2"),
		err:     eris.New("page 3 failed"),
	})

	sets, summary, err := NewOrchestrator(reg).Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, sets["alpha"].Records, 2)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, model.StatusError, summary.Outcomes[0].Status)
	assert.Equal(t, 2, summary.Outcomes[0].RecordCount)
}

func TestOrchestratorUnknownSourceFailsFast(t *testing.T) {
	alpha := &fakeCollector{name: "alpha", records: recs("a1")}
	reg := NewRegistry()
	reg.Register(alpha)

	_, _, err := NewOrchestrator(reg).Run(context.Background(), []string{"alpha", "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "nope"`)
	assert.Equal(t, 0, alpha.calls, "nothing should run when selection fails")
}

func TestOrchestratorSelectsRequestedOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeCollector{name: "alpha", records: recs("a1")})
	reg.Register(&fakeCollector{name: "beta", records: recs("b1")})

	_, summary, err := NewOrchestrator(reg).Run(context.Background(), []string{"beta"})
	require.NoError(t, err)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, "beta", summary.Outcomes[0].Name)
}

func TestRegistryAllNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeCollector{name: "surveys"})
	reg.Register(&fakeCollector{name: "workspace"})
	reg.Register(&fakeCollector{name: "meetings"})

	assert.Equal(t, []string{"surveys", "workspace", "meetings"}, reg.AllNames())

	_, err := reg.Get("scm")
	require.Error(t, err)
}
