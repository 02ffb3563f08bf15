package sources

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/normalize"
)

// Meetings collects video-meeting usage. Page-numbered API, bearer token.
type Meetings struct {
	endpoint string
	opts     Options
	creds    creds.Provider
	client   *fetcher.Client
	norm     *normalize.Normalizer
}

// NewMeetings creates the meetings collector.
func NewMeetings(endpoint string, opts Options, p creds.Provider, client *fetcher.Client) *Meetings {
	return &Meetings{
		endpoint: endpoint,
		opts:     opts,
		creds:    p,
		client:   client,
		norm: normalize.New([]normalize.FieldSpec{
			normalize.Field("meeting_id", true, "meeting_id", "id", "uuid"),
			normalize.Field("host_email", false, "host_email", "host.email"),
			normalize.Field("topic", false, "topic", "title"),
			normalize.Field("participants", false, "participants", "participant_count"),
			normalize.Field("duration_mins", false, "duration_mins", "duration_minutes", "duration"),
			normalize.Field("started_at", false, "started_at", "start_time"),
		}),
	}
}

func (m *Meetings) Name() string { return "meetings" }

func (m *Meetings) Columns() []string { return m.norm.Columns() }

// Collect fetches all meeting usage rows.
func (m *Meetings) Collect(ctx context.Context) (model.RecordSet, error) {
	token, err := credential(m.creds, m.Name(), "api_token")
	if err != nil {
		return model.RecordSet{Name: m.Name(), Columns: m.Columns()}, err
	}

	return collectPages(ctx, m.client, m.Name(), fetcher.PageRequest{
		Endpoint:  m.endpoint,
		Auth:      fetcher.BearerAuth(token),
		PageParam: "page",
		SizeParam: "page_size",
		StartPage: 1,
		ItemsKey:  "meetings",
		PageSize:  m.opts.PageSize,
		MaxPages:  m.opts.MaxPages,
		Retry:     m.opts.Retry,
	}, m.norm)
}
