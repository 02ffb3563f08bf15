package sources

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/normalize"
)

// Workspace collects per-user workspace usage reports. The API pages by
// page number starting at 1 and authenticates with a bearer token. A user
// appears once per report date, so (user_email, report_date) is the
// identity key downstream.
type Workspace struct {
	endpoint string
	opts     Options
	creds    creds.Provider
	client   *fetcher.Client
	norm     *normalize.Normalizer
}

// NewWorkspace creates the workspace usage collector.
func NewWorkspace(endpoint string, opts Options, p creds.Provider, client *fetcher.Client) *Workspace {
	return &Workspace{
		endpoint: endpoint,
		opts:     opts,
		creds:    p,
		client:   client,
		norm: normalize.New([]normalize.FieldSpec{
			normalize.Field("user_email", true, "user_email", "email", "user.email"),
			normalize.Field("report_date", true, "report_date", "date"),
			normalize.Field("docs_edited", false, "docs_edited", "documents_edited"),
			normalize.Field("mail_sent", false, "mail_sent", "emails_sent"),
			normalize.Field("storage_bytes", false, "storage_bytes", "storage.used_bytes"),
			normalize.Field("last_active_at", false, "last_active_at", "last_activity"),
		}),
	}
}

func (w *Workspace) Name() string { return "workspace" }

func (w *Workspace) Columns() []string { return w.norm.Columns() }

// Collect fetches all workspace usage rows.
func (w *Workspace) Collect(ctx context.Context) (model.RecordSet, error) {
	token, err := credential(w.creds, w.Name(), "api_token")
	if err != nil {
		return model.RecordSet{Name: w.Name(), Columns: w.Columns()}, err
	}

	return collectPages(ctx, w.client, w.Name(), fetcher.PageRequest{
		Endpoint:  w.endpoint,
		Auth:      fetcher.BearerAuth(token),
		PageParam: "page",
		SizeParam: "page_size",
		StartPage: 1,
		ItemsKey:  "reports",
		PageSize:  w.opts.PageSize,
		MaxPages:  w.opts.MaxPages,
		Retry:     w.opts.Retry,
	}, w.norm)
}
