package sources

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/normalize"
)

// SCM collects commit activity from the source-control host. Page-numbered
// API; the token rides in an X-Api-Token header.
type SCM struct {
	endpoint string
	opts     Options
	creds    creds.Provider
	client   *fetcher.Client
	norm     *normalize.Normalizer
}

// NewSCM creates the commit-activity collector.
func NewSCM(endpoint string, opts Options, p creds.Provider, client *fetcher.Client) *SCM {
	return &SCM{
		endpoint: endpoint,
		opts:     opts,
		creds:    p,
		client:   client,
		norm: normalize.New([]normalize.FieldSpec{
			normalize.Field("commit_sha", true, "sha", "commit_sha", "id"),
			normalize.Field("repo", false, "repo", "repository.full_name", "repository"),
			normalize.Field("author_email", false, "author_email", "author.email", "commit.author.email"),
			normalize.Field("message", false, "message", "commit.message"),
			normalize.Field("additions", false, "additions", "stats.additions"),
			normalize.Field("deletions", false, "deletions", "stats.deletions"),
			normalize.Field("committed_at", false, "committed_at", "commit.author.date", "timestamp"),
		}),
	}
}

func (s *SCM) Name() string { return "scm" }

func (s *SCM) Columns() []string { return s.norm.Columns() }

// Collect fetches all commit activity rows.
func (s *SCM) Collect(ctx context.Context) (model.RecordSet, error) {
	token, err := credential(s.creds, s.Name(), "api_token")
	if err != nil {
		return model.RecordSet{Name: s.Name(), Columns: s.Columns()}, err
	}

	return collectPages(ctx, s.client, s.Name(), fetcher.PageRequest{
		Endpoint:  s.endpoint,
		Auth:      fetcher.Auth{Header: "X-Api-Token", Token: token},
		PageParam: "page",
		SizeParam: "page_size",
		StartPage: 1,
		ItemsKey:  "commits",
		PageSize:  s.opts.PageSize,
		MaxPages:  s.opts.MaxPages,
		Retry:     s.opts.Retry,
	}, s.norm)
}
