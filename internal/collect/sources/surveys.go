package sources

import (
	"context"

	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/normalize"
)

// Surveys collects employee survey responses. The API pages by offset/limit
// and authenticates with an api_key query parameter.
type Surveys struct {
	endpoint string
	opts     Options
	creds    creds.Provider
	client   *fetcher.Client
	norm     *normalize.Normalizer
}

// NewSurveys creates the surveys collector.
func NewSurveys(endpoint string, opts Options, p creds.Provider, client *fetcher.Client) *Surveys {
	return &Surveys{
		endpoint: endpoint,
		opts:     opts,
		creds:    p,
		client:   client,
		norm: normalize.New([]normalize.FieldSpec{
			normalize.Field("response_id", true, "response_id", "id"),
			normalize.Field("survey_id", false, "survey_id", "survey.id"),
			normalize.Field("respondent", false, "respondent_email", "respondent.email", "email"),
			normalize.Field("score", false, "score", "nps_score", "rating"),
			normalize.Field("comment", false, "comment", "feedback", "text"),
			normalize.Field("submitted_at", false, "submitted_at", "created_at"),
		}),
	}
}

func (s *Surveys) Name() string { return "surveys" }

func (s *Surveys) Columns() []string { return s.norm.Columns() }

// Collect fetches every available survey response.
func (s *Surveys) Collect(ctx context.Context) (model.RecordSet, error) {
	key, err := credential(s.creds, s.Name(), "api_key")
	if err != nil {
		return model.RecordSet{Name: s.Name(), Columns: s.Columns()}, err
	}

	return collectPages(ctx, s.client, s.Name(), fetcher.PageRequest{
		Endpoint:  s.endpoint,
		Auth:      fetcher.QueryAuth("api_key", key),
		PageParam: "offset",
		SizeParam: "limit",
		ByOffset:  true,
		ItemsKey:  "responses",
		PageSize:  s.opts.PageSize,
		MaxPages:  s.opts.MaxPages,
		Retry:     s.opts.Retry,
	}, s.norm)
}
