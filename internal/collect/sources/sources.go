// Package sources holds the shipped activity collectors. Each collector
// owns its endpoint, its credential lookup, and its normalization specs;
// the shared fetch client and run-wide paging settings are injected.
package sources

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/model"
	"github.com/arbor-insights/pulse-cli/internal/normalize"
	"github.com/arbor-insights/pulse-cli/internal/resilience"
)

// Options carries the run-wide fetch settings shared by all collectors.
type Options struct {
	PageSize int
	MaxPages int
	Retry    resilience.RetryConfig
}

// collectPages fetches all pages for the request and normalizes them into a
// record set. Pages that arrived before a fetch failure are still
// normalized, so the caller gets the partial set alongside the error.
func collectPages(ctx context.Context, client *fetcher.Client, name string, req fetcher.PageRequest, n *normalize.Normalizer) (model.RecordSet, error) {
	set := model.RecordSet{Name: name, Columns: n.Columns()}

	pages, err := client.FetchAll(ctx, req)
	for _, page := range pages {
		set.Records = append(set.Records, n.ApplyAll(page.Records)...)
	}
	if err != nil {
		return set, eris.Wrapf(err, "%s: fetch", name)
	}
	return set, nil
}

// credential resolves one credential or fails the collector with a message
// naming what is missing.
func credential(p creds.Provider, service, key string) (string, error) {
	v, ok := p.Get(service, key)
	if !ok {
		return "", eris.Errorf("missing credential %s/%s", service, key)
	}
	return v, nil
}
