package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/arbor-insights/pulse-cli/internal/collect"
	"github.com/arbor-insights/pulse-cli/internal/collect/sources"
	"github.com/arbor-insights/pulse-cli/internal/creds"
	"github.com/arbor-insights/pulse-cli/internal/db"
	"github.com/arbor-insights/pulse-cli/internal/fetcher"
	"github.com/arbor-insights/pulse-cli/internal/resilience"
	"github.com/arbor-insights/pulse-cli/internal/runlog"
	"github.com/arbor-insights/pulse-cli/internal/store"
)

// credProvider is the production credential chain: environment only. A
// static provider can be prepended here for local development.
func credProvider() creds.Provider {
	return creds.Chain{creds.Env{Prefix: "PULSE"}}
}

func fetchOptions() fetcher.Options {
	return fetcher.Options{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
	}
}

func newFetchClient() *fetcher.Client {
	return fetcher.NewClient(fetchOptions())
}

func collectorOptions() sources.Options {
	retry := resilience.DefaultRetryConfig()
	if cfg.Collect.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Collect.MaxAttempts
	}
	if cfg.Collect.InitialBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(cfg.Collect.InitialBackoffMs) * time.Millisecond
	}
	return sources.Options{
		PageSize: cfg.Collect.PageSize,
		MaxPages: cfg.Collect.MaxPages,
		Retry:    retry,
	}
}

// buildRegistry wires the shipped collectors in their canonical order.
func buildRegistry(client *fetcher.Client, provider creds.Provider) *collect.Registry {
	opts := collectorOptions()
	reg := collect.NewRegistry()
	reg.Register(sources.NewSurveys(cfg.Sources.Surveys.Endpoint, opts, provider, client))
	reg.Register(sources.NewWorkspace(cfg.Sources.Workspace.Endpoint, opts, provider, client))
	reg.Register(sources.NewMeetings(cfg.Sources.Meetings.Endpoint, opts, provider, client))
	reg.Register(sources.NewSCM(cfg.Sources.SCM.Endpoint, opts, provider, client))
	return reg
}

// openSink opens the configured storage backend. The run log comes back
// non-nil only on Postgres, where activity.run_log lives; callers treat a
// nil log as "no durable run history".
func openSink(ctx context.Context) (store.Sink, *runlog.Log, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, nil, eris.New("store.database_url is required for the postgres driver")
		}
		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPostgres(pool), runlog.New(pool), nil
	case "sqlite":
		sink, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return sink, nil, nil
	default:
		return nil, nil, eris.Errorf("unknown store driver %q (want postgres or sqlite)", cfg.Store.Driver)
	}
}

// openRunLog connects to the Postgres run log for read-only commands.
func openRunLog(ctx context.Context) (*runlog.Log, func(), error) {
	if cfg.Store.Driver != "postgres" {
		return nil, nil, eris.New("run history requires the postgres store driver")
	}
	if cfg.Store.DatabaseURL == "" {
		return nil, nil, eris.New("store.database_url is required for the postgres driver")
	}
	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return runlog.New(pool), pool.Close, nil
}
