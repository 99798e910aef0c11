// SPDX-License-Identifier: MIT
// Package mirror discovers the targets of a remote repository, resolves the
// one to download and crawls its directory listings, writing every file it
// finds through a sink.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/skaphos/repomirror/internal/config"
	"github.com/skaphos/repomirror/internal/fetch"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
	"github.com/skaphos/repomirror/internal/sink"
)

// Callbacks receive job progress. Both are invoked from the job's scheduler
// goroutine, never concurrently for the same job.
type Callbacks struct {
	// OnFile receives every file outcome, successful or not.
	OnFile func(model.FileResult)
	// OnSettled is invoked exactly once when a crawl settles.
	OnSettled func(model.Summary)
}

// Engine runs mirror jobs against a repository store.
type Engine struct {
	cfg     *config.Config
	store   registry.Store
	fetcher fetch.Fetcher
	sink    sink.Sink
	logger  *slog.Logger
	jobs    *Jobs
}

// New creates an Engine. A nil cfg uses config.DefaultConfig and a nil
// logger discards output.
func New(cfg *config.Config, store registry.Store, fetcher fetch.Fetcher, s sink.Sink, logger *slog.Logger) *Engine {
	if cfg == nil {
		defaults := config.DefaultConfig()
		cfg = &defaults
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		sink:    s,
		logger:  logger,
		jobs:    NewJobs(),
	}
}

// Config returns the engine configuration reference.
func (e *Engine) Config() *config.Config { return e.cfg }

// Jobs returns the job registry, for status queries and cancellation.
func (e *Engine) Jobs() *Jobs { return e.jobs }

// Download mirrors the repository registered as name. It discovers targets,
// resolves requested (see Resolve) and crawls the resulting target, blocking
// until the crawl settles. A cancelled job still returns its summary with
// Cancelled set. A failed resolution returns a *TargetNotFoundError before
// any tree listing is fetched.
func (e *Engine) Download(ctx context.Context, name, requested string, cb Callbacks) (*model.Summary, error) {
	repo, ok := e.store.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, registry.NormalizeName(name))
	}
	job, err := e.jobs.Start(repo.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", repo.Name, err)
	}
	logger := e.logger.With("repo", repo.Name, "job", job.ID)
	logger.Info("job started", "requested", requested)

	targets, err := e.discover(ctx, repo, logger)
	if err != nil {
		if ctx.Err() != nil {
			return e.abandon(job, "", cb, logger), nil
		}
		e.jobs.finish(job)
		return nil, err
	}
	if !job.advance(model.StatusResolving) {
		return e.abandon(job, "", cb, logger), nil
	}
	target, err := e.Resolve(repo, requested, targets)
	if err != nil {
		e.jobs.finish(job)
		var notFound *TargetNotFoundError
		if errors.As(err, &notFound) {
			logger.Warn("target not found", "target", notFound.Name, "available", len(targets))
		}
		return nil, err
	}
	job.setTarget(target)
	if !job.advance(model.StatusCrawling) {
		return e.abandon(job, target, cb, logger), nil
	}
	logger.Info("crawl started", "target", target)

	c := newCrawler(e, job, repo, target, cb, logger)
	summary := c.run(ctx)
	return &summary, nil
}

// abandon settles a job that was cancelled before its crawl started.
func (e *Engine) abandon(job *Job, target string, cb Callbacks, logger *slog.Logger) *model.Summary {
	e.jobs.finish(job)
	summary := model.Summary{
		JobID:      job.ID,
		Repository: job.Repository,
		Target:     target,
		Cancelled:  true,
		StartedAt:  job.StartedAt,
		FinishedAt: time.Now(),
	}
	logger.Info("job cancelled before crawl")
	if cb.OnSettled != nil {
		cb.OnSettled(summary)
	}
	return &summary
}

func (e *Engine) projectURL(repo model.Repository) string {
	return strings.TrimRight(e.cfg.Hosts.Listing, "/") + "/" + repo.Owner + "/" + repo.Project
}

// listingURL builds <listing>/<owner>/<project>/<segment>/<target>/<rel>.
// target and rel are display names and get escaped one segment at a time.
func (e *Engine) listingURL(repo model.Repository, segment, target, rel string) string {
	parts := []string{e.projectURL(repo), strings.Trim(segment, "/"), escapePath(target)}
	if rel = strings.Trim(rel, "/"); rel != "" {
		parts = append(parts, escapePath(rel))
	}
	return strings.Join(parts, "/")
}

// escapePath percent-encodes each segment of a slash-separated path. "&" is
// encoded as well so that RawContentURL's entity decoding leaves it alone.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = strings.ReplaceAll(url.PathEscape(seg), "&", "%26")
	}
	return strings.Join(segs, "/")
}
