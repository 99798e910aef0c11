// SPDX-License-Identifier: MIT
package mirror

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skaphos/repomirror/internal/fetch"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/pathutil"
	"github.com/skaphos/repomirror/internal/scrape"
)

const errorClassWrite = "write"

// work is one queued unit: a directory listing or a file download. Paths
// are relative to the target root.
type work struct {
	kind model.EntryKind
	path string
}

// outcome is what a worker hands back to the scheduler.
type outcome struct {
	work     work
	children []work
	err      error
	status   int
	file     model.FileResult
}

// crawler runs one job. Only the run goroutine touches pending and summary.
type crawler struct {
	e        *Engine
	job      *Job
	repo     model.Repository
	target   string
	cb       Callbacks
	logger   *slog.Logger
	excludes []string
	tracker  *Tracker

	pending []work
	summary model.Summary
}

func newCrawler(e *Engine, job *Job, repo model.Repository, target string, cb Callbacks, logger *slog.Logger) *crawler {
	excludes := make([]string, 0, len(e.cfg.Exclude)+len(repo.Exclude))
	excludes = append(excludes, e.cfg.Exclude...)
	excludes = append(excludes, repo.Exclude...)
	return &crawler{
		e:        e,
		job:      job,
		repo:     repo,
		target:   target,
		cb:       cb,
		logger:   logger.With("target", target),
		excludes: excludes,
		tracker:  &Tracker{},
		summary: model.Summary{
			JobID:      job.ID,
			Repository: repo.Name,
			Target:     target,
			StartedAt:  job.StartedAt,
		},
	}
}

// run drives the crawl until it settles and returns the summary.
func (c *crawler) run(ctx context.Context) model.Summary {
	concurrency := c.e.cfg.Defaults.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	results := make(chan outcome)
	done := make(chan struct{})
	defer close(done)

	ticker := time.NewTicker(c.e.cfg.Defaults.PollInterval())
	defer ticker.Stop()

	c.accept(work{kind: model.EntryDir})
	for {
		if !c.stopped(ctx) {
			c.dispatch(ctx, sem, results, done)
		}
		select {
		case out := <-results:
			c.handle(ctx, out)
		case <-ticker.C:
			if c.tracker.Outstanding() == 0 || c.stopped(ctx) {
				return c.settle(ctx)
			}
		}
	}
}

func (c *crawler) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || c.job.Cancelled()
}

func (c *crawler) accept(w work) {
	c.tracker.Begin()
	c.pending = append(c.pending, w)
}

// dispatch starts queued work while worker slots are free. The most
// recently queued unit goes first.
func (c *crawler) dispatch(ctx context.Context, sem chan struct{}, results chan<- outcome, done <-chan struct{}) {
	for len(c.pending) > 0 {
		select {
		case sem <- struct{}{}:
		default:
			return
		}
		w := c.pending[len(c.pending)-1]
		c.pending = c.pending[:len(c.pending)-1]
		go func(w work) {
			var out outcome
			if w.kind == model.EntryFile {
				out = c.download(ctx, w)
			} else {
				out = c.list(ctx, w)
			}
			<-sem
			select {
			case results <- out:
			case <-done:
			}
		}(w)
	}
}

// handle runs the continuation of one finished unit on the scheduler.
func (c *crawler) handle(ctx context.Context, out outcome) {
	defer c.tracker.Done()

	if out.work.kind == model.EntryFile {
		res := out.file
		if res.OK() {
			c.summary.Files++
			c.summary.Bytes += res.Bytes
			c.logger.Debug("file written", "path", res.Path, "bytes", res.Bytes)
		} else {
			c.summary.Failed++
			c.logger.Warn("file failed", "path", res.Path, "url", res.URL, "status", res.StatusCode, "error_class", res.ErrorClass, "err", res.Error)
		}
		if c.cb.OnFile != nil {
			c.cb.OnFile(res)
		}
		return
	}

	if out.err != nil {
		c.summary.Failed++
		c.logger.Warn("listing failed", "path", out.work.path, "status", out.status, "error_class", fetch.ClassifyError(out.err), "err", out.err)
		return
	}
	c.summary.Directories++
	for _, child := range out.children {
		c.accept(child)
	}
	if !c.stopped(ctx) {
		c.recordTarget()
	}
}

// recordTarget stores the target being crawled as the repository's last
// target. It runs after every listing page, so it must stay idempotent.
func (c *crawler) recordTarget() {
	repo, ok := c.e.store.Get(c.repo.Name)
	if !ok {
		return
	}
	repo.LastTarget = c.target
	if err := c.e.store.Put(repo); err != nil {
		c.logger.Warn("registry update failed", "err", err)
		return
	}
	if err := c.e.store.Save(); err != nil {
		c.logger.Warn("registry save failed", "err", err)
	}
}

// list fetches and parses one directory listing, ensures local directories
// for its subdirectories and returns the units to queue.
func (c *crawler) list(ctx context.Context, w work) outcome {
	out := outcome{work: w}
	listing := c.e.listingURL(c.repo, c.e.cfg.Hosts.TreeSegment, c.target, w.path)
	res := c.e.fetcher.Fetch(ctx, listing)
	out.status = res.Status
	if err := res.AsError(); err != nil {
		out.err = err
		return out
	}
	entries, err := scrape.ParseTree(bytes.NewReader(res.Body))
	if err != nil {
		out.err = err
		return out
	}
	if len(entries) == 0 {
		c.logger.Info("empty listing", "path", w.path)
	}
	for _, entry := range entries {
		rel := path.Join(w.path, entry.Path)
		if c.excluded(rel) {
			c.logger.Debug("excluded", "path", rel)
			continue
		}
		if entry.Kind == model.EntryDir {
			local, err := pathutil.JoinRelative(c.repo.Subdir, rel)
			if err != nil {
				c.logger.Warn("skipping directory", "path", rel, "err", err)
				continue
			}
			if err := c.e.sink.EnsureDir(ctx, local); err != nil {
				c.logger.Warn("create directory failed", "path", local, "err", err)
				continue
			}
		}
		out.children = append(out.children, work{kind: entry.Kind, path: rel})
	}
	return out
}

// download fetches one file's raw content and writes it through the sink.
// Failures are recorded on the result and never retried.
func (c *crawler) download(ctx context.Context, w work) outcome {
	listing := c.e.listingURL(c.repo, c.e.cfg.Hosts.BlobSegment, c.target, w.path)
	res := model.FileResult{
		Repository: c.repo.Name,
		Path:       w.path,
		URL:        pathutil.RawContentURL(listing, c.e.cfg.Hosts),
	}
	out := outcome{work: w}

	local, err := pathutil.JoinRelative(c.repo.Subdir, pathutil.NormalizeLocalPath(w.path))
	if err != nil {
		res.Error = err.Error()
		res.ErrorClass = fetch.ClassifyError(err)
		out.file = res
		return out
	}
	res.LocalPath = c.e.sink.Location(local)

	fetched := c.e.fetcher.Fetch(ctx, res.URL)
	res.StatusCode = fetched.Status
	if err := fetched.AsError(); err != nil {
		res.Error = err.Error()
		res.ErrorClass = fetch.ClassifyError(err)
		out.file = res
		return out
	}
	if err := c.e.sink.WriteFile(ctx, local, fetched.Body); err != nil {
		res.Error = err.Error()
		res.ErrorClass = errorClassWrite
		out.file = res
		return out
	}
	res.Bytes = int64(len(fetched.Body))
	out.file = res
	return out
}

func (c *crawler) excluded(rel string) bool {
	for _, pattern := range c.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// settle finishes the job exactly once.
func (c *crawler) settle(ctx context.Context) model.Summary {
	if !c.tracker.settle() {
		return c.summary
	}
	c.summary.Cancelled = c.stopped(ctx)
	c.summary.FinishedAt = time.Now()
	c.e.jobs.finish(c.job)
	c.logger.Info("job settled",
		"directories", c.summary.Directories,
		"files", c.summary.Files,
		"failed", c.summary.Failed,
		"bytes", c.summary.Bytes,
		"cancelled", c.summary.Cancelled,
		"elapsed", c.summary.FinishedAt.Sub(c.summary.StartedAt).Round(time.Millisecond),
	)
	if c.cb.OnSettled != nil {
		c.cb.OnSettled(c.summary)
	}
	return c.summary
}
