// SPDX-License-Identifier: MIT
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/skaphos/repomirror/internal/fetch"
	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/scrape"
)

// listingParser parses one listing page into targets and a next-page href.
type listingParser func(body []byte) ([]model.Target, string, error)

func parseTagsPage(body []byte) ([]model.Target, string, error) {
	page, err := scrape.ParseTags(bytes.NewReader(body))
	return page.Targets, page.Next, err
}

func parseBranchesPage(body []byte) ([]model.Target, string, error) {
	page, err := scrape.ParseBranches(bytes.NewReader(body))
	return page.Targets, page.Next, err
}

// Discover lists the release and branch targets of repo: releases first,
// then branches, each in page order. Fetch failures are logged and the
// returned body, if any, is still parsed. An empty result is not an error.
func (e *Engine) Discover(ctx context.Context, repo model.Repository) ([]model.Target, error) {
	return e.discover(ctx, repo, e.logger.With("repo", repo.Name))
}

func (e *Engine) discover(ctx context.Context, repo model.Repository, logger *slog.Logger) ([]model.Target, error) {
	base := e.projectURL(repo)
	releases, err := e.collectListing(ctx, base+"/tags", parseTagsPage, logger)
	if err != nil {
		return nil, err
	}
	branches, err := e.collectListing(ctx, base+"/branches/all", parseBranchesPage, logger)
	if err != nil {
		return nil, err
	}
	targets := make([]model.Target, 0, len(releases)+len(branches))
	targets = append(targets, releases...)
	targets = append(targets, branches...)
	if len(targets) == 0 {
		logger.Info("no targets found", "releases", 0, "branches", 0)
	} else {
		logger.Debug("targets discovered", "releases", len(releases), "branches", len(branches))
	}
	return targets, nil
}

// collectListing fetches a listing and follows its next-page links.
func (e *Engine) collectListing(ctx context.Context, pageURL string, parse listingParser, logger *slog.Logger) ([]model.Target, error) {
	var out []model.Target
	seen := make(map[string]struct{})
	for page := 0; page < e.cfg.Defaults.MaxListingPages && pageURL != ""; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[pageURL]; dup {
			break
		}
		seen[pageURL] = struct{}{}

		res := e.fetcher.Fetch(ctx, pageURL)
		if err := res.AsError(); err != nil {
			logger.Warn("listing fetch failed", "url", pageURL, "status", res.Status, "error_class", fetch.ClassifyError(err), "err", err)
		}
		if len(res.Body) == 0 {
			break
		}
		targets, next, err := parse(res.Body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}
		out = append(out, targets...)
		pageURL = resolveHref(pageURL, next)
	}
	return out, nil
}

// resolveHref resolves href against the page it was found on.
func resolveHref(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.ReplaceAll(href, "&amp;", "&"))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
