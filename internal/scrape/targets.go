// SPDX-License-Identifier: MIT
package scrape

import (
	"io"
	"net/url"
	"strings"

	"github.com/skaphos/repomirror/internal/model"
)

// TagsPage is the parsed content of one tags listing page.
type TagsPage struct {
	Targets []model.Target
	// Next is the href of the following page, if any.
	Next string
}

// ParseTags extracts release targets from a tags listing page.
//
// Tag anchors append a new target. Dates and commit anchors update the most
// recently appended target, so one seen before any tag is dropped.
func ParseTags(r io.Reader) (TagsPage, error) {
	var page TagsPage
	err := walk(r, visitor{
		anchor: func(a *anchor) {
			if next := nextLink(a); next != "" {
				page.Next = next
				return
			}
			switch {
			case strings.Contains(a.href, tagHrefMarker):
				name := a.Text()
				if name == "" {
					name = tagFromHref(a.href)
				}
				if name == "" {
					return
				}
				page.Targets = append(page.Targets, model.NewTarget(name, model.TargetRelease))
			case strings.Contains(a.href, commitHrefMarker):
				if len(page.Targets) == 0 {
					return
				}
				commit := lastSegment(a.href)
				if len(commit) > shortCommitLen {
					commit = commit[:shortCommitLen]
				}
				if commit != "" {
					page.Targets[len(page.Targets)-1].Commit = commit
				}
			}
		},
		timeElement: func(date string) {
			if len(page.Targets) == 0 {
				return
			}
			page.Targets[len(page.Targets)-1].Date = date
		},
	})
	return page, err
}

// BranchesPage is the parsed content of one branch listing page.
type BranchesPage struct {
	Targets []model.Target
	Next    string
}

// ParseBranches extracts branch targets from a branch listing page, in page
// order.
func ParseBranches(r io.Reader) (BranchesPage, error) {
	var page BranchesPage
	err := walk(r, visitor{
		anchor: func(a *anchor) {
			if next := nextLink(a); next != "" {
				page.Next = next
				return
			}
			if !a.hasClass(branchClass) {
				return
			}
			name := a.Text()
			if name == "" {
				return
			}
			page.Targets = append(page.Targets, model.NewTarget(name, model.TargetBranch))
		},
	})
	return page, err
}

func tagFromHref(href string) string {
	i := strings.Index(href, tagHrefMarker)
	if i < 0 {
		return ""
	}
	name := strings.Trim(href[i+len(tagHrefMarker):], "/")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
