// Package scrape parses the HTML pages rendered by a repository browser:
// tag listings, branch listings and directory listings.
//
// Parsers tokenize the page in document order with golang.org/x/net/html and
// never build a DOM. Markup that does not match is ignored, so an unexpected
// page yields an empty result rather than an error.
package scrape

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	tagHrefMarker    = "/releases/tag/"
	commitHrefMarker = "/commit/"
	branchClass      = "branch-name"
	entryClass       = "js-navigation-open"
	collapsedClass   = "color-fg-muted"
	parentTitle      = "Go to parent directory"
	shortCommitLen   = 7
)

// anchor is one <a> element with its attributes and text content.
type anchor struct {
	href  string
	class string
	rel   string
	title string
	// prefix holds the collapsed-directory label, when present.
	prefix strings.Builder
	text   strings.Builder
}

func (a *anchor) hasClass(name string) bool {
	return hasClass(a.class, name)
}

// Text returns the anchor's own text, excluding any collapsed prefix.
func (a *anchor) Text() string {
	return strings.TrimSpace(a.text.String())
}

// Prefix returns the collapsed-directory prefix text.
func (a *anchor) Prefix() string {
	return strings.TrimSpace(a.prefix.String())
}

// visitor receives elements in document order.
type visitor struct {
	anchor func(*anchor)
	// timeElement receives the datetime attribute, or the element text when
	// the attribute is missing.
	timeElement func(string)
}

// walk tokenizes r and dispatches anchors and <relative-time> elements.
func walk(r io.Reader, v visitor) error {
	z := html.NewTokenizer(r)
	var (
		cur        *anchor
		spanDepth  int
		prefixAt   int
		inTime     bool
		timeText   strings.Builder
		timeNeedsT bool
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.A:
				cur = &anchor{
					href:  attr(tok, "href"),
					class: attr(tok, "class"),
					rel:   attr(tok, "rel"),
					title: attr(tok, "title"),
				}
				spanDepth, prefixAt = 0, 0
				if tt == html.SelfClosingTagToken {
					if v.anchor != nil {
						v.anchor(cur)
					}
					cur = nil
				}
			case tok.DataAtom == atom.Span && cur != nil && tt == html.StartTagToken:
				spanDepth++
				if prefixAt == 0 && hasClass(attr(tok, "class"), collapsedClass) {
					prefixAt = spanDepth
				}
			case tok.Data == "relative-time":
				if dt := strings.TrimSpace(attr(tok, "datetime")); dt != "" {
					if v.timeElement != nil {
						v.timeElement(dt)
					}
				} else if tt == html.StartTagToken {
					timeNeedsT = true
				}
				if tt == html.StartTagToken {
					inTime = true
					timeText.Reset()
				}
			}
		case html.EndTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.A && cur != nil:
				if v.anchor != nil {
					v.anchor(cur)
				}
				cur = nil
			case tok.DataAtom == atom.Span && cur != nil && spanDepth > 0:
				if prefixAt == spanDepth {
					prefixAt = -1
				}
				spanDepth--
			case tok.Data == "relative-time" && inTime:
				if timeNeedsT && v.timeElement != nil {
					if text := strings.TrimSpace(timeText.String()); text != "" {
						v.timeElement(text)
					}
				}
				inTime, timeNeedsT = false, false
			}
		case html.TextToken:
			text := string(z.Text())
			if inTime {
				timeText.WriteString(text)
			}
			if cur == nil {
				continue
			}
			if prefixAt > 0 && spanDepth >= prefixAt {
				cur.prefix.WriteString(text)
			} else {
				cur.text.WriteString(text)
			}
		}
	}
}

// nextLink returns the pagination href of a rel="next" anchor.
func nextLink(a *anchor) string {
	for _, rel := range strings.Fields(a.rel) {
		if strings.EqualFold(rel, "next") {
			return strings.TrimSpace(a.href)
		}
	}
	return ""
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}

// lastSegment returns the final non-empty path segment of an href, ignoring
// any query or fragment.
func lastSegment(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		return href[i+1:]
	}
	return href
}
