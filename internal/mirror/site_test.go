package mirror_test

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/skaphos/repomirror/internal/config"
)

type page struct {
	status int
	body   string
}

// fakeSite serves listing pages and raw content from one test server. Raw
// content lives under /raw.
type fakeSite struct {
	srv *httptest.Server

	mu       sync.Mutex
	pages    map[string]page
	gates    map[string]chan struct{}
	requests []string
}

func newFakeSite() *fakeSite {
	s := &fakeSite{pages: map[string]page{}, gates: map[string]chan struct{}{}}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *fakeSite) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.RequestURI()
	s.mu.Lock()
	s.requests = append(s.requests, key)
	p, ok := s.pages[key]
	gate := s.gates[key]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(p.status)
	_, _ = w.Write([]byte(p.body))
}

func (s *fakeSite) set(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = page{status: status, body: body}
}

// block holds requests for path until the returned channel is closed.
func (s *fakeSite) block(path string) chan struct{} {
	gate := make(chan struct{})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[path] = gate
	return gate
}

func (s *fakeSite) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// countMatching counts requests whose path contains any of the fragments.
func (s *fakeSite) countMatching(fragments ...string) int {
	n := 0
	for _, req := range s.requested() {
		for _, f := range fragments {
			if strings.Contains(req, f) {
				n++
				break
			}
		}
	}
	return n
}

func (s *fakeSite) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Hosts.Listing = s.srv.URL
	cfg.Hosts.Raw = s.srv.URL + "/raw"
	cfg.Defaults.PollIntervalMS = 5
	cfg.Defaults.Concurrency = 4
	return &cfg
}

func tagsPage(owner, project string, tags []string, next string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"releases\">")
	for i, tag := range tags {
		fmt.Fprintf(&b, `<div class="Box-row"><h2><a href="/%s/%s/releases/tag/%s">%s</a></h2>`, owner, project, tag, tag)
		fmt.Fprintf(&b, `<relative-time datetime="2024-01-0%dT00:00:00Z">Jan %d</relative-time>`, i+1, i+1)
		fmt.Fprintf(&b, `<a href="/%s/%s/commit/%07d0000abcdef">%07d</a></div>`, owner, project, i, i)
	}
	if next != "" {
		fmt.Fprintf(&b, `<div class="pagination"><a rel="nofollow next" href="%s">Next</a></div>`, next)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func branchesPage(owner, project string, branches ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><ul>")
	for _, branch := range branches {
		fmt.Fprintf(&b, `<li><a class="branch-name css-truncate-target" href="/%s/%s/tree/%s">%s</a></li>`, owner, project, branch, branch)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

// treePage renders a directory listing. Names ending in "/" are directories.
// Hrefs are percent-encoded and link text is HTML-escaped, as the browser
// renders them.
func treePage(base string, names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tr><td><a class="js-navigation-open" title="Go to parent directory" href="..">..</a></td></tr>`)
	for _, name := range names {
		if dir, ok := strings.CutSuffix(name, "/"); ok {
			fmt.Fprintf(&b, `<tr><td><a class="js-navigation-open Link--primary" href="%s/%s">%s</a></td></tr>`, strings.Replace(base, "/blob/", "/tree/", 1), url.PathEscape(dir), html.EscapeString(dir))
			continue
		}
		fmt.Fprintf(&b, `<tr><td><a class="js-navigation-open Link--primary" href="%s/%s">%s</a></td></tr>`, strings.Replace(base, "/tree/", "/blob/", 1), url.PathEscape(name), html.EscapeString(name))
	}
	b.WriteString("</table></body></html>")
	return b.String()
}
