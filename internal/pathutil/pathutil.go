// SPDX-License-Identifier: MIT
// Package pathutil turns scraped listing text and remote paths into safe local
// paths and raw-content URLs.
package pathutil

import (
	"errors"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// extensionWindow is how far from the end of a path an extension dot may sit.
const extensionWindow = 6

// ErrUnsafePath marks relative paths that would escape the mirror root.
var ErrUnsafePath = errors.New("unsafe mirror path")

// SafeExtensions is the allow-list of extensions kept as-is on disk.
// Anything else gets a ".txt" suffix.
var SafeExtensions = map[string]struct{}{
	"txt": {}, "md": {}, "rst": {}, "adoc": {}, "log": {},
	"json": {}, "yaml": {}, "yml": {}, "toml": {}, "ini": {}, "cfg": {}, "conf": {},
	"xml": {}, "csv": {}, "tsv": {}, "html": {}, "htm": {}, "css": {},
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "bmp": {}, "ico": {}, "svg": {}, "webp": {},
	"pdf": {}, "ttf": {}, "otf": {}, "woff": {}, "woff2": {},
	"c": {}, "h": {}, "cc": {}, "cpp": {}, "hpp": {}, "go": {}, "rs": {}, "java": {},
	"kt": {}, "swift": {}, "ts": {}, "tsx": {}, "jsx": {}, "lua": {}, "mod": {}, "sum": {},
	"lock": {}, "proto": {}, "sql": {},
}

var numericRef = regexp.MustCompile(`&#([0-9]+);|&#[xX]([0-9a-fA-F]+);`)

// Hosts describes how listing URLs map onto raw-content URLs.
type Hosts struct {
	// Listing is the base URL of the rendered directory browser.
	Listing string `yaml:"listing"`
	// Raw is the base URL serving file bytes.
	Raw string `yaml:"raw"`
	// TreeSegment is the path segment used for directory listings.
	TreeSegment string `yaml:"tree_segment"`
	// BlobSegment is the path segment used for single-file pages.
	BlobSegment string `yaml:"blob_segment"`
}

// DefaultHosts returns the GitHub-style browser layout.
func DefaultHosts() Hosts {
	return Hosts{
		Listing:     "https://github.com",
		Raw:         "https://raw.githubusercontent.com",
		TreeSegment: "tree",
		BlobSegment: "blob",
	}
}

// UnescapeEntities replaces every decimal (&#NN;) and hex (&#xHH;) character
// reference with its literal rune, repeating until none is left, so
// "&#38;#65;" becomes "A". Invalid code points become U+FFFD.
func UnescapeEntities(s string) string {
	for strings.Contains(s, "&#") {
		next := numericRef.ReplaceAllStringFunc(s, decodeRef)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// decodeRef decodes one reference. The result is always shorter than ref.
func decodeRef(ref string) string {
	m := numericRef.FindStringSubmatch(ref)
	var (
		n   uint64
		err error
	)
	if m[1] != "" {
		n, err = strconv.ParseUint(m[1], 10, 32)
	} else {
		n, err = strconv.ParseUint(m[2], 16, 32)
	}
	r := rune(n)
	if err != nil || !utf8.ValidRune(r) || r == 0 {
		return string(utf8.RuneError)
	}
	return string(r)
}

// Extension returns the extension found within the final characters of p,
// without the dot. It returns "" when there is none.
func Extension(p string) string {
	tail := p
	if len(tail) > extensionWindow {
		tail = tail[len(tail)-extensionWindow:]
	}
	i := strings.LastIndexByte(tail, '.')
	if i < 0 {
		return ""
	}
	ext := tail[i+1:]
	if strings.ContainsRune(ext, '/') {
		return ""
	}
	return ext
}

// NormalizeLocalPath appends ".txt" unless p ends in an allow-listed
// extension. It is not idempotent: call it once per path.
func NormalizeLocalPath(p string) string {
	ext := strings.ToLower(Extension(p))
	if _, ok := SafeExtensions[ext]; ok && ext != "" {
		return p
	}
	return p + ".txt"
}

// RawContentURL rewrites a single-file listing URL into its raw-content URL.
// It must not be used for directory listings.
func RawContentURL(listingURL string, h Hosts) string {
	listing := strings.TrimRight(h.Listing, "/")
	raw := strings.TrimRight(h.Raw, "/")

	out := listingURL
	if rest, ok := strings.CutPrefix(listingURL, listing+"/"); ok {
		out = raw + "/" + dropSegment(rest, strings.Trim(h.BlobSegment, "/"))
	}
	out = UnescapeEntities(out)
	out = strings.ReplaceAll(out, "&amp;", "&")
	return strings.ReplaceAll(out, " ", "%20")
}

// dropSegment removes seg when it is the third segment of owner/project/seg/...
// and otherwise its first occurrence.
func dropSegment(rest, seg string) string {
	if seg == "" {
		return rest
	}
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) == 4 && parts[2] == seg {
		return parts[0] + "/" + parts[1] + "/" + parts[3]
	}
	return strings.Replace(rest, "/"+seg+"/", "/", 1)
}

// JoinRelative joins an optional subdirectory prefix and a slash-separated
// relative path into a clean relative path, rejecting escapes.
func JoinRelative(subdir, rel string) (string, error) {
	joined := path.Join("/", strings.Trim(subdir, "/"), rel)
	if strings.Contains(rel, "..") {
		for _, seg := range strings.Split(rel, "/") {
			if seg == ".." {
				return "", ErrUnsafePath
			}
		}
	}
	joined = strings.TrimPrefix(joined, "/")
	if joined == "" {
		return "", ErrUnsafePath
	}
	return joined, nil
}
