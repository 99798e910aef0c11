// SPDX-License-Identifier: MIT
package scrape

import (
	"io"
	"path"
	"strings"

	"github.com/skaphos/repomirror/internal/model"
)

const blobHrefMarker = "/blob/"

// ParseTree extracts the navigable entries of one directory listing page.
// Entry paths are relative to the listed directory.
//
// The renderer collapses chains of directories that only contain a single
// directory into one row, rendering the skipped part as a muted prefix
// ("a/b/" + "c"). The prefix and the leaf are joined back into one path.
func ParseTree(r io.Reader) ([]model.TreeEntry, error) {
	var entries []model.TreeEntry
	err := walk(r, visitor{
		anchor: func(a *anchor) {
			if !a.hasClass(entryClass) || a.title == parentTitle {
				return
			}
			name := entryName(a)
			if name == "" || name == "." || name == ".." {
				return
			}
			kind := model.EntryDir
			if strings.Contains(a.href, blobHrefMarker) {
				kind = model.EntryFile
			}
			entries = append(entries, model.TreeEntry{Kind: kind, Path: name})
		},
	})
	return entries, err
}

// entryName joins the collapsed prefix and the leaf. Both are tokenizer text,
// which is already entity-decoded.
func entryName(a *anchor) string {
	leaf, prefix := a.Text(), a.Prefix()
	if prefix == "" {
		return strings.Trim(leaf, "/")
	}
	return strings.Trim(path.Join(prefix, leaf), "/")
}
