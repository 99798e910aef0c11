// Package sink writes mirrored files. Paths handed to a Sink are clean,
// slash-separated and relative to the mirror root.
package sink

import "context"

// Sink is the storage side of a mirror.
type Sink interface {
	// EnsureDir makes sure rel exists as a directory. Calling it repeatedly,
	// or concurrently, for the same path is not an error.
	EnsureDir(ctx context.Context, rel string) error
	// WriteFile stores data at rel, replacing any previous content.
	WriteFile(ctx context.Context, rel string, data []byte) error
	// Location describes where rel ends up, for reporting.
	Location(rel string) string
}
