// Package model defines the core data types used throughout RepoMirror.
package model

import "time"

// UnknownTarget is recorded as a repository's last target before its first
// successful download.
const UnknownTarget = "unknown"

// Repository is a registered remote repository and its local mirror settings.
type Repository struct {
	// Name is the unique, lowercase registry key.
	Name string `json:"name" yaml:"name"`
	// Owner is the remote account or organization identifier.
	Owner string `json:"owner" yaml:"owner"`
	// Project is the remote project identifier.
	Project string `json:"project" yaml:"project"`
	// DefaultBranch is the unstable target used when unstable targets are preferred.
	DefaultBranch string `json:"default_branch" yaml:"default_branch"`
	// Subdir is an optional prefix for the local mirror directory.
	Subdir string `json:"subdir,omitempty" yaml:"subdir,omitempty"`
	// LastTarget is the last target name written by a crawl, or UnknownTarget.
	LastTarget string `json:"last_target" yaml:"last_target"`
	// Exclude holds glob patterns skipped while crawling this repository.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// AddedAt is when the repository was registered.
	AddedAt time.Time `json:"added_at,omitempty" yaml:"added_at,omitempty"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TargetKind discriminates release tags from branches.
type TargetKind string

const (
	TargetRelease TargetKind = "release"
	TargetBranch  TargetKind = "branch"
)

// Placeholder fills best-effort Target fields that were not scraped.
const Placeholder = "-"

// Target is a named, resolvable snapshot of a repository.
type Target struct {
	Name   string     `json:"name" yaml:"name"`
	Kind   TargetKind `json:"kind" yaml:"kind"`
	Date   string     `json:"date" yaml:"date"`
	Commit string     `json:"commit" yaml:"commit"`
}

// NewTarget returns a Target with placeholder date and commit.
func NewTarget(name string, kind TargetKind) Target {
	return Target{Name: name, Kind: kind, Date: Placeholder, Commit: Placeholder}
}

// EntryKind discriminates directories from files in a tree listing.
type EntryKind string

const (
	EntryDir  EntryKind = "dir"
	EntryFile EntryKind = "file"
)

// TreeEntry is one file or directory discovered while crawling a target.
type TreeEntry struct {
	Kind EntryKind `json:"kind" yaml:"kind"`
	// Path is slash-separated and relative to the target root.
	Path string `json:"path" yaml:"path"`
}

// JobStatus is the phase of a repository download.
type JobStatus string

const (
	StatusIdle        JobStatus = "idle"
	StatusDiscovering JobStatus = "discovering"
	StatusResolving   JobStatus = "resolving"
	StatusCrawling    JobStatus = "crawling"
)

// IsActive reports whether the status belongs to a running job.
func (s JobStatus) IsActive() bool {
	return s == StatusDiscovering || s == StatusResolving || s == StatusCrawling
}

// FileResult records the outcome of a single file download.
type FileResult struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	URL        string `json:"url"`
	LocalPath  string `json:"local_path,omitempty"`
	StatusCode int    `json:"status_code"`
	Bytes      int64  `json:"bytes"`
	// Error is empty when the file was written.
	Error string `json:"error,omitempty"`
	// ErrorClass is a coarse category for Error.
	ErrorClass string `json:"error_class,omitempty"`
}

// OK reports whether the file was written.
func (r FileResult) OK() bool { return r.Error == "" }

// Summary is the settlement report of one crawl job.
type Summary struct {
	JobID       string `json:"job_id"`
	Repository  string `json:"repository"`
	Target      string `json:"target"`
	Directories int    `json:"directories"`
	Files       int    `json:"files"`
	// Failed counts listing and file fetches that did not succeed.
	Failed     int       `json:"failed"`
	Bytes      int64     `json:"bytes"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Fetches is the number of settled listing and file fetches.
func (s Summary) Fetches() int {
	return s.Directories + s.Files + s.Failed
}
