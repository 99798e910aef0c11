// SPDX-License-Identifier: MIT
package mirror

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
)

// Job is one download of one repository.
type Job struct {
	ID         string
	Repository string
	StartedAt  time.Time

	mu     sync.Mutex
	status model.JobStatus
	target string
}

// JobInfo is a point-in-time view of a Job.
type JobInfo struct {
	ID         string          `json:"id"`
	Repository string          `json:"repository"`
	Status     model.JobStatus `json:"status"`
	Target     string          `json:"target,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
}

// Status returns the job's current phase.
func (j *Job) Status() model.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Cancelled reports whether the job's status was cleared before settlement.
func (j *Job) Cancelled() bool {
	return !j.Status().IsActive()
}

// Target returns the resolved target, empty before resolution.
func (j *Job) Target() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.target
}

// advance moves the job to status unless it has been cancelled.
func (j *Job) advance(status model.JobStatus) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.IsActive() {
		return false
	}
	j.status = status
	return true
}

func (j *Job) setTarget(target string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.target = target
}

func (j *Job) clear() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	was := j.status.IsActive()
	j.status = model.StatusIdle
	return was
}

func (j *Job) info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobInfo{ID: j.ID, Repository: j.Repository, Status: j.status, Target: j.target, StartedAt: j.StartedAt}
}

// Jobs tracks at most one active job per repository.
type Jobs struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewJobs returns an empty job registry.
func NewJobs() *Jobs {
	return &Jobs{jobs: make(map[string]*Job)}
}

// Start registers a new job for name in the discovering phase.
func (js *Jobs) Start(name string) (*Job, error) {
	key := registry.NormalizeName(name)
	js.mu.Lock()
	defer js.mu.Unlock()
	if existing, ok := js.jobs[key]; ok && existing.Status().IsActive() {
		return nil, ErrJobActive
	}
	job := &Job{
		ID:         uuid.NewString(),
		Repository: key,
		StartedAt:  time.Now(),
		status:     model.StatusDiscovering,
	}
	js.jobs[key] = job
	return job, nil
}

// Status returns the phase of the job for name, idle when there is none.
func (js *Jobs) Status(name string) model.JobStatus {
	js.mu.Lock()
	job, ok := js.jobs[registry.NormalizeName(name)]
	js.mu.Unlock()
	if !ok {
		return model.StatusIdle
	}
	return job.Status()
}

// Cancel clears the status of the job for name. The job stops dispatching
// new work and settles on its next completion check. It reports whether an
// active job was found.
func (js *Jobs) Cancel(name string) bool {
	js.mu.Lock()
	job, ok := js.jobs[registry.NormalizeName(name)]
	js.mu.Unlock()
	if !ok {
		return false
	}
	return job.clear()
}

// CancelAll cancels every active job and returns how many were active.
func (js *Jobs) CancelAll() int {
	js.mu.Lock()
	jobs := make([]*Job, 0, len(js.jobs))
	for _, job := range js.jobs {
		jobs = append(jobs, job)
	}
	js.mu.Unlock()
	n := 0
	for _, job := range jobs {
		if job.clear() {
			n++
		}
	}
	return n
}

// Active lists active jobs ordered by repository name.
func (js *Jobs) Active() []JobInfo {
	js.mu.Lock()
	out := make([]JobInfo, 0, len(js.jobs))
	for _, job := range js.jobs {
		if info := job.info(); info.Status.IsActive() {
			out = append(out, info)
		}
	}
	js.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Repository < out[j].Repository })
	return out
}

// finish resets the job to idle and drops it from the registry. A newer job
// started for the same repository after a cancel is left in place.
func (js *Jobs) finish(job *Job) {
	job.clear()
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.jobs[job.Repository] == job {
		delete(js.jobs, job.Repository)
	}
}
