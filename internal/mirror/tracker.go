package mirror

import "sync/atomic"

// Tracker counts outstanding units of work for one job. A unit begins when
// it is accepted into the job and is done once its continuation has run, so
// the count only reaches zero when nothing is queued or in flight.
type Tracker struct {
	outstanding atomic.Int64
	settled     atomic.Bool
}

// Begin records one accepted unit of work.
func (t *Tracker) Begin() { t.outstanding.Add(1) }

// Done records one finished unit of work.
func (t *Tracker) Done() {
	if t.outstanding.Add(-1) < 0 {
		panic("mirror: tracker Done called more times than Begin")
	}
}

// Outstanding returns the number of unfinished units.
func (t *Tracker) Outstanding() int64 { return t.outstanding.Load() }

// Settled reports whether the job has settled.
func (t *Tracker) Settled() bool { return t.settled.Load() }

// settle marks the tracker settled and reports whether this call did it.
func (t *Tracker) settle() bool { return t.settled.CompareAndSwap(false, true) }
