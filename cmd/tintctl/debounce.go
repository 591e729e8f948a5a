package main

// defaultDebounceTicks is the number of quiet ticks after the last edit
// before the edit buffer is committed.
const defaultDebounceTicks = 3

// DebounceEngine batches edits into at most one commit per quiet window.
//
// It is a plain value so the reducer can copy it along with the rest of the
// session state. Idle is pending == false; Pending(c) is pending == true with
// counter == c.
type DebounceEngine struct {
	Ticks   int
	pending bool
	counter int
}

// NewDebounceEngine returns an idle engine that fires after ticks quiet
// ticks. Values below 1 fall back to the default.
func NewDebounceEngine(ticks int) DebounceEngine {
	if ticks < 1 {
		ticks = defaultDebounceTicks
	}
	return DebounceEngine{Ticks: ticks}
}

// Pending reports whether an edit is waiting to be committed.
func (d DebounceEngine) Pending() bool { return d.pending }

// Counter is the number of quiet ticks observed since the last edit.
func (d DebounceEngine) Counter() int { return d.counter }

// Mark records an edit, restarting the quiet window.
func (d *DebounceEngine) Mark() {
	d.pending = true
	d.counter = 0
}

// Step advances one tick and reports whether a commit is due now. After a
// due commit the engine is idle, whatever the commit's outcome.
func (d *DebounceEngine) Step() bool {
	if !d.pending {
		return false
	}
	if d.counter+1 < d.Ticks {
		d.counter++
		return false
	}
	d.Reset()
	return true
}

// Flush reports whether a commit is owed and forces the engine idle. Used
// by explicit apply-now actions and by teardown.
func (d *DebounceEngine) Flush() bool {
	owed := d.pending
	d.Reset()
	return owed
}

// Reset forces the engine idle without committing.
func (d *DebounceEngine) Reset() {
	d.pending = false
	d.counter = 0
}
