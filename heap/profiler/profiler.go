// Package profiler is the heap collector's passive event recorder. The
// heap and collector call Record at defined points; Profiler appends to an
// in-memory log and, on Dispose, serializes it to a trace file.
//
// Profiler holds no reference back to the heap: it is handed to the heap as
// a collaborator at init time, per the cyclic-collaboration note in the
// design docs, and is drained before the heap releases its own state.
package profiler

// Profiler is a passive event recorder. It is safe to use a nil *Profiler:
// all methods are no-ops, so a heap built without profiling pays nothing
// beyond a nil check.
type Profiler struct {
	enabled   bool
	logFolder string
	events    []Event
}

// New constructs a Profiler. enabled gates whether Record does anything;
// logFolder is where Dispose writes its trace file.
func New(logFolder string, enabled bool) *Profiler {
	return &Profiler{enabled: enabled, logFolder: logFolder}
}

// Enabled reports whether this profiler currently records events.
func (p *Profiler) Enabled() bool {
	return p != nil && p.enabled
}

// SetEnabled toggles recording. Disabling does not discard already
// recorded events.
func (p *Profiler) SetEnabled(on bool) {
	if p == nil {
		return
	}
	p.enabled = on
}

// Record appends an event to the in-memory log. A no-op on a nil or
// disabled profiler, the inlinable branch the design calls for.
func (p *Profiler) Record(e Event) {
	if p == nil || !p.enabled {
		return
	}
	p.events = append(p.events, e)
}

// Events returns a snapshot of the recorded log, for tests.
func (p *Profiler) Events() []Event {
	if p == nil {
		return nil
	}
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Dispose writes the event log to a trace file under logFolder, flushes,
// closes, and discards the in-memory log. A no-op on a nil profiler or one
// with no recorded events.
func (p *Profiler) Dispose() (path string, err error) {
	if p == nil || len(p.events) == 0 {
		return "", nil
	}
	path, err = writeTrace(p.logFolder, p.events)
	p.events = nil
	return path, err
}
