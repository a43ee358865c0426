package engine

// EventKind classifies a pattern event descriptor
type EventKind int

const (
	KindDrum EventKind = iota
	KindSample
	KindParameter
)

// Event is one typed trigger bound to a pattern step
type Event struct {
	Kind     EventKind
	Voice    int   // drum slot or sample voice index
	Velocity uint8 // 1-127
	Param    string
	Value    float64 // parameter automation value (KindParameter)
}

// PatternProvider supplies the events bound to each step of the grid.
// Implementations are called from the scheduling pass and must not do I/O.
type PatternProvider interface {
	EventsForStep(step int) []Event
}

// Backend receives triggers stamped with absolute clock times. ScheduleAt is
// called from the scheduling pass and must not block; the backend plays the
// event at the given time regardless of when the call executes.
//
// Ready reports whether the backend can currently accept events (e.g. the
// output port is open). CancelPending drops events that were scheduled but
// have not sounded yet; the scheduler calls it on Stop.
type Backend interface {
	Ready() bool
	ScheduleAt(at float64, ev Event) error
	CancelPending()
}

// Notification is delivered to observers registered with On. Name is one of
// "step", "bar", "play", "pause", "stop", "tempo".
type Notification struct {
	Name  string
	Step  int
	At    float64 // absolute clock time the event refers to
	Tempo float64
}

// PendingEntry records a recently scheduled (step, time) pair. The scheduler
// retains these briefly so a UI can sync its playhead to the audible output.
type PendingEntry struct {
	Step int
	At   float64
}
