package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go-beatclock/debug"
)

// Tuning presets. The lookahead window must exceed the worst-case tick
// delivery jitter plus one full tick interval, or events can be handed to the
// backend after they were due.
const (
	DefaultTickInterval = 25 * time.Millisecond
	DefaultLookahead    = 0.100 // seconds

	latencyTickInterval = 10 * time.Millisecond
	latencyLookahead    = 0.050

	stabilityTickInterval = 25 * time.Millisecond
	stabilityLookahead    = 0.200

	// startSafety pads the first event past "now" so it is schedulable
	// rather than already due when the first pass runs.
	startSafety = 0.005

	// pendingRetention keeps recently scheduled steps around briefly for
	// UI playhead sync, then prunes them.
	pendingRetention = 0.100

	DefaultSubdivision = 16
	DefaultTempo       = 120.0
)

// Options configures a Scheduler. Clock, Backend and Patterns are required;
// zero values elsewhere take defaults.
type Options struct {
	Clock        Clock
	Backend      Backend
	Patterns     PatternProvider
	Subdivision  int           // steps per bar, default 16
	Tempo        float64       // BPM, clamped to [30,300], default 120
	TickInterval time.Duration // default 25ms
	Lookahead    float64       // seconds, default 0.1
}

// Scheduler turns a tempo and a pattern grid into absolutely-timed trigger
// events against the shared monotonic clock. On every tick it scans forward
// from a persistent cursor and hands the backend every step whose time falls
// inside the lookahead window.
//
// The cursor (currentStep, nextEventTime) is owned by the scheduling pass;
// transport methods mutate it only under the same mutex, so a pass and a
// transport change never interleave.
type Scheduler struct {
	clock    Clock
	backend  Backend
	patterns PatternProvider

	mu          sync.Mutex
	state       TransportState
	tempo       float64
	subdivision int

	currentStep   int
	nextEventTime float64
	bar           int

	pausedAt     float64
	deferredPlay bool

	lookahead    float64
	interval     time.Duration
	lastTickAt   float64 // clock time of the previous pass, -1 when unknown
	lastDispatch float64 // time of the most recently dispatched step

	pending []PendingEntry

	tick     *tickSource
	dispatch *dispatcher
	metrics  *metrics
	closed   bool
}

// New validates the options and builds a stopped scheduler
func New(opts Options) (*Scheduler, error) {
	if opts.Clock == nil {
		return nil, fmt.Errorf("engine: nil clock")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("engine: nil backend")
	}
	if opts.Patterns == nil {
		return nil, fmt.Errorf("engine: nil pattern provider")
	}
	sub := opts.Subdivision
	if sub == 0 {
		sub = DefaultSubdivision
	}
	if sub < 1 || sub > 256 {
		return nil, fmt.Errorf("engine: invalid subdivision %d (want 1-256)", sub)
	}
	tempo := opts.Tempo
	if tempo == 0 {
		tempo = DefaultTempo
	}
	interval := opts.TickInterval
	if interval == 0 {
		interval = DefaultTickInterval
	}
	lookahead := opts.Lookahead
	if lookahead == 0 {
		lookahead = DefaultLookahead
	}
	if lookahead < 0 {
		return nil, fmt.Errorf("engine: negative lookahead %f", lookahead)
	}

	m := &metrics{}
	s := &Scheduler{
		clock:       opts.Clock,
		backend:     opts.Backend,
		patterns:    opts.Patterns,
		state:       Stopped,
		tempo:       ClampTempo(tempo),
		subdivision: sub,
		lookahead:   lookahead,
		interval:    interval,
		lastTickAt:  -1,
		dispatch:    newDispatcher(m),
		metrics:     m,
	}
	s.tick = newTickSource(s.pass)
	return s, nil
}

// pass is one scheduling scan, invoked once per tick from the tick goroutine.
// It runs zero or more full loop iterations; nextEventTime only ever moves
// forward, so a late tick catches up instead of drifting.
func (s *Scheduler) pass() {
	passStart := time.Now()

	s.mu.Lock()
	now := s.clock.Now()
	nominal := s.interval.Seconds()

	var jitter float64
	if s.lastTickAt >= 0 {
		jitter = math.Abs((now - s.lastTickAt) - nominal)
	}
	s.lastTickAt = now

	// A play request made while the backend had no clock access is promoted
	// to a fresh cursor as soon as the backend comes up.
	if s.deferredPlay && s.backend.Ready() {
		s.deferredPlay = false
		s.beginPlayback(now)
	}

	scheduled := 0
	if s.state == Playing {
		spp := SecondsPerStep(s.tempo, s.subdivision)
		for s.nextEventTime < now+s.lookahead {
			s.dispatchStep(s.currentStep, s.nextEventTime, now)
			scheduled++
			s.nextEventTime += spp
			s.currentStep = (s.currentStep + 1) % s.subdivision
			if s.currentStep == 0 {
				s.bar++
				s.dispatch.emit(Notification{Name: "bar", At: s.nextEventTime, Tempo: s.tempo})
			}
		}
		s.prunePending(now)
	}
	s.mu.Unlock()

	latency := time.Since(passStart).Seconds()
	missed := latency > nominal/2
	s.metrics.recordPass(latency, jitter, scheduled, missed)
	if missed {
		debug.LogEvery(20, "sched", "pass overran: latency=%.4fs nominal=%.3fs", latency, nominal)
	}
}

// dispatchStep hands one step to the backend and observers. Caller holds mu.
func (s *Scheduler) dispatchStep(step int, at, now float64) {
	s.pending = append(s.pending, PendingEntry{Step: step, At: at})
	s.lastDispatch = at

	if at < now {
		// The lookahead window was too small for the tick jitter; the
		// event still goes out, just later than it was due.
		s.metrics.recordMissed()
		debug.LogEvery(20, "sched", "late dispatch: step=%d at=%.4f now=%.4f", step, at, now)
	}

	for _, ev := range s.patterns.EventsForStep(step) {
		if err := s.backend.ScheduleAt(at, ev); err != nil {
			s.metrics.recordMissed()
			debug.Log("sched", "backend refused step %d: %v", step, err)
		}
	}

	s.dispatch.emit(Notification{Name: "step", Step: step, At: at, Tempo: s.tempo})
}

func (s *Scheduler) prunePending(now float64) {
	cutoff := now - pendingRetention
	keep := s.pending[:0]
	for _, p := range s.pending {
		if p.At >= cutoff {
			keep = append(keep, p)
		}
	}
	s.pending = keep
}

// Pending returns a copy of the recently scheduled (step, time) pairs. Meant
// for UI playhead sync, not for correctness decisions.
func (s *Scheduler) Pending() []PendingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PendingEntry(nil), s.pending...)
}

// Metrics returns a snapshot of the scheduling health counters
func (s *Scheduler) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// ResetMetrics zeroes the cumulative counters
func (s *Scheduler) ResetMetrics() {
	s.metrics.Reset()
}

// On registers an observer for the named event ("step", "bar", "play",
// "pause", "stop", "tempo"). Observers run on the dispatch goroutine, never
// on the scheduling pass.
func (s *Scheduler) On(name string, fn func(Notification)) *Subscription {
	return s.dispatch.On(name, fn)
}

// Off removes an observer registered with On
func (s *Scheduler) Off(sub *Subscription) {
	s.dispatch.Off(sub)
}

// OptimizeLatency shrinks the tick interval and lookahead window for tighter
// response at the cost of more wakeups. Adjustable while playing.
func (s *Scheduler) OptimizeLatency() {
	s.setTuning(latencyTickInterval, latencyLookahead)
}

// OptimizeStability widens the tick interval and lookahead window so heavy
// host load is less likely to push events past their due time.
func (s *Scheduler) OptimizeStability() {
	s.setTuning(stabilityTickInterval, stabilityLookahead)
}

func (s *Scheduler) setTuning(interval time.Duration, lookahead float64) {
	s.mu.Lock()
	s.interval = interval
	s.lookahead = lookahead
	s.mu.Unlock()
	s.tick.SetInterval(interval)
	debug.Log("sched", "tuning: interval=%s lookahead=%.3fs", interval, lookahead)
}

// Close stops playback and releases the tick and dispatch goroutines
func (s *Scheduler) Close() {
	s.Stop()
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.dispatch.Close()
	}
	s.mu.Unlock()
}
