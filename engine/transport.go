package engine

import "go-beatclock/debug"

// TransportState is the playback state machine: Stopped -> Playing ->
// {Paused, Stopped}, Paused -> {Playing, Stopped}.
type TransportState int

const (
	Stopped TransportState = iota
	Playing
	Paused
)

func (ts TransportState) String() string {
	switch ts {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Position reports the transport location for UIs
type Position struct {
	Bar   int // bars completed since play
	Beat  int // quarter note within the bar, 0-based
	Step  int // step within the bar, 0-based
	Time  float64
	Tempo float64
	State TransportState
}

// Play starts playback from a fresh cursor, or resumes from Paused at the
// exact phase the pattern was paused at. No-op while already Playing.
//
// If the backend is not ready (no clock access yet), the request is deferred:
// the tick source runs and the first pass that sees a ready backend begins
// playback from a fresh cursor.
func (s *Scheduler) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Playing:
		return

	case Paused:
		now := s.clock.Now()
		// Shift forward by exactly the pause duration so the resumed
		// pattern keeps its phase.
		s.nextEventTime += now - s.pausedAt
		s.pausedAt = 0
		s.state = Playing
		s.tick.Start(s.interval)
		s.dispatch.emit(Notification{Name: "play", Step: s.currentStep, At: s.nextEventTime, Tempo: s.tempo})
		debug.Log("transport", "resumed at step=%d next=%.4f", s.currentStep, s.nextEventTime)

	case Stopped:
		if !s.backend.Ready() {
			s.deferredPlay = true
			s.tick.Start(s.interval)
			debug.Log("transport", "backend not ready, play deferred")
			return
		}
		s.beginPlayback(s.clock.Now())
	}
}

// beginPlayback arms a fresh cursor. Caller holds mu.
func (s *Scheduler) beginPlayback(now float64) {
	s.currentStep = 0
	s.bar = 0
	s.nextEventTime = now + startSafety
	s.state = Playing
	s.tick.Start(s.interval)
	s.dispatch.emit(Notification{Name: "play", Step: 0, At: s.nextEventTime, Tempo: s.tempo})
	debug.Log("transport", "play: next=%.4f tempo=%.1f", s.nextEventTime, s.tempo)
}

// Pause halts the tick source and freezes the cursor verbatim for resume
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Playing {
		return
	}
	s.pausedAt = s.clock.Now()
	s.tick.Stop()
	s.lastTickAt = -1
	s.state = Paused
	s.dispatch.emit(Notification{Name: "pause", Step: s.currentStep, At: s.pausedAt, Tempo: s.tempo})
	debug.Log("transport", "paused at %.4f step=%d", s.pausedAt, s.currentStep)
}

// Stop halts the tick source, resets the cursor, clears the pending ring and
// tells the backend to drop events that have not sounded yet. Safe to call in
// any state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.state != Stopped || s.deferredPlay
	s.tick.Stop()
	s.currentStep = 0
	s.bar = 0
	s.nextEventTime = 0
	s.pausedAt = 0
	s.deferredPlay = false
	s.pending = s.pending[:0]
	s.lastDispatch = 0
	s.lastTickAt = -1
	s.state = Stopped
	s.backend.CancelPending()
	if wasActive {
		s.dispatch.emit(Notification{Name: "stop", Tempo: s.tempo})
		debug.Log("transport", "stopped")
	}
}

// SetTempo clamps the tempo to [30,300] BPM. While playing, the elapsed
// fraction of the pending step under the old tempo is preserved as the same
// fraction of the new step duration, so the pattern neither jumps nor
// restarts the bar.
func (s *Scheduler) SetTempo(bpm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bpm = ClampTempo(bpm)
	if bpm == s.tempo {
		return
	}

	if s.state == Playing {
		now := s.clock.Now()
		oldSpp := SecondsPerStep(s.tempo, s.subdivision)
		newSpp := SecondsPerStep(bpm, s.subdivision)
		rem := s.nextEventTime - now
		if rem > 0 {
			next := now + rem*(newSpp/oldSpp)
			// Never land behind a step that already went out, or a
			// tempo jump could dispatch out of order.
			if s.lastDispatch > 0 && next < s.lastDispatch+newSpp {
				next = s.lastDispatch + newSpp
			}
			s.nextEventTime = next
		}
		// rem <= 0 means the pending step is already due; it keeps its
		// time and fires on the next pass.
	}

	s.tempo = bpm
	s.dispatch.emit(Notification{Name: "tempo", Step: s.currentStep, Tempo: bpm})
	debug.Log("transport", "tempo=%.1f", bpm)
}

// Seek jumps the cursor to the given step (wrapped into the bar), clears the
// pending ring and re-arms the next event just past now.
func (s *Scheduler) Seek(step int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step = ((step % s.subdivision) + s.subdivision) % s.subdivision
	s.pending = s.pending[:0]
	s.currentStep = step
	s.nextEventTime = s.clock.Now() + startSafety
	if s.state == Paused {
		// The cursor is fresh; resume must not shift it by the time
		// spent paused before the seek.
		s.pausedAt = s.clock.Now()
	}
	debug.Log("transport", "seek: step=%d next=%.4f", step, s.nextEventTime)
}

// State returns the current transport state
func (s *Scheduler) State() TransportState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tempo returns the current tempo in BPM
func (s *Scheduler) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempo
}

// Subdivision returns the configured steps per bar
func (s *Scheduler) Subdivision() int {
	return s.subdivision
}

// Position reports the transport location for UIs
func (s *Scheduler) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Position{
		Bar:   s.bar,
		Beat:  s.currentStep * 4 / s.subdivision,
		Step:  s.currentStep,
		Time:  s.nextEventTime,
		Tempo: s.tempo,
		State: s.state,
	}
}
