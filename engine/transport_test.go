package engine

import (
	"math"
	"testing"
)

func approx(t *testing.T, what string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %.6f, want %.6f", what, got, want)
	}
}

// Scenario C: pausing for 2.0s shifts every future event time by exactly 2.0s
// and the step counter stays where it was.
func TestPauseResumeShiftsPhase(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.3; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}

	clock.set(0.31)
	s.Pause()
	if s.State() != Paused {
		t.Fatalf("state after Pause = %v, want paused", s.State())
	}

	s.mu.Lock()
	nextBefore, stepBefore := s.nextEventTime, s.currentStep
	s.mu.Unlock()

	clock.set(2.31)
	s.Play()
	if s.State() != Playing {
		t.Fatalf("state after resume = %v, want playing", s.State())
	}

	s.mu.Lock()
	nextAfter, stepAfter := s.nextEventTime, s.currentStep
	s.mu.Unlock()

	approx(t, "resume shift", nextAfter-nextBefore, 2.0)
	if stepAfter != stepBefore {
		t.Errorf("step changed across pause: %d -> %d", stepBefore, stepAfter)
	}
}

func TestPlayWhilePlayingIsNoOp(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.3; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}

	s.mu.Lock()
	next, step := s.nextEventTime, s.currentStep
	s.mu.Unlock()

	s.Play()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextEventTime != next || s.currentStep != step {
		t.Errorf("Play while playing moved the cursor: (%d, %.4f) -> (%d, %.4f)",
			step, next, s.currentStep, s.nextEventTime)
	}
}

func TestPauseWhileStoppedIsNoOp(t *testing.T) {
	s, _, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})
	s.Pause()
	if s.State() != Stopped {
		t.Errorf("Pause from stopped moved state to %v", s.State())
	}
}

func TestStopResetsEverything(t *testing.T) {
	s, clock, backend := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.5; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}
	if len(s.Pending()) == 0 {
		t.Fatal("nothing pending before Stop")
	}

	s.Stop()

	if s.State() != Stopped {
		t.Errorf("state = %v, want stopped", s.State())
	}
	if p := s.Position(); p.Step != 0 || p.Bar != 0 {
		t.Errorf("position after Stop = step %d bar %d, want 0/0", p.Step, p.Bar)
	}
	if len(s.Pending()) != 0 {
		t.Errorf("pending not cleared: %d entries", len(s.Pending()))
	}
	backend.mu.Lock()
	cancelled := backend.cancelled
	backend.mu.Unlock()
	if cancelled == 0 {
		t.Error("Stop did not cancel pending backend events")
	}

	// Play after Stop starts from step 0 again
	clock.set(1.0)
	s.Play()
	s.pass()
	events := backend.recorded()
	if last := events[len(events)-1]; last.ev.Voice > 3 {
		t.Errorf("replay did not restart from step 0, first window ends at step %d", last.ev.Voice)
	}
}

// A tempo change mid-step keeps the elapsed fraction of the pending step:
// played 0.08 into a 0.125s step (next at 0.130) then doubling the tempo puts
// the next event at 0.08 + 0.05*(0.0625/0.125) = 0.105.
func TestSetTempoPreservesPhase(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	s.pass() // dispatches step 0 at 0.005, cursor moves to 0.130

	s.mu.Lock()
	next := s.nextEventTime
	s.mu.Unlock()
	approx(t, "cursor before tempo change", next, 0.130)

	clock.set(0.08)
	s.SetTempo(240)

	s.mu.Lock()
	next = s.nextEventTime
	s.mu.Unlock()
	approx(t, "cursor after tempo change", next, 0.105)
	if got := s.Tempo(); got != 240 {
		t.Errorf("tempo = %v, want 240", got)
	}
}

func TestSetTempoNeverReordersDispatch(t *testing.T) {
	s, clock, backend := newTestScheduler(t, Options{Tempo: 30, Subdivision: 16})

	clock.set(0)
	s.Play()
	s.pass() // step 0 at 0.005, spp = 0.5, cursor at 0.505

	// A jump to max tempo shrinks the remainder hard; the floor keeps the
	// next event one new step after the last dispatched one.
	clock.set(0.01)
	s.SetTempo(300)

	s.mu.Lock()
	next, last := s.nextEventTime, s.lastDispatch
	s.mu.Unlock()
	newSpp := SecondsPerStep(300, 16)
	if next < last+newSpp-1e-9 {
		t.Errorf("cursor %.6f landed before lastDispatch+step %.6f", next, last+newSpp)
	}

	for tm := 0.01; tm <= 0.5; tm += 0.01 {
		clock.set(tm)
		s.pass()
	}
	events := backend.recorded()
	for i := 1; i < len(events); i++ {
		if events[i].at <= events[i-1].at {
			t.Fatalf("tempo jump reordered events: %.6f then %.6f", events[i-1].at, events[i].at)
		}
	}
}

func TestSetTempoClamps(t *testing.T) {
	s, _, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	s.SetTempo(1000)
	if got := s.Tempo(); got != MaxTempo {
		t.Errorf("tempo = %v, want clamped to %v", got, MaxTempo)
	}
	s.SetTempo(1)
	if got := s.Tempo(); got != MinTempo {
		t.Errorf("tempo = %v, want clamped to %v", got, MinTempo)
	}
}

func TestDeferredPlayWaitsForBackend(t *testing.T) {
	s, clock, backend := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})
	backend.setReady(false)

	clock.set(0)
	s.Play()
	if s.State() != Stopped {
		t.Fatalf("state = %v, want stopped while backend is down", s.State())
	}

	clock.set(0.5)
	s.pass()
	if len(backend.recorded()) != 0 {
		t.Fatal("events scheduled against a backend that is not ready")
	}

	backend.setReady(true)
	clock.set(1.0)
	s.pass()

	if s.State() != Playing {
		t.Fatalf("state = %v, want playing after backend came up", s.State())
	}
	events := backend.recorded()
	if len(events) == 0 {
		t.Fatal("no events after deferred start")
	}
	approx(t, "deferred start time", events[0].at, 1.0+startSafety)
	if events[0].ev.Voice != 0 {
		t.Errorf("deferred start began at step %d, want 0", events[0].ev.Voice)
	}
}

func TestSeekJumpsCursor(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.5+1e-9; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}

	s.Seek(5)

	if len(s.Pending()) != 0 {
		t.Error("Seek did not clear the pending ring")
	}
	s.mu.Lock()
	step, next := s.currentStep, s.nextEventTime
	s.mu.Unlock()
	if step != 5 {
		t.Errorf("step = %d, want 5", step)
	}
	approx(t, "seek re-arm", next, 0.5+startSafety)

	// Wrapping: -1 lands on the last step
	s.Seek(-1)
	s.mu.Lock()
	step = s.currentStep
	s.mu.Unlock()
	if step != 15 {
		t.Errorf("Seek(-1) step = %d, want 15", step)
	}
}

// Seeking while paused re-arms the cursor at now, so the resume shift must
// not re-add the time spent paused before the seek.
func TestSeekWhilePausedThenResume(t *testing.T) {
	s, clock, backend := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.3; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}
	clock.set(0.3)
	s.Pause()

	// Ten seconds later the user seeks, then resumes shortly after
	clock.set(10.3)
	s.Seek(4)
	clock.set(10.4)
	s.Play()

	s.mu.Lock()
	next, step := s.nextEventTime, s.currentStep
	s.mu.Unlock()
	if step != 4 {
		t.Errorf("step = %d, want 4", step)
	}
	// Seek armed 10.305; resume shifts by the 0.1s since the seek, not by
	// the 10s the transport sat paused before it.
	approx(t, "resume after paused seek", next, 10.405)

	s.pass()
	events := backend.recorded()
	first := events[len(events)-1]
	if first.ev.Voice != 4 {
		t.Errorf("first resumed step = %d, want 4", first.ev.Voice)
	}
	if first.at > 10.5 {
		t.Errorf("first resumed event at %.3f, want near resume time (silent gap)", first.at)
	}
}

// Pause and Stop forget the previous tick time, so the idle gap never shows
// up as one giant jitter sample on the first pass after a restart.
func TestIdleGapNotCountedAsJitter(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	s.pass()

	clock.set(0.3)
	s.Pause()
	s.mu.Lock()
	last := s.lastTickAt
	s.mu.Unlock()
	if last != -1 {
		t.Errorf("lastTickAt after Pause = %v, want -1", last)
	}

	clock.set(10.3)
	s.Play()
	s.pass()
	if j := s.Metrics().Jitter; j != 0 {
		t.Errorf("first pass after resume recorded jitter %.3fs, want 0", j)
	}

	s.Stop()
	s.mu.Lock()
	last = s.lastTickAt
	s.mu.Unlock()
	if last != -1 {
		t.Errorf("lastTickAt after Stop = %v, want -1", last)
	}
}

func TestPositionBeatDerivation(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	s.Seek(6)
	if p := s.Position(); p.Beat != 1 {
		t.Errorf("beat at step 6 of 16 = %d, want 1", p.Beat)
	}
	s.Seek(12)
	if p := s.Position(); p.Beat != 3 {
		t.Errorf("beat at step 12 of 16 = %d, want 3", p.Beat)
	}
}
