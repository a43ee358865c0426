package engine

import "testing"

func TestMetricsAccumulate(t *testing.T) {
	m := &metrics{}

	m.recordPass(0.002, 0.001, 3, false)
	m.recordPass(0.020, 0.004, 2, true)
	m.recordMissed()
	m.recordObserverError()

	snap := m.Snapshot()
	if snap.ScheduledCount != 5 {
		t.Errorf("ScheduledCount = %d, want 5", snap.ScheduledCount)
	}
	if snap.MissedCount != 2 {
		t.Errorf("MissedCount = %d, want 2", snap.MissedCount)
	}
	if snap.ObserverErrors != 1 {
		t.Errorf("ObserverErrors = %d, want 1", snap.ObserverErrors)
	}
	if snap.LastLatency != 0.020 {
		t.Errorf("LastLatency = %v, want most recent pass latency", snap.LastLatency)
	}
	if snap.Jitter != 0.004 {
		t.Errorf("Jitter = %v, want most recent jitter", snap.Jitter)
	}
}

func TestMetricsReset(t *testing.T) {
	m := &metrics{}
	m.recordPass(0.002, 0.001, 3, true)
	m.recordObserverError()

	m.Reset()
	if snap := m.Snapshot(); snap != (MetricsSnapshot{}) {
		t.Errorf("snapshot after Reset = %+v, want zero", snap)
	}
}

func TestSchedulerResetMetrics(t *testing.T) {
	s, clock, _ := newTestScheduler(t, Options{Tempo: 120, Subdivision: 16})

	clock.set(0)
	s.Play()
	for tm := 0.0; tm <= 0.5; tm += 0.025 {
		clock.set(tm)
		s.pass()
	}
	if s.Metrics().ScheduledCount == 0 {
		t.Fatal("nothing scheduled")
	}

	s.ResetMetrics()
	if got := s.Metrics().ScheduledCount; got != 0 {
		t.Errorf("ScheduledCount after reset = %d, want 0", got)
	}
}
