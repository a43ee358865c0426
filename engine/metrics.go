package engine

import "sync"

// MetricsSnapshot is a point-in-time copy of scheduling health counters.
// Counters accumulate for the life of the scheduler; only Reset clears them.
type MetricsSnapshot struct {
	ScheduledCount uint64  // steps handed to the backend
	MissedCount    uint64  // passes at risk of falling behind real time
	ObserverErrors uint64  // observer panics and dropped notifications
	LastLatency    float64 // seconds spent inside the most recent pass
	Jitter         float64 // |actual - nominal| inter-tick interval, seconds
}

// metrics tracks scheduling latency, jitter and missed-event counts so a host
// can tune the lookahead profile.
type metrics struct {
	mu   sync.Mutex
	snap MetricsSnapshot
}

func (m *metrics) recordPass(latency, jitter float64, scheduled int, missed bool) {
	m.mu.Lock()
	m.snap.ScheduledCount += uint64(scheduled)
	m.snap.LastLatency = latency
	m.snap.Jitter = jitter
	if missed {
		m.snap.MissedCount++
	}
	m.mu.Unlock()
}

func (m *metrics) recordMissed() {
	m.mu.Lock()
	m.snap.MissedCount++
	m.mu.Unlock()
}

func (m *metrics) recordObserverError() {
	m.mu.Lock()
	m.snap.ObserverErrors++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters
func (m *metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Reset zeroes all counters
func (m *metrics) Reset() {
	m.mu.Lock()
	m.snap = MetricsSnapshot{}
	m.mu.Unlock()
}
