package pattern

import (
	"sync"

	"go-beatclock/engine"
)

const (
	NumSlots    = 16 // voice rows per pattern
	NumPatterns = 16
	MaxSteps    = 16 // steps per bar, matches the engine subdivision
)

// Step is one slot in the grid
type Step struct {
	Active   bool  `json:"active"`
	Velocity uint8 `json:"velocity"`
}

// Row is the step sequence for one voice. Length may be shorter than the
// bar; the row then repeats within it (position = barStep % Length).
type Row struct {
	Steps  [MaxSteps]Step `json:"steps"`
	Length int            `json:"length"`
}

// Pattern is one bar of the grid: 16 voices by up to 16 steps
type Pattern struct {
	Rows [NumSlots]Row `json:"rows"`
}

// HasContent reports whether any step in the pattern is active
func (p *Pattern) HasContent() bool {
	for r := range p.Rows {
		row := &p.Rows[r]
		for s := 0; s < row.Length; s++ {
			if row.Steps[s].Active {
				return true
			}
		}
	}
	return false
}

// Bank holds the pattern set and implements engine.PatternProvider. Pattern
// switches requested while playing take effect at the next bar boundary
// (step 0), the way clip launchers queue clips.
type Bank struct {
	mu       sync.RWMutex
	patterns [NumPatterns]Pattern
	current  int
	next     int // -1 when nothing queued
}

// NewBank creates a bank of empty patterns
func NewBank() *Bank {
	b := &Bank{next: -1}
	for p := range b.patterns {
		for r := range b.patterns[p].Rows {
			row := &b.patterns[p].Rows[r]
			row.Length = MaxSteps
			for s := range row.Steps {
				row.Steps[s] = Step{Velocity: 100}
			}
		}
	}
	return b
}

// EventsForStep returns the drum events bound to a step of the current
// pattern. Called from the scheduling pass; no I/O, no blocking.
func (b *Bank) EventsForStep(step int) []engine.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Queued pattern switch lands on the bar boundary
	if step == 0 && b.next >= 0 {
		b.current = b.next
		b.next = -1
	}

	pat := &b.patterns[b.current]
	var events []engine.Event
	for r := range pat.Rows {
		row := &pat.Rows[r]
		if row.Length < 1 {
			continue
		}
		st := row.Steps[step%row.Length]
		if st.Active {
			events = append(events, engine.Event{
				Kind:     engine.KindDrum,
				Voice:    r,
				Velocity: st.Velocity,
			})
		}
	}
	return events
}

// QueuePattern queues a pattern switch for the next bar boundary. Out of
// range ids are ignored.
func (b *Bank) QueuePattern(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id >= 0 && id < NumPatterns {
		if id == b.current {
			b.next = -1
			return
		}
		b.next = id
	}
}

// Current returns the playing pattern and the queued one (-1 if none)
func (b *Bank) Current() (current, next int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.next
}

// ToggleStep flips a step of the current editing target
func (b *Bank) ToggleStep(pat, row, step int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pat < 0 || pat >= NumPatterns || row < 0 || row >= NumSlots {
		return
	}
	r := &b.patterns[pat].Rows[row]
	if step < 0 || step >= r.Length {
		return
	}
	r.Steps[step].Active = !r.Steps[step].Active
}

// SetVelocity sets a step's velocity, clamped to 1-127
func (b *Bank) SetVelocity(pat, row, step int, vel int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pat < 0 || pat >= NumPatterns || row < 0 || row >= NumSlots {
		return
	}
	r := &b.patterns[pat].Rows[row]
	if step < 0 || step >= r.Length {
		return
	}
	if vel < 1 {
		vel = 1
	}
	if vel > 127 {
		vel = 127
	}
	r.Steps[step].Velocity = uint8(vel)
}

// SetRowLength resizes a row within 1..MaxSteps
func (b *Bank) SetRowLength(pat, row, length int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pat < 0 || pat >= NumPatterns || row < 0 || row >= NumSlots {
		return
	}
	if length < 1 {
		length = 1
	}
	if length > MaxSteps {
		length = MaxSteps
	}
	b.patterns[pat].Rows[row].Length = length
}

// Snapshot returns a copy of a pattern for rendering
func (b *Bank) Snapshot(pat int) Pattern {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if pat < 0 || pat >= NumPatterns {
		return Pattern{}
	}
	return b.patterns[pat]
}

// ContentMask reports which patterns have at least one active step
func (b *Bank) ContentMask() []bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	mask := make([]bool, NumPatterns)
	for i := range b.patterns {
		mask[i] = b.patterns[i].HasContent()
	}
	return mask
}
