package audio

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"go-beatclock/debug"
	"go-beatclock/engine"
)

const sampleRate = 44100

// Engine is the built-in audition backend: short synthesized percussion
// voices played through the default speaker. Used when no MIDI port is
// configured so the scheduler is audible out of the box.
type Engine struct {
	clock engine.Clock
	sr    beep.SampleRate

	mu      sync.Mutex
	timers  map[int]*time.Timer
	timerID int
	ready   bool
}

// NewEngine initializes the speaker and returns a ready backend
func NewEngine(clock engine.Clock) (*Engine, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/20)); err != nil {
		return nil, err
	}
	return &Engine{
		clock:  clock,
		sr:     sr,
		timers: make(map[int]*time.Timer),
		ready:  true,
	}, nil
}

// Ready reports whether the speaker accepted initialization
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// ScheduleAt arms the voice to start at the absolute clock time
func (e *Engine) ScheduleAt(at float64, ev engine.Event) error {
	if ev.Kind == engine.KindParameter {
		return nil // nothing to automate on the audition voices
	}

	delay := time.Duration((at - e.clock.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}

	e.mu.Lock()
	e.timerID++
	id := e.timerID
	e.timers[id] = time.AfterFunc(delay, func() {
		speaker.Play(voiceFor(ev))
		e.mu.Lock()
		delete(e.timers, id)
		e.mu.Unlock()
	})
	e.mu.Unlock()
	return nil
}

// CancelPending drops voices that have not started sounding yet. Voices
// already playing are sub-100ms one-shots and are left to ring out.
func (e *Engine) CancelPending() {
	e.mu.Lock()
	n := len(e.timers)
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.mu.Unlock()
	if n > 0 {
		debug.Log("audio", "cancelled %d pending voices", n)
	}
}

// Close stops pending voices and marks the backend unavailable
func (e *Engine) Close() {
	e.CancelPending()
	e.mu.Lock()
	e.ready = false
	e.mu.Unlock()
}

// voiceFor synthesizes a one-shot percussion streamer for a drum slot
func voiceFor(ev engine.Event) beep.Streamer {
	gain := float64(ev.Velocity) / 127.0
	switch ev.Voice {
	case 0: // kick: pitch sweep 150->50 Hz
		return sweep(150, 50, 0.15, gain)
	case 1: // snare: tone plus noise burst
		return mix2(tone(190, 0.08, gain*0.5), noise(0.12, gain*0.6))
	case 2: // closed hat
		return noise(0.03, gain*0.4)
	case 3: // open hat
		return noise(0.22, gain*0.4)
	case 7, 8: // crash, ride
		return noise(0.5, gain*0.3)
	case 9: // clap
		return noise(0.09, gain*0.5)
	default: // toms and percussion: pitched by slot
		freq := 300 - 15*float64(ev.Voice)
		return tone(freq, 0.12, gain*0.6)
	}
}

// oneShot renders gen(t) for dur seconds with an exponential decay envelope
type oneShot struct {
	gen  func(t float64) float64
	n    int
	dur  int
	gain float64
}

func (o *oneShot) Stream(samples [][2]float64) (int, bool) {
	if o.n >= o.dur {
		return 0, false
	}
	i := 0
	for ; i < len(samples) && o.n < o.dur; i++ {
		t := float64(o.n) / sampleRate
		env := math.Exp(-6 * float64(o.n) / float64(o.dur))
		v := o.gen(t) * env * o.gain
		samples[i][0] = v
		samples[i][1] = v
		o.n++
	}
	return i, true
}

func (o *oneShot) Err() error { return nil }

func tone(freq, dur, gain float64) beep.Streamer {
	return &oneShot{
		gen:  func(t float64) float64 { return math.Sin(2 * math.Pi * freq * t) },
		dur:  int(dur * sampleRate),
		gain: gain,
	}
}

func sweep(from, to, dur, gain float64) beep.Streamer {
	return &oneShot{
		gen: func(t float64) float64 {
			f := from + (to-from)*(t/dur)
			return math.Sin(2 * math.Pi * f * t)
		},
		dur:  int(dur * sampleRate),
		gain: gain,
	}
}

func noise(dur, gain float64) beep.Streamer {
	return &oneShot{
		gen:  func(t float64) float64 { return rand.Float64()*2 - 1 },
		dur:  int(dur * sampleRate),
		gain: gain,
	}
}

func mix2(a, b beep.Streamer) beep.Streamer {
	return beep.Mix(a, b)
}
