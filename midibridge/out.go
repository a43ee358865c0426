package midibridge

import (
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-beatclock/debug"
	"go-beatclock/engine"
	"go-beatclock/pattern"
)

// noteGate is how long a drum trigger stays on before the note-off
const noteGate = 50 * time.Millisecond

// Out is an engine.Backend that sends events to a MIDI output port at their
// absolute clock times. Each ScheduleAt arms a timer for the remaining delay;
// the scheduling pass never waits on the port.
type Out struct {
	clock    engine.Clock
	portName string
	channel  uint8 // 0-15 on the wire
	kit      pattern.DrumKit

	mu      sync.Mutex
	send    func(gomidi.Message) error
	timers  map[int]*time.Timer
	timerID int
}

// NewOut creates a backend for the named output port. The port is opened
// lazily; Ready reports whether it could be opened.
func NewOut(clock engine.Clock, portName string, channel uint8, kit pattern.DrumKit) *Out {
	if channel >= 1 && channel <= 16 {
		channel-- // config counts channels 1-16
	} else {
		channel = 9 // GM percussion
	}
	return &Out{
		clock:    clock,
		portName: portName,
		channel:  channel,
		kit:      kit,
		timers:   make(map[int]*time.Timer),
	}
}

// Ready reports whether the output port can accept events
func (o *Out) Ready() bool {
	return o.sender() != nil
}

// sender returns the port send function, lazily opening the port
func (o *Out) sender() func(gomidi.Message) error {
	o.mu.Lock()
	if o.send != nil {
		s := o.send
		o.mu.Unlock()
		return s
	}
	o.mu.Unlock()

	// Find and open port outside the lock; GetOutPorts can be slow
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == o.portName {
			send, err := gomidi.SendTo(port)
			if err != nil {
				debug.Log("midi", "open %q failed: %v", o.portName, err)
				return nil
			}
			o.mu.Lock()
			if o.send == nil {
				o.send = send
			}
			send = o.send
			o.mu.Unlock()
			debug.Log("midi", "opened port %q", o.portName)
			return send
		}
	}
	return nil
}

// ScheduleAt arms the event for its absolute clock time
func (o *Out) ScheduleAt(at float64, ev engine.Event) error {
	send := o.sender()
	if send == nil {
		return fmt.Errorf("midi port %q unavailable", o.portName)
	}

	delay := time.Duration((at - o.clock.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0 // already due; send as soon as possible
	}

	switch ev.Kind {
	case engine.KindDrum, engine.KindSample:
		note := o.kit.Notes[ev.Voice%pattern.NumSlots]
		vel := ev.Velocity
		o.after(delay, func() {
			send(gomidi.NoteOn(o.channel, note, vel))
		})
		o.after(delay+noteGate, func() {
			send(gomidi.NoteOff(o.channel, note))
		})
	case engine.KindParameter:
		cc := uint8(ev.Voice & 0x7f)
		v := ev.Value
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		val := uint8(v * 127)
		o.after(delay, func() {
			send(gomidi.ControlChange(o.channel, cc, val))
		})
	}
	return nil
}

// after arms a cancellable timer. Fired and cancelled timers drop out of the
// pending map so CancelPending only sees live ones.
func (o *Out) after(d time.Duration, fn func()) {
	o.mu.Lock()
	o.timerID++
	id := o.timerID
	o.timers[id] = time.AfterFunc(d, func() {
		fn()
		o.mu.Lock()
		delete(o.timers, id)
		o.mu.Unlock()
	})
	o.mu.Unlock()
}

// CancelPending drops scheduled events that have not been sent yet
func (o *Out) CancelPending() {
	o.mu.Lock()
	n := len(o.timers)
	for id, t := range o.timers {
		t.Stop()
		delete(o.timers, id)
	}
	o.mu.Unlock()
	if n > 0 {
		debug.Log("midi", "cancelled %d pending sends", n)
	}
}

// Close cancels pending sends and releases the driver
func (o *Out) Close() {
	o.CancelPending()
	o.mu.Lock()
	o.send = nil
	o.mu.Unlock()
}

// OutPortNames lists the available MIDI output ports
func OutPortNames() []string {
	var names []string
	for _, port := range gomidi.GetOutPorts() {
		names = append(names, port.String())
	}
	return names
}
