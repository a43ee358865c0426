package engine

import (
	"sync"

	"go-beatclock/debug"
)

// Subscription identifies one registered observer. Returned by On, accepted
// by Off.
type Subscription struct {
	name string
	id   int
}

type observer struct {
	id int
	fn func(Notification)
}

// dispatcher fans scheduler events out to registered observers on its own
// goroutine, so a slow or panicking observer can never stall a scheduling
// pass. Observer panics are recovered per-observer, logged, and counted.
type dispatcher struct {
	mu        sync.Mutex
	observers map[string][]observer
	nextID    int

	queue   chan Notification
	done    chan struct{}
	metrics *metrics
}

func newDispatcher(m *metrics) *dispatcher {
	d := &dispatcher{
		observers: make(map[string][]observer),
		queue:     make(chan Notification, 256),
		done:      make(chan struct{}),
		metrics:   m,
	}
	go d.run()
	return d
}

// On registers an observer for the named event and returns its subscription
func (d *dispatcher) On(name string, fn func(Notification)) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.observers[name] = append(d.observers[name], observer{id: d.nextID, fn: fn})
	return &Subscription{name: name, id: d.nextID}
}

// Off removes a previously registered observer. Safe to call twice.
func (d *dispatcher) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	obs := d.observers[sub.name]
	for i := range obs {
		if obs[i].id == sub.id {
			d.observers[sub.name] = append(obs[:i], obs[i+1:]...)
			return
		}
	}
}

// emit queues a notification without blocking the caller. If the observer
// goroutine has fallen behind, the notification is dropped and counted
// rather than stalling the scheduling pass.
func (d *dispatcher) emit(n Notification) {
	select {
	case d.queue <- n:
	case <-d.done:
	default:
		d.metrics.recordObserverError()
		debug.LogEvery(100, "dispatch", "observer queue full, dropped %q", n.Name)
	}
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case n := <-d.queue:
			d.deliver(n)
		}
	}
}

func (d *dispatcher) deliver(n Notification) {
	d.mu.Lock()
	obs := append([]observer(nil), d.observers[n.Name]...)
	d.mu.Unlock()

	for _, o := range obs {
		d.call(o, n)
	}
}

// call invokes one observer; a panic is contained so the remaining observers
// still run.
func (d *dispatcher) call(o observer, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.recordObserverError()
			debug.Log("dispatch", "observer panic on %q: %v", n.Name, r)
		}
	}()
	o.fn(n)
}

// Close stops the delivery goroutine. Queued notifications are discarded.
func (d *dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}
