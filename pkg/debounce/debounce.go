// Package debounce coalesces bursts of filter input into a single call made
// once the input has been quiet for a delay.
//
// A Debouncer moves between three states:
//
//	Idle     nothing scheduled
//	Pending  a call is scheduled for the latest value
//	Fired    the scheduled call ran
//
// Input restarts the delay. An empty value means the filter was cleared: the
// pending call is dropped and fn("") runs at once. Cancel drops the pending
// call without running anything; Close does the same and ignores later input.
package debounce

import (
	"sync"
	"time"
)

// State is the state of a Debouncer
type State int

const (
	StateIdle State = iota
	StatePending
	StateFired
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateFired:
		return "fired"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Timer is a scheduled call that can be stopped
type Timer interface {
	Stop() bool
}

// Clock schedules calls. Tests substitute a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock schedules with the time package
func RealClock() Clock {
	return realClock{}
}

// Debouncer delays calls to fn until input has been quiet for delay
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func(string)
	clock Clock

	state State
	timer Timer
	value string
	// gen identifies the scheduled call so a timer that fires after being
	// replaced does nothing
	gen uint64
}

// Option configures a Debouncer
type Option func(*Debouncer)

// WithClock sets the clock used to schedule calls
func WithClock(c Clock) Option {
	return func(d *Debouncer) { d.clock = c }
}

// New creates an idle debouncer
func New(delay time.Duration, fn func(string), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay: delay,
		fn:    fn,
		clock: RealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Input records a new value and restarts the delay
func (d *Debouncer) Input(value string) {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return
	}
	d.stopLocked()

	if value == "" {
		d.value = ""
		d.state = StateFired
		d.mu.Unlock()
		d.fn("")
		return
	}

	d.value = value
	d.state = StatePending
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.state != StatePending || d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.state = StateFired
	d.timer = nil
	value := d.value
	d.mu.Unlock()

	d.fn(value)
}

// Cancel drops the pending call, if any
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StatePending {
		return
	}
	d.stopLocked()
	d.state = StateIdle
}

// Close cancels the pending call and ignores all later input
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.state = StateClosed
}

// State returns the current state
func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Value returns the last value passed to Input
func (d *Debouncer) Value() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
