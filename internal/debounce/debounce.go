// Package debounce provides trailing-edge coalescing of rapid repeated calls.
// A new call within the delay window cancels the pending timer and re-arms it,
// so only the most recent call fires, exactly once, after the window closes.
package debounce

import (
	"sync"
	"time"
)

// Debouncer wraps a callback and a delay. Schedule replaces any pending
// invocation; Stop cancels without firing; Flush fires a pending invocation
// immediately.
type Debouncer struct {
	mu      sync.Mutex
	fn      func(args ...any)
	delay   time.Duration
	timer   *time.Timer
	pending []any
	armed   bool
}

func New(delay time.Duration, fn func(args ...any)) *Debouncer {
	return &Debouncer{fn: fn, delay: delay}
}

// Schedule arms the timer with the given arguments, cancelling any pending
// invocation.
func (d *Debouncer) Schedule(args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = args
	d.armed = true
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	args := d.pending
	d.armed = false
	d.pending = nil
	d.mu.Unlock()
	d.fn(args...)
}

// Flush invokes a pending call immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.fire()
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
	d.pending = nil
}

// Value exposes the most recent value only after it has been stable for the
// delay window. The sink receives each settled value once.
type Value[T any] struct {
	mu    sync.Mutex
	sink  func(T)
	delay time.Duration
	timer *time.Timer
	last  T
	armed bool
}

func NewValue[T any](delay time.Duration, sink func(T)) *Value[T] {
	return &Value[T]{sink: sink, delay: delay}
}

// Set records a new candidate value and restarts the settling window.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.last = value
	v.armed = true
	v.timer = time.AfterFunc(v.delay, v.settle)
}

func (v *Value[T]) settle() {
	v.mu.Lock()
	if !v.armed {
		v.mu.Unlock()
		return
	}
	value := v.last
	v.armed = false
	v.mu.Unlock()
	v.sink(value)
}

// Flush delivers a pending value immediately, if any.
func (v *Value[T]) Flush() {
	v.mu.Lock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.mu.Unlock()
	v.settle()
}

// Stop cancels the settling window without delivering.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.timer != nil {
		v.timer.Stop()
	}
	v.armed = false
}
