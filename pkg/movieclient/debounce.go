package movieclient

import (
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last keystroke and a search.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last function triggered within its wait window.
type Debouncer struct {
	wait time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *scheduled
	running sync.WaitGroup
}

type scheduled struct {
	fn func()
}

// NewDebouncer creates a Debouncer. A non-positive wait uses DefaultDebounce.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &Debouncer{wait: wait}
}

// Trigger schedules fn after the wait window, replacing any function still
// waiting. fn runs on its own goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	p := &scheduled{fn: fn}
	d.pending = p
	d.timer = time.AfterFunc(d.wait, func() { d.fire(p) })
}

func (d *Debouncer) fire(p *scheduled) {
	d.mu.Lock()
	if d.pending != p {
		d.mu.Unlock()
		return
	}
	d.pending = nil
	d.timer = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	p.fn()
}

// Stop cancels the pending function. It reports whether one was cancelled.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked() != nil
}

// Flush runs the pending function now, on the calling goroutine, and waits
// for any function already started by the timer to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	p := d.takeLocked()
	if p != nil {
		d.running.Add(1)
	}
	d.mu.Unlock()

	if p != nil {
		p.fn()
		d.running.Done()
	}
	d.running.Wait()
}

func (d *Debouncer) takeLocked() *scheduled {
	p := d.pending
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	return p
}
