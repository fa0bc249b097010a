package params

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before typed input is applied.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer delivers the last pushed value once no new value has arrived
// for the configured delay.
type Debouncer[T any] struct {
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
	out    chan T
}

// NewDebouncer creates a debouncer. A non-positive delay uses
// DefaultDebounce.
func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[T]{delay: delay, out: make(chan T, 1)}
}

// Out delivers settled values. Only the newest undelivered value is kept.
func (d *Debouncer[T]) Out() <-chan T {
	return d.out
}

// Push restarts the quiet period with v as the pending value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, v) })
}

// Cancel drops the pending value.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Close stops the debouncer and closes Out. Later pushes are ignored.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}

func (d *Debouncer[T]) fire(seq uint64, v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || seq != d.seq {
		return
	}
	select {
	case <-d.out:
	default:
	}
	d.out <- v
}
