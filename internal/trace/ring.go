package trace

import (
	"fmt"
	"io"
	"sync"
)

// RingTracer remembers the last events of a run. When the run fails the
// driver dumps them, oldest first, to show what led up to the failure.
type RingTracer struct {
	mu      sync.Mutex
	buf     []Event
	written uint64
	level   Level
}

// DefaultRingSize is used when NewRingTracer gets a non-positive size.
const DefaultRingSize = 4096

func NewRingTracer(size int, level Level) *RingTracer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingTracer{buf: make([]Event, size), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	slot := t.written % uint64(len(t.buf))
	t.buf[slot] = *ev
	t.buf[slot].Seq = nextSeq()
	t.written++
}

// Snapshot copies the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	if t.written <= size {
		return append([]Event(nil), t.buf[:t.written]...)
	}
	cut := t.written % size
	return append(append(make([]Event, 0, size), t.buf[cut:]...), t.buf[:cut]...)
}

// Dropped reports how many events were overwritten.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written - min(t.written, uint64(len(t.buf)))
}

// Dump writes the kept events to w, preceded by a line counting the
// overwritten ones if any were lost.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if n := t.Dropped(); n > 0 {
		if _, err := fmt.Fprintf(w, "... %d earlier trace events dropped\n", n); err != nil {
			return err
		}
	}
	events := t.Snapshot()
	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
