// Package timeline maps stream timestamps onto the wall clock and paces
// consumers against it.
package timeline

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultLateThreshold is how far past its deadline a frame may be and
// still be presented.
const DefaultLateThreshold = 100 * time.Millisecond

var (
	// ErrLateFrame is returned by Wait when the frame missed its deadline by
	// more than the late threshold. The caller should drop the frame.
	ErrLateFrame = errors.New("timeline: frame is late")

	// ErrRebased is returned by Wait when the mapping changed while the
	// caller was sleeping. The frame belongs to the old mapping.
	ErrRebased = errors.New("timeline: mapping changed while waiting")
)

// Timeline converts timestamps of one stream into wall-clock deadlines:
//
//	deadline = origin + (pts + offset) * interval
//
// Only the goroutine that owns the playback clock changes origin and offset;
// consumers only call Wait and Deadline.
type Timeline struct {
	mu       sync.RWMutex
	interval float64 // milliseconds per stream unit
	origin   time.Time
	offset   float64 // stream units
	changed  chan struct{}

	lateThreshold time.Duration
	now           func() time.Time
}

// New creates a timeline with the given interval in milliseconds per unit.
func New(msPerUnit float64) *Timeline {
	return &Timeline{
		interval:      msPerUnit,
		changed:       make(chan struct{}),
		lateThreshold: DefaultLateThreshold,
		now:           time.Now,
	}
}

// SetInterval configures the scale. Called once when the stream is opened.
func (t *Timeline) SetInterval(msPerUnit float64) {
	t.mu.Lock()
	t.interval = msPerUnit
	t.mu.Unlock()
}

// SetTimeBase configures the scale from a num/den seconds-per-unit fraction.
func (t *Timeline) SetTimeBase(num, den int) {
	if den == 0 {
		return
	}
	t.SetInterval(float64(num) / float64(den) * 1000)
}

// Interval returns the milliseconds per stream unit.
func (t *Timeline) Interval() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.interval
}

// SetLateThreshold changes how late a frame may be before Wait rejects it.
func (t *Timeline) SetLateThreshold(d time.Duration) {
	t.mu.Lock()
	t.lateThreshold = d
	t.mu.Unlock()
}

// SetStartNow sets the origin to the current instant.
func (t *Timeline) SetStartNow() {
	t.SetStart(t.now())
}

// SetStart sets the origin, typically to another timeline's Start so both
// streams share one epoch.
func (t *Timeline) SetStart(origin time.Time) {
	t.mu.Lock()
	t.origin = origin
	t.notifyLocked()
	t.mu.Unlock()
}

// Start returns the origin.
func (t *Timeline) Start() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.origin
}

// AddOffset shifts the mapping by delta. A seek forward by d is compensated
// with AddOffset(-d) so the first frame after the seek maps to "now".
func (t *Timeline) AddOffset(delta time.Duration) {
	t.mu.Lock()
	if t.interval > 0 {
		t.offset += float64(delta) / float64(time.Millisecond) / t.interval
	}
	t.notifyLocked()
	t.mu.Unlock()
}

// Offset returns the accumulated correction as a duration.
func (t *Timeline) Offset() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return time.Duration(t.offset * t.interval * float64(time.Millisecond))
}

// Rebase sets the origin and drops any accumulated offset.
func (t *Timeline) Rebase(origin time.Time) {
	t.mu.Lock()
	t.origin = origin
	t.offset = 0
	t.notifyLocked()
	t.mu.Unlock()
}

// Deadline returns the wall-clock instant at which pts should be presented.
func (t *Timeline) Deadline(pts int64) time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deadlineLocked(pts)
}

// Wait blocks until the deadline of pts and returns how long it slept.
//
// A frame at most the late threshold behind is released immediately with a
// zero wait. A frame further behind yields ErrLateFrame without sleeping.
// If the mapping changes during the sleep, Wait returns ErrRebased.
func (t *Timeline) Wait(ctx context.Context, pts int64) (time.Duration, error) {
	t.mu.RLock()
	deadline := t.deadlineLocked(pts)
	threshold := t.lateThreshold
	changed := t.changed
	t.mu.RUnlock()

	d := deadline.Sub(t.now())
	if d < 0 {
		if -d > threshold {
			return 0, ErrLateFrame
		}
		return 0, nil
	}
	if d == 0 {
		return 0, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return d, nil
	case <-changed:
		return 0, ErrRebased
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (t *Timeline) deadlineLocked(pts int64) time.Time {
	ms := (float64(pts) + t.offset) * t.interval
	return t.origin.Add(time.Duration(ms * float64(time.Millisecond)))
}

// notifyLocked wakes sleepers in Wait so they re-evaluate against the new
// mapping.
func (t *Timeline) notifyLocked() {
	close(t.changed)
	t.changed = make(chan struct{})
}
