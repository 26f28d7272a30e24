// Package timing provides the clock used to timestamp scene loads and
// utilities for logging startup checkpoints.
package timing

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// checkpoints measures the gaps between Log calls. It is nil unless
// SCENEPROBE_DEBUG_TIMING=1.
var checkpoints = newCheckpoints(os.Getenv("SCENEPROBE_DEBUG_TIMING") == "1", os.Stderr)

type checkpointLog struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
	last  time.Time
}

func newCheckpoints(on bool, w io.Writer) *checkpointLog {
	if !on {
		return nil
	}
	now := time.Now()
	return &checkpointLog{w: w, start: now, last: now}
}

func (c *checkpointLog) mark(label string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[timing] %-40s +%5dms  %6dms\n", label, now.Sub(c.last).Milliseconds(), now.Sub(c.start).Milliseconds())
	c.last = now
}

// Log records a startup checkpoint when SCENEPROBE_DEBUG_TIMING=1.
func Log(label string) {
	if checkpoints == nil {
		return
	}
	checkpoints.mark(label, time.Now())
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock. time.Now carries a monotonic reading, so
// differences between two readings are unaffected by wall clock changes.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
