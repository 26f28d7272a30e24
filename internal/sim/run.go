package sim

import (
	"context"
	"time"
)

// ExitReason describes why Run returned.
type ExitReason string

const (
	ExitReasonComplete      ExitReason = "complete"
	ExitReasonUserInterrupt ExitReason = "user_interrupt"
)

// Result summarizes a Run.
type Result struct {
	ExitReason ExitReason
	Frames     uint64
	Duration   time.Duration
}

// Run ticks the loop frames times, pacing ticks by Options.TickInterval.
// It returns early when ctx is canceled or Stop is called.
func (h *Host) Run(ctx context.Context, frames int) (*Result, error) {
	startTime := time.Now()
	start := h.runner.Frame()
	result := &Result{ExitReason: ExitReasonComplete}
	defer func() {
		result.Frames = h.runner.Frame() - start
		result.Duration = time.Since(startTime)
	}()

	wake := context.AfterFunc(ctx, func() {
		h.mu.Lock()
		h.pauseCond.Broadcast()
		h.mu.Unlock()
	})
	defer wake()

	var tick <-chan time.Time
	if h.opts.TickInterval > 0 {
		ticker := time.NewTicker(h.opts.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; i < frames; i++ {
		h.mu.Lock()
		for h.paused && !h.stopRequested && ctx.Err() == nil {
			h.pauseCond.Wait()
		}
		stop := h.stopRequested
		h.mu.Unlock()
		if stop {
			result.ExitReason = ExitReasonUserInterrupt
			return result, nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				result.ExitReason = ExitReasonUserInterrupt
				return result, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			result.ExitReason = ExitReasonUserInterrupt
			return result, err
		}

		h.Step()
		if h.opts.OnFrame != nil {
			h.opts.OnFrame(h.runner.Frame())
		}
	}
	return result, nil
}

// Stop makes Run return before its next tick.
func (h *Host) Stop() {
	h.mu.Lock()
	h.stopRequested = true
	h.pauseCond.Broadcast()
	h.mu.Unlock()
}

// TogglePause pauses or resumes Run and reports the new paused state.
func (h *Host) TogglePause() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = !h.paused
	if !h.paused {
		h.pauseCond.Broadcast()
	}
	return h.paused
}

// IsPaused reports whether Run is paused.
func (h *Host) IsPaused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}
