package client

import (
	"context"
	"sync"
	"time"
)

// Estimator produces heuristic per-item progress while a transcode runs.
// The engine exposes no real progress signal, so this is a purely
// time-based guess: the value climbs in fixed steps toward a ceiling and
// parks there until the job finishes. Callers snap to 100 themselves on
// completion.
type Estimator struct {
	mu      sync.Mutex
	value   int
	step    int
	ceiling int
	tick    time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEstimator creates an estimator climbing by step toward ceiling every
// tick interval.
func NewEstimator(tick time.Duration, step, ceiling int) *Estimator {
	return &Estimator{step: step, ceiling: ceiling, tick: tick}
}

// Start resets the estimate to zero and begins climbing. onUpdate is called
// with each new value from the estimator's goroutine; it must be fast.
func (e *Estimator) Start(ctx context.Context, onUpdate func(int)) {
	e.Stop()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	e.value = 0
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(e.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v := e.advance()
				if onUpdate != nil {
					onUpdate(v)
				}
			}
		}
	}()
}

// Stop halts the climb. The current value is left as-is.
func (e *Estimator) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Value returns the current estimate.
func (e *Estimator) Value() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *Estimator) advance() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value += e.step
	if e.value > e.ceiling {
		e.value = e.ceiling
	}
	return e.value
}
