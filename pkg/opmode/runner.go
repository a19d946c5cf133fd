package opmode

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrRunnerStarted    = errors.New("autoplan: runner already started")
	ErrRunnerNotStarted = errors.New("autoplan: runner not started")
)

// Runner drives an OpMode in a background goroutine.
//
// Typical usage:
//
//	mode := opmode.New("left", plan, behaviors)
//	runner := opmode.NewRunner(mode, 20*time.Millisecond)
//	_ = runner.Start(ctx)
//	...
//	err := runner.Wait()
type Runner struct {
	mode     *OpMode
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started bool
}

func NewRunner(mode *OpMode, interval time.Duration) *Runner {
	return &Runner{mode: mode, interval: interval}
}

// Start launches the lifecycle. A Runner can be started once.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRunnerStarted
	}
	r.started = true

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		defer cancel()

		err := r.mode.Run(ctx, r.interval)
		// Cancellation is a clean shutdown.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
		if err != nil {
			r.mode.logger.ErrorContext(ctx, "opmode_failed",
				slog.String("plan", r.mode.name),
				slog.Any("error", err),
			)
		}
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}()
	return nil
}

// Stop cancels the run and waits for the lifecycle to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the run ends and returns its error. Cancellation is
// not reported as an error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return ErrRunnerNotStarted
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
