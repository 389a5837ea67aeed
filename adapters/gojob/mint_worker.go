package gojob

import (
	"context"
	"time"

	"github.com/goliatone/go-lazymint/core"
)

const defaultWorkerIdleDelay = time.Second

// MintWorker feeds queued mint deliveries to a MintJobHandler one at a time.
// The handler settles every delivery; the worker only reports outcomes to
// its hooks.
type MintWorker struct {
	dequeuer  core.JobDequeuer
	handler   *MintJobHandler
	hooks     []core.JobWorkerHook
	idleDelay time.Duration
	now       func() time.Time
}

type MintWorkerOption func(*MintWorker)

func WithWorkerHooks(hooks ...core.JobWorkerHook) MintWorkerOption {
	return func(w *MintWorker) {
		for _, hook := range hooks {
			if hook != nil {
				w.hooks = append(w.hooks, hook)
			}
		}
	}
}

// WithIdleDelay sets how long Run waits after an empty or failed dequeue.
func WithIdleDelay(delay time.Duration) MintWorkerOption {
	return func(w *MintWorker) {
		if delay >= 0 {
			w.idleDelay = delay
		}
	}
}

func NewMintWorker(dequeuer core.JobDequeuer, handler *MintJobHandler, opts ...MintWorkerOption) *MintWorker {
	w := &MintWorker{
		dequeuer:  dequeuer,
		handler:   handler,
		idleDelay: defaultWorkerIdleDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// RunOnce handles at most one ready delivery. handled is false when the
// queue had nothing ready or the dequeue failed; in that case err is the
// dequeue error. When handled is true, err is the settled mint failure.
func (w *MintWorker) RunOnce(ctx context.Context) (handled bool, err error) {
	if w == nil || w.dequeuer == nil || w.handler == nil {
		return false, core.NewError(core.ErrorInternal, "gojob: mint worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	attempt := deliveryAttempt(delivery)
	event := core.JobWorkerEvent{
		Message:   delivery.Message(),
		Attempt:   attempt,
		StartedAt: w.now(),
	}
	w.emit(func(hook core.JobWorkerHook) { hook.OnStart(ctx, event) })

	_, runErr := w.handler.Handle(ctx, delivery, attempt)
	event.Duration = w.now().Sub(event.StartedAt)
	if runErr == nil {
		w.emit(func(hook core.JobWorkerHook) { hook.OnSuccess(ctx, event) })
		return true, nil
	}

	event.Err = runErr
	opts := w.handler.policy.NormalizeAttempt(w.handler.policy.Classify(runErr, attempt), attempt)
	if opts.Requeue {
		event.Delay = opts.Delay
		w.emit(func(hook core.JobWorkerHook) { hook.OnRetry(ctx, event) })
	} else {
		w.emit(func(hook core.JobWorkerHook) { hook.OnFailure(ctx, event) })
	}
	return true, runErr
}

// Drain handles deliveries until none is ready and returns how many were
// handled. It stops early on a dequeue error or a cancelled context.
func (w *MintWorker) Drain(ctx context.Context) (int, error) {
	handled := 0
	for {
		if err := ctx.Err(); err != nil {
			return handled, err
		}
		ok, err := w.RunOnce(ctx)
		if !ok {
			return handled, err
		}
		handled++
	}
}

// Run handles deliveries until ctx is cancelled. Empty polls and dequeue
// errors wait for the idle delay.
func (w *MintWorker) Run(ctx context.Context) error {
	if w == nil || w.dequeuer == nil || w.handler == nil {
		return core.NewError(core.ErrorInternal, "gojob: mint worker is not configured")
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		ok, err := w.RunOnce(ctx)
		if ok {
			continue
		}
		if err != nil {
			w.handler.logger.Warn("mint worker dequeue failed", "error", err.Error())
		}
		w.waitIdle(ctx)
	}
}

func (w *MintWorker) waitIdle(ctx context.Context) {
	if w.idleDelay <= 0 {
		return
	}
	timer := time.NewTimer(w.idleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (w *MintWorker) emit(fn func(core.JobWorkerHook)) {
	for _, hook := range w.hooks {
		fn(hook)
	}
}

func deliveryAttempt(delivery core.JobDelivery) int {
	if reader, ok := delivery.(interface{ Attempts() int }); ok {
		if attempts := reader.Attempts(); attempts > 0 {
			return attempts
		}
	}
	return 1
}
