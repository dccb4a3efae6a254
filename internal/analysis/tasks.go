package analysis

import (
	"context"
	"errors"
)

// TaskFunc is one long-running background job. It reports progress
// through the supplied callback and should return promptly once its
// context is cancelled.
type TaskFunc func(ctx context.Context, report func(done, total int)) error

// RunTask executes fn on its own goroutine under the given id and
// streams taskProgress events for it. Progress reported after the task
// was cancelled (or superseded) no longer matches an active id and is
// ignored rather than merged.
func (o *Orchestrator) RunTask(id string, fn TaskFunc) {
	ctx, cancel := context.WithCancel(o.ctx)

	o.mu.Lock()
	if prev, ok := o.tasks[id]; ok {
		prev()
	}
	o.tasks[id] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()

		err := fn(ctx, func(done, total int) {
			o.taskProgress(id, done, total, false, nil)
		})
		o.finishTask(id, err)
	}()
}

// CancelTask withdraws a task id; its remaining progress events are
// dropped by identity.
func (o *Orchestrator) CancelTask(id string) {
	o.mu.Lock()
	cancel, ok := o.tasks[id]
	delete(o.tasks, id)
	o.mu.Unlock()
	if ok {
		cancel()
	}
}

func (o *Orchestrator) taskActive(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.tasks[id]
	return ok
}

func (o *Orchestrator) taskProgress(id string, done, total int, finished bool, err error) {
	if !o.taskActive(id) {
		o.log.Debug("progress for inactive task dropped", "task", id)
		return
	}
	tp := &TaskProgress{ID: id, Done: done, Total: total, Finished: finished}
	if err != nil {
		tp.Err = err.Error()
	}
	o.emit(Event{Task: tp})
}

func (o *Orchestrator) finishTask(id string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		o.log.Error("task failed", "task", id, "error", err)
	}
	o.taskProgress(id, 0, 0, true, err)
	o.mu.Lock()
	delete(o.tasks, id)
	o.mu.Unlock()
}
