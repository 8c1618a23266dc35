// Package scope provides a scoped task supervision primitive: spawn a
// function and guarantee it is cancelled and joined when the scope is
// released, regardless of why the scope is being torn down.
package scope

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a scoped, cancellable background goroutine.
type Task struct {
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Concurrently spawns fn(ctx) in a new goroutine bound to a child of
// parent. The returned Task's Stop cancels that child context and waits
// for fn to return, mirroring the "create, schedule and automatically
// cancel and join a task" contract of a scoped task supervisor.
//
// fn should return promptly when ctx is cancelled; Stop blocks until it
// does.
func Concurrently(parent context.Context, fn func(ctx context.Context) error) *Task {
	ctx, cancel := context.WithCancel(parent)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return fn(ctx)
	})
	return &Task{cancel: cancel, group: group}
}

// Stop cancels the task and blocks until it has returned, returning
// whatever error the task produced, unchanged (a fn that returns
// ctx.Err() after cancellation yields context.Canceled here — callers
// that spawned fn purely for its side effects can ignore it).
func (t *Task) Stop() error {
	t.cancel()
	return t.group.Wait()
}
