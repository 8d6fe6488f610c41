// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package job runs a task on a fixed interval and on demand, never overlapping with itself.
package job

import (
	"context"
	"sync"
	"time"
)

// Job represents a task that runs at a fixed interval and whenever it is triggered.
type Job struct {
	interval time.Duration
	task     func(context.Context)
	trigger  chan struct{}

	mu      sync.Mutex
	busy    bool
	pending bool
}

// New creates a new Job with the given interval and task.
func New(interval time.Duration, task func(context.Context)) *Job {
	return &Job{
		interval: interval,
		task:     task,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an immediate run. Multiple triggers before the job picks them up collapse
// into a single run. A trigger that arrives while the task is executing is kept and runs once
// the current execution has finished.
func (j *Job) Trigger() {
	select {
	case j.trigger <- struct{}{}:
	default:
	}
}

// Start executes the job until the context is cancelled. A tick that fires while a previous
// run is still executing is dropped.
func (j *Job) Start(ctx context.Context) {
	if j.task == nil || j.interval <= 0 {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.run(ctx, false)
		case <-j.trigger:
			j.run(ctx, true)
		}
	}
}

// run starts the task unless it is already executing. With keep set, a request that hits a
// busy job is remembered and executed right after the current run.
func (j *Job) run(ctx context.Context, keep bool) {
	j.mu.Lock()
	if j.busy {
		if keep {
			j.pending = true
		}
		j.mu.Unlock()
		return
	}
	j.busy = true
	j.mu.Unlock()

	go func() {
		for {
			j.execute(ctx)

			j.mu.Lock()
			if !j.pending || ctx.Err() != nil {
				j.busy, j.pending = false, false
				j.mu.Unlock()
				return
			}
			j.pending = false
			j.mu.Unlock()
		}
	}()
}

func (j *Job) execute(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	j.task(runCtx)
}
