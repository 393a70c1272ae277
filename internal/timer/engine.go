// Package timer tracks the single running timer each user may have and
// turns it into a time log when it stops.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/biferdou/grallix/internal/apperr"
	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/store"
)

var (
	ErrTaskNotFound       = apperr.New(apperr.NotFound, "Task not found")
	ErrTimerAlreadyActive = apperr.New(apperr.Conflict, "You already have an active timer")
	ErrNoActiveTimer      = apperr.New(apperr.Conflict, "No active timer found")
)

// TaskLookup resolves a task id.
type TaskLookup interface {
	Get(ctx context.Context, id string) (model.Task, bool, error)
}

// StopResult describes a timer that was just stopped.
type StopResult struct {
	TaskID      string
	Description string
	Duration    time.Duration
}

// Engine holds the Idle/Running state of every user. A user with an
// entry in active is Running; anyone else is Idle.
type Engine struct {
	mu     sync.Mutex
	active map[string]model.ActiveTimer

	tasks TaskLookup
	c     *store.Collections
	clock clock.Clock
}

func NewEngine(tasks TaskLookup, c *store.Collections, clk clock.Clock) *Engine {
	return &Engine{
		active: make(map[string]model.ActiveTimer),
		tasks:  tasks,
		c:      c,
		clock:  clk,
	}
}

// Start begins timing taskID for userID and returns the task.
func (e *Engine) Start(ctx context.Context, channelID, userID, taskID string) (model.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok, err := e.tasks.Get(ctx, taskID)
	if err != nil {
		return model.Task{}, fmt.Errorf("starting timer: %w", err)
	}
	if !ok {
		return model.Task{}, ErrTaskNotFound
	}
	if _, running := e.active[userID]; running {
		return model.Task{}, ErrTimerAlreadyActive
	}

	e.active[userID] = model.ActiveTimer{
		TaskID:      task.ID,
		ChannelID:   channelID,
		StartTime:   e.clock.Now(),
		Description: task.Description,
	}
	return task, nil
}

// Stop ends userID's timer and appends its time log. If the log cannot
// be written the timer keeps running.
func (e *Engine) Stop(ctx context.Context, userID string) (StopResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	at, running := e.active[userID]
	if !running {
		return StopResult{}, ErrNoActiveTimer
	}

	elapsed := e.clock.Now().Sub(at.StartTime).Truncate(time.Millisecond)
	if elapsed < 0 {
		elapsed = 0
	}

	entry := model.TimeLog{
		UserID:    userID,
		TaskID:    at.TaskID,
		ChannelID: at.ChannelID,
		StartTime: at.StartTime,
		EndTime:   at.StartTime.Add(elapsed),
		Duration:  elapsed.Milliseconds(),
	}
	err := e.c.UpdateTimeLogs(ctx, func(d *store.TimeLogData) error {
		d.Logs = append(d.Logs, entry)
		return nil
	})
	if err != nil {
		return StopResult{}, fmt.Errorf("recording time log: %w", err)
	}

	delete(e.active, userID)
	return StopResult{
		TaskID:      at.TaskID,
		Description: at.Description,
		Duration:    elapsed,
	}, nil
}

// Active returns userID's running timer, if any.
func (e *Engine) Active(userID string) (model.ActiveTimer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	at, ok := e.active[userID]
	return at, ok
}
