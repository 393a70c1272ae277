// Package tasks owns the task collection: creation, completion and the
// per-channel views used by commands and reports.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/biferdou/grallix/internal/apperr"
	"github.com/biferdou/grallix/internal/clock"
	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/store"
)

// errNotFound aborts a Complete update without writing.
var errNotFound = apperr.New(apperr.NotFound, "Task not found.")

// Registry reads and mutates tasks through the guarded store.
type Registry struct {
	c     *store.Collections
	clock clock.Clock
	newID func() string
}

// NewRegistry returns a Registry that stamps times with clk.
func NewRegistry(c *store.Collections, clk clock.Clock) *Registry {
	return &Registry{
		c:     c,
		clock: clk,
		newID: func() string { return uuid.New().String() },
	}
}

// Add appends a new incomplete task and returns its id.
func (r *Registry) Add(ctx context.Context, channelID, userID, description string, dueDate time.Time) (string, error) {
	task := model.Task{
		ID:          r.newID(),
		ChannelID:   channelID,
		UserID:      userID,
		Description: description,
		DueDate:     dueDate,
		CreatedAt:   r.clock.Now(),
	}

	err := r.c.UpdateTasks(ctx, func(d *store.TaskData) error {
		d.Tasks = append(d.Tasks, task)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("adding task: %w", err)
	}
	return task.ID, nil
}

// List returns the incomplete tasks of channelID in insertion order,
// restricted to userID unless it is empty.
func (r *Registry) List(ctx context.Context, channelID, userID string) ([]model.Task, error) {
	data, err := r.c.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	out := []model.Task{}
	for _, t := range data.Tasks {
		if t.ChannelID != channelID || t.Completed {
			continue
		}
		if userID != "" && t.UserID != userID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Complete marks the first task with id as completed now. It reports
// false, without touching the store, when no task has that id.
// Completing an already completed task stamps CompletedAt again.
func (r *Registry) Complete(ctx context.Context, id string) (bool, error) {
	err := r.c.UpdateTasks(ctx, func(d *store.TaskData) error {
		for i := range d.Tasks {
			if d.Tasks[i].ID == id {
				now := r.clock.Now()
				d.Tasks[i].Completed = true
				d.Tasks[i].CompletedAt = &now
				return nil
			}
		}
		return errNotFound
	})
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("completing task %s: %w", id, err)
	}
	return true, nil
}

// Get returns the first task with id.
func (r *Registry) Get(ctx context.Context, id string) (model.Task, bool, error) {
	data, err := r.c.Tasks(ctx)
	if err != nil {
		return model.Task{}, false, fmt.Errorf("getting task %s: %w", id, err)
	}
	for _, t := range data.Tasks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return model.Task{}, false, nil
}

// All returns every task, completed or not.
func (r *Registry) All(ctx context.Context) ([]model.Task, error) {
	data, err := r.c.Tasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	return data.Tasks, nil
}

// ParseDueDate parses a YYYY-MM-DD date into midnight UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	d, err := time.Parse(model.DueDateLayout, s)
	if err != nil {
		return time.Time{}, apperr.New(apperr.Validation, "Invalid date format. Please use YYYY-MM-DD.")
	}
	return d, nil
}
