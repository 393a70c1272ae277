package store

import (
	"context"
	"sync"

	"github.com/biferdou/grallix/internal/model"
)

// Collections serializes access to a Store with one lock per collection.
// An Update* call holds its collection's lock from the read through the
// write, so concurrent read-modify-write cycles on the same collection
// cannot lose updates. Different collections never block each other.
type Collections struct {
	backend Store

	tasksMu    sync.Mutex
	logsMu     sync.Mutex
	standupsMu sync.Mutex
	settingsMu sync.Mutex
}

// NewCollections wraps backend.
func NewCollections(backend Store) *Collections {
	return &Collections{backend: backend}
}

// Close closes the wrapped Store.
func (c *Collections) Close() error {
	return c.backend.Close()
}

// Tasks returns a snapshot of the tasks collection.
func (c *Collections) Tasks(ctx context.Context) (TaskData, error) {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	return c.backend.ReadTasks(ctx)
}

// UpdateTasks reads the tasks collection, applies fn and writes the
// result. If fn returns an error nothing is written and the error is
// returned unchanged.
func (c *Collections) UpdateTasks(ctx context.Context, fn func(*TaskData) error) error {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()

	data, err := c.backend.ReadTasks(ctx)
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	return c.backend.WriteTasks(ctx, data)
}

// TimeLogs returns a snapshot of the time log collection.
func (c *Collections) TimeLogs(ctx context.Context) (TimeLogData, error) {
	c.logsMu.Lock()
	defer c.logsMu.Unlock()
	return c.backend.ReadTimeLogs(ctx)
}

// UpdateTimeLogs is UpdateTasks for the time log collection.
func (c *Collections) UpdateTimeLogs(ctx context.Context, fn func(*TimeLogData) error) error {
	c.logsMu.Lock()
	defer c.logsMu.Unlock()

	data, err := c.backend.ReadTimeLogs(ctx)
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	return c.backend.WriteTimeLogs(ctx, data)
}

// Standups returns a snapshot of the standups collection.
func (c *Collections) Standups(ctx context.Context) (StandupData, error) {
	c.standupsMu.Lock()
	defer c.standupsMu.Unlock()
	return c.backend.ReadStandups(ctx)
}

// UpdateStandups is UpdateTasks for the standups collection.
func (c *Collections) UpdateStandups(ctx context.Context, fn func(*StandupData) error) error {
	c.standupsMu.Lock()
	defer c.standupsMu.Unlock()

	data, err := c.backend.ReadStandups(ctx)
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	return c.backend.WriteStandups(ctx, data)
}

// Settings returns a snapshot of the settings aggregate.
func (c *Collections) Settings(ctx context.Context) (model.Settings, error) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return c.backend.ReadSettings(ctx)
}

// UpdateSettings is UpdateTasks for the settings aggregate.
func (c *Collections) UpdateSettings(ctx context.Context, fn func(*model.Settings) error) error {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	data, err := c.backend.ReadSettings(ctx)
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	return c.backend.WriteSettings(ctx, data)
}
