package store

import (
	"context"

	"github.com/biferdou/grallix/internal/model"
)

// TaskData is the whole tasks collection.
type TaskData struct {
	Tasks []model.Task `json:"tasks"`
}

// TimeLogData is the whole time log collection.
type TimeLogData struct {
	Logs []model.TimeLog `json:"logs"`
}

// StandupData is the whole standups collection.
type StandupData struct {
	Standups []model.Standup `json:"standups"`
}

// Store is the persistence contract: four independent collections, each
// read and written as a whole. A write replaces the stored collection
// atomically; callers needing read-modify-write must go through
// Collections, which serializes access per collection.
//
// Reads of a collection that has never been written return its empty
// value (no items, or no channels), never nil slices or maps.
type Store interface {
	ReadTasks(ctx context.Context) (TaskData, error)
	WriteTasks(ctx context.Context, data TaskData) error

	ReadTimeLogs(ctx context.Context) (TimeLogData, error)
	WriteTimeLogs(ctx context.Context, data TimeLogData) error

	ReadStandups(ctx context.Context) (StandupData, error)
	WriteStandups(ctx context.Context, data StandupData) error

	ReadSettings(ctx context.Context) (model.Settings, error)
	WriteSettings(ctx context.Context, data model.Settings) error

	Close() error
}

// normalize fills nil collections with empty values so every backend
// returns the same shape.
func (d *TaskData) normalize() {
	if d.Tasks == nil {
		d.Tasks = []model.Task{}
	}
}

func (d *TimeLogData) normalize() {
	if d.Logs == nil {
		d.Logs = []model.TimeLog{}
	}
}

func (d *StandupData) normalize() {
	if d.Standups == nil {
		d.Standups = []model.Standup{}
	}
	for i := range d.Standups {
		if d.Standups[i].Responses == nil {
			d.Standups[i].Responses = []model.StandupResponse{}
		}
	}
}

func normalizeSettings(s *model.Settings) {
	if s.Channels == nil {
		s.Channels = map[string]model.ChannelSettings{}
	}
}
