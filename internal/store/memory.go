package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/biferdou/grallix/internal/model"
)

// MemoryStore keeps collections in process memory. Reads and writes copy
// the data so callers never share slices or maps with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	tasks    []model.Task
	logs     []model.TimeLog
	standups []model.Standup
	settings map[string]model.ChannelSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    []model.Task{},
		logs:     []model.TimeLog{},
		standups: []model.Standup{},
		settings: map[string]model.ChannelSettings{},
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) ReadTasks(_ context.Context) (TaskData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TaskData{Tasks: copyTasks(s.tasks)}, nil
}

func (s *MemoryStore) WriteTasks(_ context.Context, data TaskData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = copyTasks(data.Tasks)
	return nil
}

func (s *MemoryStore) ReadTimeLogs(_ context.Context) (TimeLogData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return TimeLogData{Logs: append([]model.TimeLog{}, s.logs...)}, nil
}

func (s *MemoryStore) WriteTimeLogs(_ context.Context, data TimeLogData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]model.TimeLog{}, data.Logs...)
	return nil
}

func (s *MemoryStore) ReadStandups(_ context.Context) (StandupData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StandupData{Standups: copyStandups(s.standups)}, nil
}

func (s *MemoryStore) WriteStandups(_ context.Context, data StandupData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standups = copyStandups(data.Standups)
	return nil
}

func (s *MemoryStore) ReadSettings(_ context.Context) (model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Settings{Channels: maps.Clone(s.settings)}, nil
}

func (s *MemoryStore) WriteSettings(_ context.Context, data model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = maps.Clone(data.Channels)
	if s.settings == nil {
		s.settings = map[string]model.ChannelSettings{}
	}
	return nil
}

// copyTasks also copies CompletedAt so a caller mutating the returned
// pointer cannot reach into the store.
func copyTasks(in []model.Task) []model.Task {
	out := make([]model.Task, len(in))
	for i, t := range in {
		if t.CompletedAt != nil {
			at := *t.CompletedAt
			t.CompletedAt = &at
		}
		out[i] = t
	}
	return out
}

func copyStandups(in []model.Standup) []model.Standup {
	out := make([]model.Standup, len(in))
	for i, st := range in {
		st.Responses = slices.Clone(st.Responses)
		if st.Responses == nil {
			st.Responses = []model.StandupResponse{}
		}
		out[i] = st
	}
	return out
}
