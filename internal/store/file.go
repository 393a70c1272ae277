package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biferdou/grallix/internal/model"
)

// Collection file names inside the data directory.
const (
	tasksFile    = "tasks.json"
	timeLogsFile = "time_logs.json"
	standupsFile = "standups.json"
	settingsFile = "settings.json"
)

// FileStore keeps each collection in its own pretty-printed JSON file.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and writes an empty default for
// every collection file that does not exist yet.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}

	s := &FileStore{dir: dir}
	defaults := map[string]any{
		tasksFile:    TaskData{Tasks: []model.Task{}},
		timeLogsFile: TimeLogData{Logs: []model.TimeLog{}},
		standupsFile: StandupData{Standups: []model.Standup{}},
		settingsFile: model.Settings{Channels: map[string]model.ChannelSettings{}},
	}
	for name, empty := range defaults {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
		if err := s.writeJSON(name, empty); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close is a no-op; files are not held open between calls.
func (s *FileStore) Close() error {
	return nil
}

// ReadTasks loads tasks.json.
func (s *FileStore) ReadTasks(ctx context.Context) (TaskData, error) {
	var data TaskData
	if err := s.readJSON(ctx, tasksFile, &data); err != nil {
		return TaskData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteTasks replaces tasks.json.
func (s *FileStore) WriteTasks(ctx context.Context, data TaskData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data.normalize()
	return s.writeJSON(tasksFile, data)
}

// ReadTimeLogs loads time_logs.json.
func (s *FileStore) ReadTimeLogs(ctx context.Context) (TimeLogData, error) {
	var data TimeLogData
	if err := s.readJSON(ctx, timeLogsFile, &data); err != nil {
		return TimeLogData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteTimeLogs replaces time_logs.json.
func (s *FileStore) WriteTimeLogs(ctx context.Context, data TimeLogData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data.normalize()
	return s.writeJSON(timeLogsFile, data)
}

// ReadStandups loads standups.json.
func (s *FileStore) ReadStandups(ctx context.Context) (StandupData, error) {
	var data StandupData
	if err := s.readJSON(ctx, standupsFile, &data); err != nil {
		return StandupData{}, err
	}
	data.normalize()
	return data, nil
}

// WriteStandups replaces standups.json.
func (s *FileStore) WriteStandups(ctx context.Context, data StandupData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data.normalize()
	return s.writeJSON(standupsFile, data)
}

// ReadSettings loads settings.json.
func (s *FileStore) ReadSettings(ctx context.Context) (model.Settings, error) {
	var data model.Settings
	if err := s.readJSON(ctx, settingsFile, &data); err != nil {
		return model.Settings{}, err
	}
	normalizeSettings(&data)
	return data, nil
}

// WriteSettings replaces settings.json.
func (s *FileStore) WriteSettings(ctx context.Context, data model.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalizeSettings(&data)
	return s.writeJSON(settingsFile, data)
}

func (s *FileStore) readJSON(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// writeJSON writes to a temp file in the same directory and renames it
// over the target, so readers see either the old or the new collection.
func (s *FileStore) writeJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
