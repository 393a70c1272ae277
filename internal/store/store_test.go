package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biferdou/grallix/internal/model"
	"github.com/biferdou/grallix/internal/store"
	"github.com/biferdou/grallix/tests/testutil"
)

func sampleTasks() []model.Task {
	done := time.Date(2025, 1, 8, 15, 30, 0, 0, time.UTC)
	return []model.Task{
		{
			ID:          "b",
			ChannelID:   "c1",
			UserID:      "u1",
			Description: "Write report",
			DueDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			CreatedAt:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "a",
			ChannelID:   "c2",
			UserID:      "u2",
			Description: "Ship release",
			DueDate:     time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
			CreatedAt:   time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
			Completed:   true,
			CompletedAt: &done,
		},
	}
}

func sampleLogs() []model.TimeLog {
	start := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
	return []model.TimeLog{
		{UserID: "u1", TaskID: "b", ChannelID: "c1", StartTime: start, EndTime: start.Add(5 * time.Second), Duration: 5000},
		{UserID: "u1", TaskID: "a", ChannelID: "c1", StartTime: start.Add(time.Hour), EndTime: start.Add(2 * time.Hour), Duration: 3600000},
	}
}

// roundTrip exercises every collection of s through a write and a read.
func roundTrip(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	tasks, err := s.ReadTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks.Tasks)
	assert.Empty(t, tasks.Tasks)

	settings, err := s.ReadSettings(ctx)
	require.NoError(t, err)
	assert.NotNil(t, settings.Channels)
	assert.Empty(t, settings.Channels)

	want := sampleTasks()
	require.NoError(t, s.WriteTasks(ctx, store.TaskData{Tasks: want}))
	tasks, err = s.ReadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks.Tasks, 2)
	for i := range want {
		got := tasks.Tasks[i]
		assert.Equal(t, want[i].ID, got.ID, "insertion order")
		assert.Equal(t, want[i].Description, got.Description)
		assert.Equal(t, want[i].Completed, got.Completed)
		assert.True(t, want[i].DueDate.Equal(got.DueDate))
		assert.True(t, want[i].CreatedAt.Equal(got.CreatedAt))
		if want[i].CompletedAt == nil {
			assert.Nil(t, got.CompletedAt)
		} else {
			require.NotNil(t, got.CompletedAt)
			assert.True(t, want[i].CompletedAt.Equal(*got.CompletedAt))
		}
	}

	logs := sampleLogs()
	require.NoError(t, s.WriteTimeLogs(ctx, store.TimeLogData{Logs: logs}))
	gotLogs, err := s.ReadTimeLogs(ctx)
	require.NoError(t, err)
	require.Len(t, gotLogs.Logs, 2)
	assert.Equal(t, "b", gotLogs.Logs[0].TaskID)
	assert.Equal(t, int64(3600000), gotLogs.Logs[1].Duration)
	assert.True(t, logs[0].StartTime.Equal(gotLogs.Logs[0].StartTime))

	standup := model.Standup{
		ChannelID: "c1",
		Date:      time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC),
		Responses: []model.StandupResponse{
			{UserID: "u1", Username: "alice", Content: "reviewing PRs", Timestamp: 1736244000000},
		},
	}
	empty := model.Standup{ChannelID: "c2", Date: standup.Date}
	require.NoError(t, s.WriteStandups(ctx, store.StandupData{Standups: []model.Standup{standup, empty}}))
	standups, err := s.ReadStandups(ctx)
	require.NoError(t, err)
	require.Len(t, standups.Standups, 2)
	assert.Equal(t, standup.Responses, standups.Standups[0].Responses)
	assert.NotNil(t, standups.Standups[1].Responses)
	assert.Empty(t, standups.Standups[1].Responses)

	require.NoError(t, s.WriteSettings(ctx, model.Settings{Channels: map[string]model.ChannelSettings{
		"c1": {StandupEnabled: true},
		"c2": {WeeklySummaryEnabled: true},
	}}))
	settings, err = s.ReadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ChannelSettings{StandupEnabled: true}, settings.Channel("c1"))
	assert.Equal(t, model.ChannelSettings{WeeklySummaryEnabled: true}, settings.Channel("c2"))
	assert.Equal(t, model.ChannelSettings{}, settings.Channel("missing"))

	require.NoError(t, s.WriteTasks(ctx, store.TaskData{}))
	tasks, err = s.ReadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks.Tasks)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	roundTrip(t, testutil.NewTestStore(t))
}

func TestFileStore_RoundTrip(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	roundTrip(t, s)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	roundTrip(t, store.NewMemoryStore())
}

func TestMongoStore_RoundTrip(t *testing.T) {
	uri := os.Getenv("GRALLIX_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GRALLIX_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := store.NewMongoStore(ctx, uri, "grallix_test_"+time.Now().Format("20060102150405"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	roundTrip(t, s)
}

func TestFileStore_CreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	_, err := store.NewFileStore(dir)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks": []}`, string(b))

	b, err = os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"channels": {}}`, string(b))
}

func TestFileStore_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := `{"tasks":[{"id":"1736500000000","channelId":"c1","userId":"u1",` +
		`"description":"legacy","dueDate":"2025-01-10T00:00:00.000Z",` +
		`"createdAt":"2025-01-06T09:00:00.000Z","completed":false,"completedAt":null}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(existing), 0o644))

	s, err := store.NewFileStore(dir)
	require.NoError(t, err)

	data, err := s.ReadTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "legacy", data.Tasks[0].Description)
	assert.Nil(t, data.Tasks[0].CompletedAt)
	assert.True(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC).Equal(data.Tasks[0].DueDate))
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	in := sampleTasks()
	require.NoError(t, s.WriteTasks(ctx, store.TaskData{Tasks: in}))
	in[0].Description = "mutated"
	*in[1].CompletedAt = time.Time{}

	out, err := s.ReadTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Write report", out.Tasks[0].Description)
	assert.False(t, out.Tasks[1].CompletedAt.IsZero())
}

func TestCollections_UpdateWritesResult(t *testing.T) {
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore())

	err := c.UpdateTasks(ctx, func(d *store.TaskData) error {
		d.Tasks = append(d.Tasks, model.Task{ID: "x"})
		return nil
	})
	require.NoError(t, err)

	data, err := c.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, data.Tasks, 1)
	assert.Equal(t, "x", data.Tasks[0].ID)
}

func TestCollections_UpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore())
	boom := errors.New("boom")

	err := c.UpdateSettings(ctx, func(s *model.Settings) error {
		s.Channels["c1"] = model.ChannelSettings{StandupEnabled: true}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings.Channels)
}

func TestCollections_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	c := store.NewCollections(store.NewMemoryStore())

	const n = 50
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			errs <- c.UpdateTimeLogs(ctx, func(d *store.TimeLogData) error {
				d.Logs = append(d.Logs, model.TimeLog{UserID: "u"})
				return nil
			})
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	data, err := c.TimeLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Logs, n)
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := store.Open(ctx, model.DatabaseConfig{Backend: model.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	s, err = store.Open(ctx, model.DatabaseConfig{Backend: model.BackendFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, s)

	s, err = store.Open(ctx, model.DatabaseConfig{
		Backend:    model.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "grallix.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = store.Open(ctx, model.DatabaseConfig{Backend: "redis"})
	assert.Error(t, err)
}
