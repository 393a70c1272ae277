package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/biferdou/grallix/internal/model"
)

// SQLiteStore implements Store on a local SQLite database. Each write
// replaces a table's contents inside a single transaction.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite has a single writer, and ":memory:" databases are private to
	// a connection, so one pooled connection is both correct and enough.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

type taskRow struct {
	ID          string     `db:"id"`
	ChannelID   string     `db:"channel_id"`
	UserID      string     `db:"user_id"`
	Description string     `db:"description"`
	DueDate     time.Time  `db:"due_date"`
	CreatedAt   time.Time  `db:"created_at"`
	Completed   int        `db:"completed"`
	CompletedAt *time.Time `db:"completed_at"`
}

// ReadTasks returns all tasks in insertion order.
func (s *SQLiteStore) ReadTasks(ctx context.Context) (TaskData, error) {
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, channel_id, user_id, description,
			due_date, created_at, completed, completed_at
		FROM tasks ORDER BY seq`)
	if err != nil {
		return TaskData{}, fmt.Errorf("querying tasks: %w", err)
	}

	data := TaskData{Tasks: make([]model.Task, 0, len(rows))}
	for _, r := range rows {
		data.Tasks = append(data.Tasks, model.Task{
			ID:          r.ID,
			ChannelID:   r.ChannelID,
			UserID:      r.UserID,
			Description: r.Description,
			DueDate:     r.DueDate,
			CreatedAt:   r.CreatedAt,
			Completed:   r.Completed != 0,
			CompletedAt: r.CompletedAt,
		})
	}
	return data, nil
}

// WriteTasks replaces the tasks table.
func (s *SQLiteStore) WriteTasks(ctx context.Context, data TaskData) error {
	const query = `
		INSERT INTO tasks (
			seq, id, channel_id, user_id, description,
			due_date, created_at, completed, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return s.replace(ctx, "tasks", query, len(data.Tasks), func(i int) []any {
		t := data.Tasks[i]
		var completedAt *time.Time
		if t.CompletedAt != nil {
			at := t.CompletedAt.UTC()
			completedAt = &at
		}
		return []any{
			i, t.ID, t.ChannelID, t.UserID, t.Description,
			t.DueDate.UTC(), t.CreatedAt.UTC(), boolToInt(t.Completed), completedAt,
		}
	})
}

// ReadTimeLogs returns all time logs in insertion order.
func (s *SQLiteStore) ReadTimeLogs(ctx context.Context) (TimeLogData, error) {
	var logs []model.TimeLog
	err := s.db.SelectContext(ctx, &logs, `
		SELECT user_id, task_id, channel_id, start_time, end_time, duration
		FROM time_logs ORDER BY seq`)
	if err != nil {
		return TimeLogData{}, fmt.Errorf("querying time logs: %w", err)
	}

	data := TimeLogData{Logs: logs}
	data.normalize()
	return data, nil
}

// WriteTimeLogs replaces the time_logs table.
func (s *SQLiteStore) WriteTimeLogs(ctx context.Context, data TimeLogData) error {
	const query = `
		INSERT INTO time_logs (
			seq, user_id, task_id, channel_id, start_time, end_time, duration
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	return s.replace(ctx, "time_logs", query, len(data.Logs), func(i int) []any {
		l := data.Logs[i]
		return []any{
			i, l.UserID, l.TaskID, l.ChannelID,
			l.StartTime.UTC(), l.EndTime.UTC(), l.Duration,
		}
	})
}

// ReadStandups returns all standups in insertion order.
func (s *SQLiteStore) ReadStandups(ctx context.Context) (StandupData, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT channel_id, date, responses FROM standups ORDER BY seq")
	if err != nil {
		return StandupData{}, fmt.Errorf("querying standups: %w", err)
	}
	defer rows.Close()

	data := StandupData{Standups: []model.Standup{}}
	for rows.Next() {
		var (
			st        model.Standup
			responses string
		)
		if err := rows.Scan(&st.ChannelID, &st.Date, &responses); err != nil {
			return StandupData{}, fmt.Errorf("scanning standup row: %w", err)
		}
		if err := json.Unmarshal([]byte(responses), &st.Responses); err != nil {
			return StandupData{}, fmt.Errorf("unmarshaling standup responses: %w", err)
		}
		data.Standups = append(data.Standups, st)
	}
	if err := rows.Err(); err != nil {
		return StandupData{}, err
	}

	data.normalize()
	return data, nil
}

// WriteStandups replaces the standups table.
func (s *SQLiteStore) WriteStandups(ctx context.Context, data StandupData) error {
	data.normalize()

	encoded := make([]string, len(data.Standups))
	for i, st := range data.Standups {
		b, err := json.Marshal(st.Responses)
		if err != nil {
			return fmt.Errorf("marshaling responses for standup %d: %w", i, err)
		}
		encoded[i] = string(b)
	}

	const query = `
		INSERT INTO standups (seq, channel_id, date, responses)
		VALUES (?, ?, ?, ?)`

	return s.replace(ctx, "standups", query, len(data.Standups), func(i int) []any {
		st := data.Standups[i]
		return []any{i, st.ChannelID, st.Date.UTC(), encoded[i]}
	})
}

// ReadSettings returns the settings aggregate.
func (s *SQLiteStore) ReadSettings(ctx context.Context) (model.Settings, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT channel_id, standup_enabled, weekly_summary_enabled
		FROM channel_settings`)
	if err != nil {
		return model.Settings{}, fmt.Errorf("querying channel settings: %w", err)
	}
	defer rows.Close()

	settings := model.Settings{Channels: map[string]model.ChannelSettings{}}
	for rows.Next() {
		var (
			channelID      string
			standupEnabled int
			weeklyEnabled  int
		)
		if err := rows.Scan(&channelID, &standupEnabled, &weeklyEnabled); err != nil {
			return model.Settings{}, fmt.Errorf("scanning channel settings row: %w", err)
		}
		settings.Channels[channelID] = model.ChannelSettings{
			StandupEnabled:       standupEnabled != 0,
			WeeklySummaryEnabled: weeklyEnabled != 0,
		}
	}
	return settings, rows.Err()
}

// WriteSettings replaces the channel_settings table.
func (s *SQLiteStore) WriteSettings(ctx context.Context, data model.Settings) error {
	ids := make([]string, 0, len(data.Channels))
	for id := range data.Channels {
		ids = append(ids, id)
	}

	const query = `
		INSERT INTO channel_settings (
			channel_id, standup_enabled, weekly_summary_enabled
		) VALUES (?, ?, ?)`

	return s.replace(ctx, "channel_settings", query, len(ids), func(i int) []any {
		cs := data.Channels[ids[i]]
		return []any{ids[i], boolToInt(cs.StandupEnabled), boolToInt(cs.WeeklySummaryEnabled)}
	})
}

// replace empties table and inserts n rows built by args, all in one
// transaction.
func (s *SQLiteStore) replace(
	ctx context.Context,
	table string,
	insert string,
	n int,
	args func(i int) []any,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}

	if n > 0 {
		stmt, err := tx.PreparexContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("preparing %s insert: %w", table, err)
		}
		defer stmt.Close()

		for i := 0; i < n; i++ {
			if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
				return fmt.Errorf("inserting into %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", table, err)
	}
	return nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
