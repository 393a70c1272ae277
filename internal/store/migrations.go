package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Every collection table carries a seq column holding the item's position
// in the collection, so reads return items in insertion order.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	seq          INTEGER NOT NULL,
	id           TEXT PRIMARY KEY,
	channel_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	due_date     DATETIME NOT NULL,
	created_at   DATETIME NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS time_logs (
	seq        INTEGER NOT NULL,
	user_id    TEXT NOT NULL,
	task_id    TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time   DATETIME NOT NULL,
	duration   INTEGER NOT NULL CHECK(duration >= 0)
);

CREATE TABLE IF NOT EXISTS standups (
	seq        INTEGER NOT NULL,
	channel_id TEXT NOT NULL,
	date       DATETIME NOT NULL,
	responses  TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS channel_settings (
	channel_id             TEXT PRIMARY KEY,
	standup_enabled        INTEGER NOT NULL DEFAULT 0,
	weekly_summary_enabled INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_tasks_seq ON tasks(seq);
CREATE INDEX IF NOT EXISTS idx_time_logs_seq ON time_logs(seq);
CREATE INDEX IF NOT EXISTS idx_standups_seq ON standups(seq);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_channel_id ON tasks(channel_id);

CREATE INDEX IF NOT EXISTS idx_time_logs_channel_user
	ON time_logs(channel_id, user_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
