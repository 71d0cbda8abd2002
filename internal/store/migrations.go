package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	uuid         TEXT PRIMARY KEY,
	description  TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending', 'completed', 'deleted', 'waiting', 'recurring')),
	priority     TEXT NOT NULL DEFAULT '' CHECK(priority IN ('', 'H', 'M', 'L')),
	project      TEXT NOT NULL DEFAULT '',
	tags         TEXT NOT NULL DEFAULT '[]',
	depends      TEXT NOT NULL DEFAULT '[]',
	annotations  TEXT NOT NULL DEFAULT '[]',
	udas         TEXT NOT NULL DEFAULT '{}',
	entry        DATETIME NOT NULL,
	modified     DATETIME NOT NULL,
	start_at     DATETIME,
	end_at       DATETIME,
	due_at       DATETIME,
	wait_at      DATETIME,
	scheduled_at DATETIME,
	until_at     DATETIME,
	recur        TEXT NOT NULL DEFAULT '',
	parent       TEXT NOT NULL DEFAULT '',
	urgency      REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hero (
	id              INTEGER PRIMARY KEY CHECK(id = 1),
	name            TEXT NOT NULL,
	level           INTEGER NOT NULL DEFAULT 1 CHECK(level >= 1),
	xp              INTEGER NOT NULL DEFAULT 0,
	total_xp        INTEGER NOT NULL DEFAULT 0,
	stat_str        INTEGER NOT NULL DEFAULT 10,
	stat_dex        INTEGER NOT NULL DEFAULT 10,
	stat_con        INTEGER NOT NULL DEFAULT 10,
	stat_int        INTEGER NOT NULL DEFAULT 10,
	stat_wis        INTEGER NOT NULL DEFAULT 10,
	stat_cha        INTEGER NOT NULL DEFAULT 10,
	current_streak  INTEGER NOT NULL DEFAULT 0,
	longest_streak  INTEGER NOT NULL DEFAULT 0,
	last_completion DATETIME,
	tasks_completed INTEGER NOT NULL DEFAULT 0,
	title           TEXT NOT NULL DEFAULT '',
	unlocked_titles TEXT NOT NULL DEFAULT '[]',
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- task_uuid here and in notifications is not a foreign key: XP history
-- and notices outlive purged tasks.
CREATE TABLE IF NOT EXISTS xp_history (
	id                  TEXT PRIMARY KEY,
	task_uuid           TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	base                REAL NOT NULL,
	priority_multiplier REAL NOT NULL,
	timing_multiplier   REAL NOT NULL,
	bonus               INTEGER NOT NULL,
	total               INTEGER NOT NULL,
	level_before        INTEGER NOT NULL,
	level_after         INTEGER NOT NULL,
	created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS filter_presets (
	name       TEXT PRIMARY KEY,
	expression TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	task_uuid  TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_modified ON tasks(modified);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent);
CREATE INDEX IF NOT EXISTS idx_xp_history_created ON xp_history(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_task_kind
	ON notifications(task_uuid, kind);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
