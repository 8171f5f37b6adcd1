package session

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create session, tasks, and turns",
		SQL: `
			CREATE TABLE session (
				id          INTEGER PRIMARY KEY CHECK (id = 1),
				context     TEXT NOT NULL DEFAULT '',
				environment TEXT NOT NULL DEFAULT '',
				started_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
			INSERT INTO session (id) VALUES (1);

			CREATE TABLE tasks (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				task       TEXT NOT NULL,
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE turns (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user       TEXT NOT NULL,
				assistant  TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
}
