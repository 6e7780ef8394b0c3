// Package eventlog archives battle events in SQLite so a battle can be
// audited or replayed after the in-memory log has rolled over.
package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/KirkDiggler/dnd-tactics/internal/battle"
	dnderr "github.com/KirkDiggler/dnd-tactics/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS battle_events (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	map_id    TEXT    NOT NULL,
	event_id  TEXT    NOT NULL,
	ts        INTEGER NOT NULL,
	round     INTEGER NOT NULL,
	actor     TEXT    NOT NULL,
	action    TEXT    NOT NULL,
	target    TEXT    NOT NULL DEFAULT '',
	result    TEXT    NOT NULL,
	damage    INTEGER NOT NULL DEFAULT 0,
	UNIQUE (map_id, event_id)
);
CREATE INDEX IF NOT EXISTS battle_events_map_seq ON battle_events (map_id, seq);
`

// Store persists battle events in SQLite
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the archive at path, creating the schema if needed
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, dnderr.InvalidArgument("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, dnderr.Wrap(err, "open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, dnderr.Wrap(err, "ping sqlite db")
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, dnderr.Wrap(err, "create schema")
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append archives one event. The same event id may appear once per map.
func (s *Store) Append(ctx context.Context, mapID string, event battle.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return dnderr.FailedPrecondition("archive is not open")
	}
	mapID = strings.TrimSpace(mapID)
	if mapID == "" {
		return dnderr.InvalidArgument("map id is required")
	}
	if event.ID == "" {
		return dnderr.InvalidArgument("event id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO battle_events (map_id, event_id, ts, round, actor, action, target, result, damage)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		mapID,
		event.ID,
		toMillis(event.Timestamp),
		event.Round,
		event.Actor,
		event.Action,
		event.Target,
		event.Result,
		event.Damage,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return dnderr.AlreadyExistsf("event %s already archived for map %s", event.ID, mapID)
		}
		return dnderr.Wrapf(err, "insert event %s", event.ID)
	}
	return nil
}

// List returns the most recent limit events of a map, oldest first. A limit
// of zero or less returns all of them.
func (s *Store) List(ctx context.Context, mapID string, limit int) ([]battle.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, dnderr.FailedPrecondition("archive is not open")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT event_id, ts, round, actor, action, target, result, damage FROM (
		   SELECT seq, event_id, ts, round, actor, action, target, result, damage
		   FROM battle_events
		   WHERE map_id = ?
		   ORDER BY seq DESC
		   LIMIT ?
		 ) ORDER BY seq ASC`,
		mapID,
		limit,
	)
	if err != nil {
		return nil, dnderr.Wrapf(err, "list events for map %s", mapID)
	}
	defer rows.Close()

	var events []battle.Event
	for rows.Next() {
		var (
			e  battle.Event
			ts int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Round, &e.Actor, &e.Action, &e.Target, &e.Result, &e.Damage); err != nil {
			return nil, dnderr.Wrap(err, "scan event")
		}
		e.Timestamp = fromMillis(ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dnderr.Wrap(err, "iterate events")
	}
	return events, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
