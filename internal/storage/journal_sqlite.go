/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// JournalDirName holds per-document state next to the diagram file.
	JournalDirName  = ".edgepath"
	JournalFileName = "journal.sqlite"

	// schemaVersion tracks the local SQLite journal schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2

	// tsLayout is fixed-width so that ts sorts correctly as TEXT.
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// language=SQL
// dialect=SQLite
const insertJournalSQL = `INSERT INTO waypoint_journal(edge_id, ts, waypoints) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestJournalSQL = `SELECT ts, waypoints FROM waypoint_journal WHERE edge_id = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listJournalSQL = `SELECT ts, waypoints FROM waypoint_journal WHERE edge_id = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneJournalSQL = `DELETE FROM waypoint_journal WHERE edge_id = ? AND id NOT IN (
	SELECT id FROM waypoint_journal WHERE edge_id = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// JournalPath returns the full path to the document directory's journal database file.
func JournalPath(dir string) string {
	return filepath.Join(dir, JournalDirName, JournalFileName)
}

// SQLiteJournal is the embedded journal stored under <dir>/.edgepath/journal.sqlite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// OpenSQLiteJournal ensures the journal database exists, enables WAL mode and
// brings the schema up to date.
func OpenSQLiteJournal(dir string) (*SQLiteJournal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("journal directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, JournalDirName), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", JournalDirName, err)
	}

	path := JournalPath(dir)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureJournalSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready", slog.String("path", path))
	return &SQLiteJournal{db: db, path: path}, nil
}

// Path is the database file backing the journal.
func (j *SQLiteJournal) Path() string { return j.path }

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at version 1 and migrates forward like an old one.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureJournalSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS waypoint_journal (
		id        INTEGER PRIMARY KEY,
		edge_id   TEXT    NOT NULL,
		ts        TEXT    NOT NULL,
		waypoints BLOB    NOT NULL
	);`); err != nil {
		return fmt.Errorf("ensure journal schema: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Written by a newer build; do not downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_waypoint_journal_edge_ts ON waypoint_journal(edge_id, ts);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// SchemaVersion reports the schema version recorded in the database.
func (j *SQLiteJournal) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := j.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func (j *SQLiteJournal) Append(ctx context.Context, edgeID string, wps []route.Waypoint, ts time.Time) error {
	blob, err := encodeWaypoints(wps)
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, insertJournalSQL, edgeID, ts.UTC().Format(tsLayout), blob)
	return err
}

func (j *SQLiteJournal) Latest(ctx context.Context, edgeID string) (Entry, bool, error) {
	var tsStr string
	var blob []byte
	err := j.db.QueryRowContext(ctx, selectLatestJournalSQL, edgeID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	wps, err := decodeWaypoints(blob)
	if err != nil {
		return Entry{}, false, err
	}
	ts, _ := time.Parse(tsLayout, tsStr)
	return Entry{EdgeID: edgeID, TS: ts, Waypoints: wps}, true, nil
}

// List returns up to limit most recent entries; limit <= 0 means 50.
func (j *SQLiteJournal) List(ctx context.Context, edgeID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, listJournalSQL, edgeID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		wps, err := decodeWaypoints(blob)
		if err != nil {
			return nil, err
		}
		ts, _ := time.Parse(tsLayout, tsStr)
		out = append(out, Entry{EdgeID: edgeID, TS: ts, Waypoints: wps})
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Prune(ctx context.Context, edgeID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, pruneJournalSQL, edgeID, edgeID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (j *SQLiteJournal) Ping(ctx context.Context) error { return j.db.PingContext(ctx) }

func (j *SQLiteJournal) Close() error { return j.db.Close() }
