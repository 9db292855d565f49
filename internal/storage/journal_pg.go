/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "edgepath/internal/log"
	"edgepath/internal/route"
)

//go:embed migrations/pg/*.sql
var pgMigrationsFS embed.FS

// PostgresJournal shares the journal between editors through one database.
type PostgresJournal struct {
	db *sql.DB
}

// OpenPostgresJournal connects, pings and applies the embedded migrations.
func OpenPostgresJournal(ctx context.Context, dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyPGMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresJournal{db: db}, nil
}

func applyPGMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "pg_migrate")
	entries, err := pgMigrationsFS.ReadDir("migrations/pg")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasSuffix(strings.ToLower(name), ".sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := pgMigrationsFS.ReadFile(path.Join("migrations/pg", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, string(b)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, v, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (j *PostgresJournal) Append(ctx context.Context, edgeID string, wps []route.Waypoint, ts time.Time) error {
	blob, err := encodeWaypoints(wps)
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, `INSERT INTO waypoint_journal(edge_id, ts, waypoints) VALUES($1, $2, $3::jsonb)`, edgeID, ts.UTC(), string(blob))
	return err
}

func (j *PostgresJournal) Latest(ctx context.Context, edgeID string) (Entry, bool, error) {
	var ts time.Time
	var raw string
	err := j.db.QueryRowContext(ctx, `SELECT ts, waypoints::text FROM waypoint_journal WHERE edge_id=$1 ORDER BY ts DESC, id DESC LIMIT 1`, edgeID).Scan(&ts, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	wps, err := decodeWaypoints([]byte(raw))
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{EdgeID: edgeID, TS: ts, Waypoints: wps}, true, nil
}

func (j *PostgresJournal) List(ctx context.Context, edgeID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `SELECT ts, waypoints::text FROM waypoint_journal WHERE edge_id=$1 ORDER BY ts DESC, id DESC LIMIT $2`, edgeID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var ts time.Time
		var raw string
		if err := rows.Scan(&ts, &raw); err != nil {
			return nil, err
		}
		wps, err := decodeWaypoints([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{EdgeID: edgeID, TS: ts, Waypoints: wps})
	}
	return out, rows.Err()
}

func (j *PostgresJournal) Prune(ctx context.Context, edgeID string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, `DELETE FROM waypoint_journal WHERE edge_id=$1 AND id NOT IN (
		SELECT id FROM waypoint_journal WHERE edge_id=$1 ORDER BY ts DESC, id DESC LIMIT $2
	)`, edgeID, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (j *PostgresJournal) Ping(ctx context.Context) error { return j.db.PingContext(ctx) }

func (j *PostgresJournal) Close() error { return j.db.Close() }
