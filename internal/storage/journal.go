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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"edgepath/internal/config"
	"edgepath/internal/route"
)

// ErrUnknownDriver is returned by OpenJournal for unsupported drivers.
var ErrUnknownDriver = errors.New("unknown journal driver")

// Entry is one committed waypoint list of an edge.
type Entry struct {
	EdgeID    string
	TS        time.Time
	Waypoints []route.Waypoint
}

// Journal records committed waypoint lists per edge, newest first on read.
type Journal interface {
	Append(ctx context.Context, edgeID string, wps []route.Waypoint, ts time.Time) error
	// Latest returns ok=false when the edge has no entries.
	Latest(ctx context.Context, edgeID string) (Entry, bool, error)
	List(ctx context.Context, edgeID string, limit int) ([]Entry, error)
	// Prune keeps the newest keepLast entries of the edge and returns how many were removed.
	Prune(ctx context.Context, edgeID string, keepLast int) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// OpenJournal opens the journal selected by cfg. docDir is used for the
// sqlite journal when cfg.Dir is empty. Driver "none" yields a no-op journal.
func OpenJournal(ctx context.Context, cfg config.JournalConfig, docDir string) (Journal, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		dir := cfg.Dir
		if dir == "" {
			dir = docDir
		}
		j, err := OpenSQLiteJournal(dir)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "postgres", "pg":
		if cfg.DSN == "" {
			return nil, errors.New("postgres journal requires a dsn")
		}
		j, err := OpenPostgresJournal(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return j, nil
	case "none":
		return nopJournal{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Record appends wps and prunes the edge down to keepLast entries (keepLast <= 0 keeps all).
func Record(ctx context.Context, j Journal, edgeID string, wps []route.Waypoint, keepLast int) error {
	if err := j.Append(ctx, edgeID, wps, time.Now()); err != nil {
		return err
	}
	if keepLast > 0 {
		if _, err := j.Prune(ctx, edgeID, keepLast); err != nil {
			return err
		}
	}
	return nil
}

func encodeWaypoints(wps []route.Waypoint) ([]byte, error) {
	if wps == nil {
		wps = []route.Waypoint{}
	}
	return json.Marshal(wps)
}

func decodeWaypoints(b []byte) ([]route.Waypoint, error) {
	var wps []route.Waypoint
	if err := json.Unmarshal(b, &wps); err != nil {
		return nil, fmt.Errorf("decode waypoints: %w", err)
	}
	if wps == nil {
		wps = []route.Waypoint{}
	}
	return wps, nil
}

type nopJournal struct{}

func (nopJournal) Append(context.Context, string, []route.Waypoint, time.Time) error { return nil }
func (nopJournal) Latest(context.Context, string) (Entry, bool, error)               { return Entry{}, false, nil }
func (nopJournal) List(context.Context, string, int) ([]Entry, error)                { return nil, nil }
func (nopJournal) Prune(context.Context, string, int) (int64, error)                 { return 0, nil }
func (nopJournal) Ping(context.Context) error                                        { return nil }
func (nopJournal) Close() error                                                      { return nil }
