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
	"errors"
	"os"
	"testing"
	"time"

	"edgepath/internal/config"
	"edgepath/internal/route"
)

// exerciseJournal runs the same append/list/prune sequence against any backend.
func exerciseJournal(t *testing.T, j Journal, edgeID string) {
	t.Helper()
	ctx := context.Background()
	if _, ok, err := j.Latest(ctx, edgeID); err != nil || ok {
		t.Fatalf("expected empty journal, got ok=%v err=%v", ok, err)
	}
	base := time.Now()
	for i := 0; i < 6; i++ {
		wps := []route.Waypoint{{ID: "w1", X: float64(i), Y: 10}}
		if err := j.Append(ctx, edgeID, wps, base.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if err := j.Append(ctx, edgeID+"-other", nil, base); err != nil {
		t.Fatalf("Append other: %v", err)
	}
	e, ok, err := j.Latest(ctx, edgeID)
	if err != nil || !ok || e.Waypoints[0].X != 5 {
		t.Fatalf("Latest got %+v ok=%v err=%v", e, ok, err)
	}
	list, err := j.List(ctx, edgeID, 10)
	if err != nil || len(list) != 6 || list[0].Waypoints[0].X != 5 || list[5].Waypoints[0].X != 0 {
		t.Fatalf("List got %+v err %v", list, err)
	}
	n, err := j.Prune(ctx, edgeID, 3)
	if err != nil || n != 3 {
		t.Fatalf("Prune removed %d err %v", n, err)
	}
	list, err = j.List(ctx, edgeID, 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("List after prune got %d err %v", len(list), err)
	}
	other, ok, err := j.Latest(ctx, edgeID+"-other")
	if err != nil || !ok || other.Waypoints == nil || len(other.Waypoints) != 0 {
		t.Fatalf("other edge should keep an empty list, got %+v ok=%v err=%v", other, ok, err)
	}
}

func TestSQLiteJournal(t *testing.T) {
	j, err := OpenSQLiteJournal(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLiteJournal: %v", err)
	}
	defer func() { _ = j.Close() }()
	exerciseJournal(t, j, "e1")
	if v, err := j.SchemaVersion(context.Background()); err != nil || v != schemaVersion {
		t.Fatalf("schema version %d err %v", v, err)
	}
	if _, err := os.Stat(j.Path()); err != nil {
		t.Fatalf("journal file missing: %v", err)
	}
}

func TestSQLiteJournalReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	j, err := OpenSQLiteJournal(dir)
	if err != nil {
		t.Fatalf("OpenSQLiteJournal: %v", err)
	}
	if err := Record(ctx, j, "e1", []route.Waypoint{{ID: "a", X: 1, Y: 2}}, 1); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = j.Close()
	j, err = OpenSQLiteJournal(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = j.Close() }()
	e, ok, err := j.Latest(ctx, "e1")
	if err != nil || !ok || e.Waypoints[0].ID != "a" {
		t.Fatalf("entry lost across reopen: %+v ok=%v err=%v", e, ok, err)
	}
}

func TestOpenJournalDrivers(t *testing.T) {
	ctx := context.Background()
	j, err := OpenJournal(ctx, config.JournalConfig{Driver: "none"}, "")
	if err != nil {
		t.Fatalf("none driver: %v", err)
	}
	if err := Record(ctx, j, "e", nil, 5); err != nil {
		t.Fatalf("nop Record: %v", err)
	}
	if _, err := OpenJournal(ctx, config.JournalConfig{Driver: "mongo"}, ""); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
	if _, err := OpenJournal(ctx, config.JournalConfig{Driver: "postgres"}, ""); err == nil {
		t.Fatalf("postgres without dsn must fail")
	}
	dir := t.TempDir()
	j, err = OpenJournal(ctx, config.JournalConfig{}, dir)
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	defer func() { _ = j.Close() }()
	if _, err := os.Stat(JournalPath(dir)); err != nil {
		t.Fatalf("sqlite journal should live next to the document: %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/pg/0002_journal_edge_ts_index.sql"); err != nil || v != 2 {
		t.Fatalf("parseVersion got %d err %v", v, err)
	}
	if _, err := parseVersion("latest.sql"); err == nil {
		t.Fatalf("expected error for unnumbered file")
	}
}
