/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"edgepath/internal/diagram"
	applog "edgepath/internal/log"
	"edgepath/internal/route"
)

const BackupsDirName = "backups"

var (
	// ErrNoDocument is returned when neither the document nor a backup can be read.
	ErrNoDocument = errors.New("no diagram document")
	// ErrInvalidDocument wraps schema and model violations.
	ErrInvalidDocument = errors.New("invalid diagram document")
)

// Format is the on-disk encoding of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension; unknown extensions are JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DocumentHandle keeps track of a diagram loaded from or saved to disk.
// Dir holds the document, its backups folder and the embedded journal.
type DocumentHandle struct {
	Path     string
	Dir      string
	Format   Format
	Document diagram.Document
	// Recovered is set when Open fell back to a backup.
	Recovered bool
}

// Create writes a new document at path transactionally, creating parent folders.
func Create(path string, doc diagram.Document) (*DocumentHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("document path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	h := &DocumentHandle{Path: path, Dir: dir, Format: FormatFor(path), Document: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads and validates a document. If it cannot be read, parsed or
// validated, the latest valid backup is used instead.
func Open(path string) (*DocumentHandle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	h := &DocumentHandle{Path: path, Dir: filepath.Dir(path), Format: FormatFor(path)}
	b, err := os.ReadFile(path)
	if err == nil {
		var doc diagram.Document
		if err = Decode(b, h.Format, &doc); err == nil {
			h.Document = doc
			return h, nil
		}
	}
	doc, berr := openFromLatestBackup(h)
	if berr != nil {
		l.Error("document unreadable and no usable backup", slog.Any("err", err), slog.Any("backup_err", berr))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoDocument, path)
		}
		return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
	}
	l.Warn("document recovered from backup", slog.Any("err", err))
	h.Document, h.Recovered = *doc, true
	return h, nil
}

// Decode parses data in the given format, validates it against the document
// schema and checks identities and references.
func Decode(data []byte, f Format, doc *diagram.Document) error {
	var generic any
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &generic)
	} else {
		err = json.Unmarshal(data, &generic)
	}
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := ValidateSchema(generic); err != nil {
		return err
	}
	if f == FormatYAML {
		err = yaml.Unmarshal(data, doc)
	} else {
		err = json.Unmarshal(data, doc)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// Encode renders doc in the given format. Empty waypoint lists are written
// as [] rather than null.
func Encode(doc diagram.Document, f Format) ([]byte, error) {
	doc.Edges = append([]diagram.Edge(nil), doc.Edges...)
	for i := range doc.Edges {
		if doc.Edges[i].Waypoints == nil {
			doc.Edges[i].Waypoints = []route.Waypoint{}
		}
	}
	if doc.Nodes == nil {
		doc.Nodes = []diagram.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []diagram.Edge{}
	}
	if f == FormatYAML {
		return yaml.Marshal(doc)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes the document to disk with transactional semantics
// and a timestamped backup of the previous file (if present).
func Save(h *DocumentHandle) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if h.Path == "" || h.Dir == "" {
		return errors.New("invalid DocumentHandle: missing paths")
	}
	data, err := Encode(h.Document, h.Format)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	bdir := filepath.Join(h.Dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	base := filepath.Base(h.Path)
	if _, statErr := os.Stat(h.Path); statErr == nil {
		stamp := time.Now().Format("20060102-150405.000000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", base, stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	temp := filepath.Join(h.Dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.Path); err == nil {
		_ = os.Remove(h.Path)
	}
	if rerr := os.Rename(temp, h.Path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new path (the format follows the new extension) and updates the handle.
func SaveAs(h *DocumentHandle, newPath string) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	dir := filepath.Dir(newPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	h.Path, h.Dir, h.Format = newPath, dir, FormatFor(newPath)
	return Save(h)
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// Backups lists the backups of the handle's document, oldest first.
func Backups(h *DocumentHandle) ([]string, error) {
	bdir := filepath.Join(h.Dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(h.Path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// openFromLatestBackup returns the newest backup that decodes and validates.
func openFromLatestBackup(h *DocumentHandle) (*diagram.Document, error) {
	candidates, err := Backups(h)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		b, err := os.ReadFile(candidates[i])
		if err != nil {
			lastErr = err
			continue
		}
		var doc diagram.Document
		if err := Decode(b, h.Format, &doc); err != nil {
			lastErr = err
			continue
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("no usable backup: %w", lastErr)
}

// AutosaveCrashSnapshot writes the in-memory document next to the backups as
// <file>.<stamp>.crash. It is not picked up by backup recovery; the user
// restores it explicitly.
func AutosaveCrashSnapshot(h *DocumentHandle) (string, error) {
	if h == nil || h.Dir == "" {
		return "", errors.New("invalid DocumentHandle")
	}
	data, err := Encode(h.Document, h.Format)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	bdir := filepath.Join(h.Dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405.000000")
	path := filepath.Join(bdir, fmt.Sprintf("%s.%s.crash", filepath.Base(h.Path), stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}
