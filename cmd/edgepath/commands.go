/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"edgepath/internal/bundle"
	"edgepath/internal/diagram"
	"edgepath/internal/edit"
	"edgepath/internal/export"
	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/server"
	"edgepath/internal/storage"
	"edgepath/internal/undo"
	"edgepath/internal/vector"
	"edgepath/internal/watch"
)

func (a *app) open(path string) (*storage.DocumentHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(abs)
	if err != nil {
		return nil, err
	}
	if h.Recovered {
		_, _ = fmt.Fprintln(a.out, "Warning: document was unreadable, loaded the latest backup")
	}
	a.h = h
	return h, nil
}

func (a *app) edge(h *storage.DocumentHandle, id string) (*diagram.Edge, error) {
	e, ok := h.Document.EdgeByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown edge %q", id)
	}
	return e, nil
}

func (a *app) route(path, edgeID string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	opts := a.cfg.Engine.Options()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range h.Document.Edges {
		if edgeID != "" && e.ID != edgeID {
			continue
		}
		r, err := h.Document.Route(e, opts)
		if err != nil {
			return err
		}
		alg := e.Algorithm.Or(a.cfg.Engine.Algorithm())
		_, _ = fmt.Fprintf(tw, "edge %s\t%s -> %s\t%s\t%s\n", e.ID, e.Source, e.Target, alg.Label(), e.Color().Hex())
		pts := make([]string, 0, len(r.Points()))
		for _, p := range r.Points() {
			pts = append(pts, fmt.Sprintf("(%s,%s)", vector.FormatFloat(p.X), vector.FormatFloat(p.Y)))
		}
		_, _ = fmt.Fprintf(tw, "  points\t%s\n", strings.Join(pts, " "))
		for _, m := range route.Markers(r, alg, opts) {
			kind := "segment"
			if m.Active {
				kind = "waypoint"
			}
			_, _ = fmt.Fprintf(tw, "  marker %s\t%s\t(%s,%s)\n", m.ID, kind, vector.FormatFloat(m.X), vector.FormatFloat(m.Y))
		}
		_, _ = fmt.Fprintf(tw, "  path\t%s\n", route.BuildPath(r, alg, opts).String())
	}
	return tw.Flush()
}

func (a *app) exportOptions() export.Options {
	return export.OptionsFrom(a.cfg)
}

func (a *app) svg(path, out string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	if err := export.WriteSVGFile(out, &h.Document, a.exportOptions()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

func (a *app) pdf(path, out, page string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	po := export.PDFOptions{Options: a.exportOptions()}
	switch strings.ToLower(page) {
	case "":
	case "a4":
		po.PageWidth, po.PageHeight = export.PageA4[0], export.PageA4[1]
	case "letter":
		po.PageWidth, po.PageHeight = export.PageLetter[0], export.PageLetter[1]
	default:
		return fmt.Errorf("unknown page size %q", page)
	}
	if err := export.WritePDFFile(out, &h.Document, po); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

func (a *app) batch(path, dir, preset string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
	files, err := export.BatchExport(&h.Document, export.BatchOptions{
		Preset:  export.PresetName(strings.ToLower(preset)),
		OutDir:  dir,
		Base:    base,
		Options: a.exportOptions(),
	})
	for _, f := range files {
		_, _ = fmt.Fprintln(a.out, "Wrote", f)
	}
	return err
}

func (a *app) watch(ctx context.Context, path, out string) error {
	if err := a.svg(path, out); err != nil {
		return err
	}
	return watch.File(ctx, path, watch.DefaultDebounce, func() error {
		return a.svg(path, out)
	})
}

// withJournal opens the journal configured for h and closes it after fn.
func (a *app) withJournal(ctx context.Context, h *storage.DocumentHandle, fn func(storage.Journal) error) error {
	j, err := storage.OpenJournal(ctx, a.cfg.Journal, h.Dir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if cerr := j.Close(); cerr != nil {
			a.l.Warn("close journal", slog.Any("err", cerr))
		}
	}()
	return fn(j)
}

func (a *app) nudge(ctx context.Context, path, edgeID, markerID, dir string) error {
	d, err := edit.ParseDirection(dir)
	if err != nil {
		return err
	}
	h, err := a.open(path)
	if err != nil {
		return err
	}
	e, err := a.edge(h, edgeID)
	if err != nil {
		return err
	}
	from, to, err := h.Document.Anchors(*e)
	if err != nil {
		return err
	}
	return a.withJournal(ctx, h, func(j storage.Journal) error {
		var commitErr error
		s := edit.NewSession(e.ID, e.Waypoints, e.Algorithm.Or(a.cfg.Engine.Algorithm()), a.cfg.Engine.Options(),
			edit.WithHistory(undo.NewManager(undo.Config{})),
			edit.OnCommit(func(edgeID string, wps []route.Waypoint) {
				e.Waypoints = wps
				commitErr = errors.Join(commitErr, storage.Record(applog.WithEdge(ctx, edgeID), j, edgeID, wps, a.cfg.Journal.KeepLast))
			}))
		id := s.Nudge(from, to, markerID, d)
		if id == "" {
			return fmt.Errorf("unknown marker %q on edge %s", markerID, e.ID)
		}
		if commitErr != nil {
			return commitErr
		}
		if err := storage.Save(h); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Moved %s on %s\n", id, e.ID)
		return nil
	})
}

func (a *app) simplify(ctx context.Context, path string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	tol := a.cfg.Engine.Options().SimplifyTolerance
	return a.withJournal(ctx, h, func(j storage.Journal) error {
		changed := 0
		for i := range h.Document.Edges {
			e := &h.Document.Edges[i]
			next := edit.Simplify(e.Waypoints, tol)
			if route.Equal(next, e.Waypoints) {
				continue
			}
			e.Waypoints = next
			changed++
			if err := storage.Record(ctx, j, e.ID, next, a.cfg.Journal.KeepLast); err != nil {
				return err
			}
		}
		if changed > 0 {
			if err := storage.Save(h); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintf(a.out, "Simplified %d edge(s)\n", changed)
		return nil
	})
}

func (a *app) history(ctx context.Context, path, edgeID string, limit int) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	if _, err := a.edge(h, edgeID); err != nil {
		return err
	}
	return a.withJournal(ctx, h, func(j storage.Journal) error {
		entries, err := j.List(ctx, edgeID, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			_, _ = fmt.Fprintln(a.out, "No journal entries for", edgeID)
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for i, en := range entries {
			pts := make([]string, 0, len(en.Waypoints))
			for _, w := range en.Waypoints {
				pts = append(pts, fmt.Sprintf("%s(%s,%s)", w.ID, vector.FormatFloat(w.X), vector.FormatFloat(w.Y)))
			}
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i, en.TS.Local().Format(time.DateTime), strings.Join(pts, " "))
		}
		return tw.Flush()
	})
}

func (a *app) restore(ctx context.Context, path, edgeID string, n int) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	e, err := a.edge(h, edgeID)
	if err != nil {
		return err
	}
	return a.withJournal(ctx, h, func(j storage.Journal) error {
		entries, err := j.List(ctx, edgeID, n+1)
		if err != nil {
			return err
		}
		if n >= len(entries) {
			return fmt.Errorf("edge %s has %d journal entries", edgeID, len(entries))
		}
		e.Waypoints = route.Clone(entries[n].Waypoints)
		if err := storage.Save(h); err != nil {
			return err
		}
		if err := storage.Record(ctx, j, edgeID, e.Waypoints, a.cfg.Journal.KeepLast); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "Restored %s to entry %d\n", edgeID, n)
		return nil
	})
}

// serve runs the HTTP API until ctx is done. The sqlite journal lives in dir,
// the working directory by default.
func (a *app) serve(ctx context.Context, addr, dir string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	if dir == "" {
		dir = "."
	}
	j, err := storage.OpenJournal(ctx, a.cfg.Journal, dir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() {
		if cerr := j.Close(); cerr != nil {
			a.l.Warn("close journal", slog.Any("err", cerr))
		}
	}()
	return server.New(a.cfg, j).ListenAndServe(ctx, addr)
}

func (a *app) pack(path, out string) error {
	h, err := a.open(path)
	if err != nil {
		return err
	}
	if err := bundle.Pack(h, out, a.exportOptions()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

func (a *app) unpack(zipPath, dir string) error {
	n, err := bundle.Unpack(zipPath, dir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "Installed %d file(s) into %s\n", n, dir)
	return nil
}
