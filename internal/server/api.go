/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edgepath/internal/edit"
	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/storage"
	"edgepath/internal/vector"
)

const maxBody = 1 << 20

// Point is a plain JSON coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) pt() vector.Pt { return vector.Pt{X: p.X, Y: p.Y} }

// Box is a node's bounding box.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// AnchorJSON is one end of an edge. Node is omitted for a free end.
type AnchorJSON struct {
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
	Side vector.Side `json:"side,omitempty"`
	Node *Box        `json:"node,omitempty"`
}

func (a AnchorJSON) anchor() route.Anchor {
	out := route.Anchor{Pt: vector.Pt{X: a.X, Y: a.Y}, Side: a.Side}
	if a.Node != nil {
		r := vector.R(a.Node.X, a.Node.Y, a.Node.W, a.Node.H)
		out.Node = &r
	}
	return out
}

// DragJSON mirrors route.DragState. Moving is source, target or both;
// Reconnecting is source or target.
type DragJSON struct {
	Active       bool   `json:"active,omitempty"`
	Moving       string `json:"moving,omitempty"`
	Reconnecting string `json:"reconnecting,omitempty"`
}

func (d *DragJSON) state() (route.DragState, error) {
	var st route.DragState
	if d == nil {
		return st, nil
	}
	st.Active = d.Active
	switch strings.ToLower(d.Moving) {
	case "":
	case "source":
		st.Moving = route.EndSource
	case "target":
		st.Moving = route.EndTarget
	case "both":
		st.Moving = route.EndBoth
	default:
		return st, fmt.Errorf("unknown moving end %q", d.Moving)
	}
	switch strings.ToLower(d.Reconnecting) {
	case "":
	case "source":
		st.Reconnecting = route.HandleSource
	case "target":
		st.Reconnecting = route.HandleTarget
	default:
		return st, fmt.Errorf("unknown reconnect handle %q", d.Reconnecting)
	}
	return st, nil
}

// RouteRequest describes an edge for one frame.
type RouteRequest struct {
	From      AnchorJSON       `json:"from"`
	To        AnchorJSON       `json:"to"`
	Waypoints []route.Waypoint `json:"waypoints"`
	Algorithm string           `json:"algorithm,omitempty"`
	Drag      *DragJSON        `json:"drag,omitempty"`
}

// RouteResponse carries the computed route, its markers and the SVG path data.
type RouteResponse struct {
	Algorithm string                `json:"algorithm"`
	Waypoints []route.Waypoint      `json:"waypoints"`
	Points    []Point               `json:"points"`
	Markers   []route.ControlMarker `json:"markers"`
	Path      string                `json:"path"`
}

// MarkerRequest drags or nudges a marker of the described edge. Direction,
// when set, takes precedence over Delta.
type MarkerRequest struct {
	RouteRequest
	Marker    string `json:"marker"`
	Delta     Point  `json:"delta"`
	Direction string `json:"direction,omitempty"`
}

// MarkerResponse is the committed waypoint list after the gesture.
type MarkerResponse struct {
	Waypoints  []route.Waypoint `json:"waypoints"`
	WaypointID string           `json:"waypointId"`
	Path       string           `json:"path"`
}

// SimplifyRequest asks to drop collapsed jogs; Tolerance <= 0 uses the engine default.
type SimplifyRequest struct {
	Waypoints []route.Waypoint `json:"waypoints"`
	Tolerance float64          `json:"tolerance,omitempty"`
}

// HistoryEntry is one journaled waypoint list.
type HistoryEntry struct {
	TS        time.Time        `json:"ts"`
	Waypoints []route.Waypoint `json:"waypoints"`
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (s *Server) algorithm(name string) (route.Algorithm, error) {
	if strings.TrimSpace(name) == "" {
		return s.engine.Algorithm(), nil
	}
	return route.ParseAlgorithm(name)
}

func (s *Server) compute(req RouteRequest) (route.Route, route.Algorithm, error) {
	alg, err := s.algorithm(req.Algorithm)
	if err != nil {
		return route.Route{}, "", err
	}
	drag, err := req.Drag.state()
	if err != nil {
		return route.Route{}, "", err
	}
	r := route.Compute(req.From.anchor(), req.To.anchor(), req.Waypoints, alg, drag, s.engine.Options())
	return r, alg, nil
}

func points(r route.Route) []Point {
	pts := r.Points()
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

// POST /api/route
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rt, alg, err := s.compute(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts := s.engine.Options()
	markers := route.Markers(rt, alg, opts)
	if markers == nil {
		markers = []route.ControlMarker{}
	}
	writeJSON(w, http.StatusOK, RouteResponse{
		Algorithm: string(alg),
		Waypoints: rt.Waypoints,
		Points:    points(rt),
		Markers:   markers,
		Path:      route.BuildPath(rt, alg, opts).String(),
	})
}

// POST /api/markers
func (s *Server) handleMarker(w http.ResponseWriter, r *http.Request) {
	var req MarkerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Marker == "" {
		writeError(w, http.StatusBadRequest, errors.New("marker is required"))
		return
	}
	rt, alg, err := s.compute(req.RouteRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	opts := s.engine.Options()
	if _, ok := route.FindMarker(route.Markers(rt, alg, opts), req.Marker); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown marker %q", req.Marker))
		return
	}
	var (
		wps []route.Waypoint
		id  string
	)
	if req.Direction != "" {
		d, err := edit.ParseDirection(req.Direction)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		wps, id = edit.Nudge(rt, req.Marker, d, alg, opts, s.ids)
	} else {
		wps, id = edit.ApplyMarkerDrag(rt, req.Marker, req.Delta.pt(), alg, opts, s.ids)
	}
	next := route.Route{From: rt.From, To: rt.To, Waypoints: wps}
	writeJSON(w, http.StatusOK, MarkerResponse{
		Waypoints:  wps,
		WaypointID: id,
		Path:       route.BuildPath(next, alg, opts).String(),
	})
}

// POST /api/simplify
func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	var req SimplifyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tol := req.Tolerance
	if tol <= 0 {
		tol = s.engine.Options().SimplifyTolerance
	}
	out := edit.Simplify(req.Waypoints, tol)
	if out == nil {
		out = []route.Waypoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"waypoints": out})
}

// GET /api/edges/{id}/history?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sub string) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no journal configured"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	edgeID := r.PathValue("id")
	entries, err := s.journal.List(r.Context(), edgeID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{TS: e.TS.UTC(), Waypoints: e.Waypoints})
	}
	writeJSON(w, http.StatusOK, map[string]any{"edge": edgeID, "entries": out})
}

// POST /api/edges/{id}/history {waypoints}
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, sub string) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no journal configured"))
		return
	}
	var req struct {
		Waypoints []route.Waypoint `json:"waypoints"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	edgeID := r.PathValue("id")
	ctx := applog.WithEdge(r.Context(), edgeID)
	if err := storage.Record(ctx, s.journal, edgeID, req.Waypoints, s.keepLast); err != nil {
		s.l.ErrorContext(ctx, "record failed", slog.String("subject", sub), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.l.InfoContext(ctx, "waypoints recorded", slog.String("subject", sub), slog.Int("count", len(req.Waypoints)))
	w.WriteHeader(http.StatusNoContent)
}
