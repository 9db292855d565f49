/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package edit

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/undo"
	"edgepath/internal/vector"
)

// State is the gesture an edge is in.
type State uint8

const (
	Idle State = iota
	AnchorMoving
	Reconnecting
	MarkerDragging
)

func (s State) String() string {
	switch s {
	case AnchorMoving:
		return "anchor-moving"
	case Reconnecting:
		return "reconnecting"
	case MarkerDragging:
		return "marker-dragging"
	}
	return "idle"
}

// Session owns the waypoint list of one edge and applies gestures to it.
// It is safe for concurrent use; every mutation is a read-modify-write on
// the latest list. Out-of-state calls are ignored and logged at debug.
type Session struct {
	mu   sync.Mutex
	edge string
	alg  route.Algorithm
	opts route.Options

	wps   []route.Waypoint
	state State

	// gesture state
	moving  route.End
	handle  route.Handle
	before  []route.Waypoint
	working []route.Waypoint
	base    route.Route
	marker  route.ControlMarker
	dragID  string

	ids      IDFunc
	history  *undo.Manager
	onCommit func(edgeID string, wps []route.Waypoint)
	l        *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithIDs sets the waypoint id generator.
func WithIDs(f IDFunc) Option { return func(s *Session) { s.ids = f } }

// WithHistory records the list before every committed change.
func WithHistory(m *undo.Manager) Option { return func(s *Session) { s.history = m } }

// WithLogger overrides the session logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.l = l } }

// OnCommit registers a callback invoked with every committed list, after
// the session lock is released.
func OnCommit(fn func(edgeID string, wps []route.Waypoint)) Option {
	return func(s *Session) { s.onCommit = fn }
}

// NewSession starts an idle session for edgeID over the stored list wps.
func NewSession(edgeID string, wps []route.Waypoint, alg route.Algorithm, opts route.Options, options ...Option) *Session {
	s := &Session{
		edge: edgeID,
		alg:  alg.Or(route.DefaultAlgorithm),
		opts: opts.Normalize(),
		wps:  route.Clone(wps),
	}
	if s.wps == nil {
		s.wps = []route.Waypoint{}
	}
	for _, o := range options {
		o(s)
	}
	if s.l == nil {
		s.l = applog.WithComponent("edit")
	}
	s.l = s.l.With(slog.String(applog.KeyEdge, edgeID))
	return s
}

func (s *Session) EdgeID() string { return s.edge }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Waypoints returns a copy of the stored list.
func (s *Session) Waypoints() []route.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return route.Clone(s.wps)
}

func (s *Session) Algorithm() route.Algorithm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alg
}

// SetAlgorithm switches the routing algorithm. The stored list is kept.
func (s *Session) SetAlgorithm(alg route.Algorithm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alg = alg.Or(route.DefaultAlgorithm)
}

// Update replaces the stored list with fn applied to it. It is ignored while
// a gesture is in flight.
func (s *Session) Update(fn func([]route.Waypoint) []route.Waypoint) []route.Waypoint {
	s.mu.Lock()
	if !s.expect(Idle, "update") {
		defer s.mu.Unlock()
		return route.Clone(s.wps)
	}
	return s.commitLocked(s.wps, fn(route.Clone(s.wps)))
}

// Route computes the idle route of the edge for the given anchors.
func (s *Session) Route(from, to route.Anchor) route.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
}

// Path renders the idle route.
func (s *Session) Path(from, to route.Anchor) vector.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	return route.BuildPath(r, s.alg, s.opts)
}

// Markers derives the control markers of the current route. During a marker
// drag they reflect the uncommitted list.
func (s *Session) Markers(from, to route.Anchor) []route.ControlMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	wps := s.wps
	if s.state == MarkerDragging && s.dragID != "" {
		wps = s.working
	}
	r := route.Compute(from, to, wps, s.alg, route.DragState{}, s.opts)
	return route.Markers(r, s.alg, s.opts)
}

// NodeDragStart begins a drag of the node at end.
func (s *Session) NodeDragStart(end route.End) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(Idle, "node_drag_start") {
		return
	}
	s.enter("node_drag_start", AnchorMoving)
	s.moving = end
	s.before = route.Clone(s.wps)
}

// NodeDragMove realigns the route to the moved anchors. A non-empty stored
// list is replaced by the aligned one on every event.
func (s *Session) NodeDragMove(from, to route.Anchor) route.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(AnchorMoving, "node_drag_move") {
		return route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	}
	return s.nodeDragMoveLocked(from, to)
}

func (s *Session) nodeDragMoveLocked(from, to route.Anchor) route.Route {
	drag := route.DragState{Active: len(s.wps) > 0, Moving: s.moving}
	r := route.Compute(from, to, s.wps, s.alg, drag, s.opts)
	if len(s.wps) > 0 {
		s.wps = route.Clone(r.Waypoints)
	}
	return r
}

// NodeDragEnd applies the final anchors, simplifies collapsed jogs and
// returns the settled route.
func (s *Session) NodeDragEnd(from, to route.Anchor) route.Route {
	s.mu.Lock()
	if !s.expect(AnchorMoving, "node_drag_end") {
		defer s.mu.Unlock()
		return route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	}
	s.nodeDragMoveLocked(from, to)
	before, alg := s.before, s.alg
	s.enter("node_drag_end", Idle)
	s.moving, s.before = route.EndNone, nil
	wps := s.commitLocked(before, Simplify(s.wps, s.opts.SimplifyTolerance))
	return route.Compute(from, to, wps, alg, route.DragState{}, s.opts)
}

// ReconnectStart begins dragging the endpoint handle h to a new anchor.
func (s *Session) ReconnectStart(h route.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(Idle, "reconnect_start") || h == route.HandleNone {
		return
	}
	s.enter("reconnect_start", Reconnecting)
	s.handle = h
	s.before = route.Clone(s.wps)
	s.working = route.Clone(s.wps)
	if h == route.HandleSource {
		s.working = route.Reverse(s.working)
	}
}

// ReconnectMove computes the working route. When the source handle is being
// dragged from must be the stationary end. Nothing is persisted.
func (s *Session) ReconnectMove(from, to route.Anchor) route.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(Reconnecting, "reconnect_move") {
		return route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	}
	drag := route.DragState{Active: len(s.before) > 0, Reconnecting: s.handle}
	r := route.Compute(from, to, s.before, s.alg, drag, s.opts)
	s.working = route.Clone(r.Waypoints)
	return r
}

// ReconnectEnd finishes the gesture. On commit the working list is stored in
// source-to-target order; otherwise the list from ReconnectStart stays.
func (s *Session) ReconnectEnd(commit bool) []route.Waypoint {
	s.mu.Lock()
	if !s.expect(Reconnecting, "reconnect_end") {
		defer s.mu.Unlock()
		return route.Clone(s.wps)
	}
	before, working, h := s.before, s.working, s.handle
	s.enter("reconnect_end", Idle)
	s.handle, s.before, s.working = route.HandleNone, nil, nil
	if !commit {
		s.wps = before
		s.mu.Unlock()
		s.l.Debug("reconnect cancelled")
		return route.Clone(before)
	}
	if h == route.HandleSource {
		working = route.Reverse(working)
	}
	working, _ = Materialize(working, s.ids)
	return s.commitLocked(before, working)
}

// MarkerDragStart grabs the marker id of the route between from and to.
// It reports whether the marker exists.
func (s *Session) MarkerDragStart(from, to route.Anchor, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(Idle, "marker_drag_start") {
		return false
	}
	r := route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	m, ok := route.FindMarker(route.Markers(r, s.alg, s.opts), id)
	if !ok {
		s.l.Debug("unknown marker", slog.String("marker", id))
		return false
	}
	s.enter("marker_drag_start", MarkerDragging)
	s.base, s.marker = r, m
	s.before = route.Clone(s.wps)
	s.working, s.dragID = route.Clone(r.Waypoints), ""
	if m.Active {
		var renamed map[string]string
		s.working, renamed = Materialize(r.Waypoints, s.ids)
		s.dragID = rename(m.ID, renamed)
	}
	return true
}

// MarkerDragMove places the grabbed marker at its start position plus delta.
// The first move of an inactive marker activates it. The result is not
// persisted until MarkerDragEnd.
func (s *Session) MarkerDragMove(delta vector.Pt) []route.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expect(MarkerDragging, "marker_drag_move") {
		return route.Clone(s.wps)
	}
	pos := s.marker.Pt().Add(delta)
	if s.dragID == "" {
		s.working, s.dragID = Activate(s.base, s.marker, pos, s.alg, s.ids)
		return route.Clone(s.working)
	}
	r := route.Route{From: s.base.From, To: s.base.To, Waypoints: s.working}
	s.working = MoveWaypoint(r, s.dragID, pos, nil, s.alg, s.opts)
	return route.Clone(s.working)
}

// MarkerDragEnd commits or discards the drag and returns the stored list.
func (s *Session) MarkerDragEnd(commit bool) []route.Waypoint {
	s.mu.Lock()
	if !s.expect(MarkerDragging, "marker_drag_end") {
		defer s.mu.Unlock()
		return route.Clone(s.wps)
	}
	before, working, moved := s.before, s.working, s.dragID != ""
	s.enter("marker_drag_end", Idle)
	s.before, s.working, s.base, s.marker, s.dragID = nil, nil, route.Route{}, route.ControlMarker{}, ""
	if !commit || !moved {
		s.mu.Unlock()
		return route.Clone(before)
	}
	return s.commitLocked(before, working)
}

// Nudge moves the marker id one step in direction d, or activates it in
// place for DirNone. It returns the id of the waypoint under the marker.
func (s *Session) Nudge(from, to route.Anchor, id string, d Direction) string {
	s.mu.Lock()
	if !s.expect(Idle, "nudge") {
		s.mu.Unlock()
		return ""
	}
	r := route.Compute(from, to, s.wps, s.alg, route.DragState{}, s.opts)
	wps, wid := Nudge(r, id, d, s.alg, s.opts, s.ids)
	if wid == "" {
		s.mu.Unlock()
		s.l.Debug("unknown marker", slog.String("marker", id))
		return ""
	}
	s.commitLocked(s.wps, wps)
	return wid
}

// Delete removes the waypoint id from the stored list.
func (s *Session) Delete(id string) bool {
	s.mu.Lock()
	if !s.expect(Idle, "delete") || route.IndexOf(s.wps, id) < 0 {
		s.mu.Unlock()
		return false
	}
	s.commitLocked(s.wps, Delete(s.wps, id))
	return true
}

// Undo restores the list before the last committed change.
func (s *Session) Undo() bool {
	return s.step("undo", func(cur []byte) (undo.Snapshot, bool) { return s.history.Undo(s.edge, cur) })
}

// Redo re-applies the change undone last.
func (s *Session) Redo() bool {
	return s.step("redo", func(cur []byte) (undo.Snapshot, bool) { return s.history.Redo(s.edge, cur) })
}

func (s *Session) step(op string, fn func([]byte) (undo.Snapshot, bool)) bool {
	s.mu.Lock()
	if s.history == nil || !s.expect(Idle, op) {
		s.mu.Unlock()
		return false
	}
	cur, err := json.Marshal(s.wps)
	if err != nil {
		s.mu.Unlock()
		applog.WithOperation(s.l, op).Error("encode waypoints", slog.Any("err", err))
		return false
	}
	snap, ok := fn(cur)
	if !ok {
		s.mu.Unlock()
		return false
	}
	var wps []route.Waypoint
	if err := json.Unmarshal(snap.Blob, &wps); err != nil {
		s.mu.Unlock()
		applog.WithOperation(s.l, op).Error("decode waypoints", slog.Any("err", err))
		return false
	}
	if wps == nil {
		wps = []route.Waypoint{}
	}
	s.wps = wps
	cb, out := s.onCommit, route.Clone(wps)
	s.mu.Unlock()
	if cb != nil {
		cb(s.edge, out)
	}
	return true
}

// commitLocked stores next, records before in the history when the list
// changed and notifies the commit callback. It releases the lock.
func (s *Session) commitLocked(before, next []route.Waypoint) []route.Waypoint {
	if next == nil {
		next = []route.Waypoint{}
	}
	changed := !route.Equal(before, next)
	if changed && s.history != nil {
		if blob, err := json.Marshal(before); err == nil {
			s.history.Record(undo.Snapshot{EdgeID: s.edge, Blob: blob, TS: time.Now()})
		} else {
			s.l.Error("encode waypoints", slog.Any("err", err))
		}
	}
	s.wps = next
	cb, out := s.onCommit, route.Clone(next)
	s.mu.Unlock()
	if changed && cb != nil {
		cb(s.edge, out)
	}
	return out
}

// enter switches to st; the gesture op is logged at debug.
func (s *Session) enter(op string, st State) {
	applog.WithOperation(s.l, op).Debug("gesture", slog.String("from", s.state.String()), slog.String("to", st.String()))
	s.state = st
}

func (s *Session) expect(want State, op string) bool {
	if s.state == want {
		return true
	}
	applog.WithOperation(s.l, op).Debug("ignored out of state", slog.String("state", s.state.String()))
	return false
}
