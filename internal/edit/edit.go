/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package edit turns user gestures on control markers into waypoint list
// updates and keeps the per-edge gesture state (see Session).
package edit

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"edgepath/internal/route"
	"edgepath/internal/vector"
)

// IDFunc generates waypoint ids. Tests pass a deterministic sequence.
type IDFunc func() string

// NewID returns a random waypoint id.
func NewID() string { return uuid.NewString() }

func (f IDFunc) next() string {
	if f == nil {
		return NewID()
	}
	return f()
}

// Materialize gives every provisional waypoint a fresh id. The returned map
// translates old ids to new ones; it is empty when nothing was provisional.
func Materialize(wps []route.Waypoint, ids IDFunc) ([]route.Waypoint, map[string]string) {
	out := route.Clone(wps)
	renamed := make(map[string]string)
	for i, w := range out {
		if w.Provisional() {
			id := ids.next()
			renamed[w.ID] = id
			out[i].ID = id
		}
	}
	return out, renamed
}

func rename(id string, renamed map[string]string) string {
	if n, ok := renamed[id]; ok {
		return n
	}
	return id
}

// Activate turns the inactive marker m into a waypoint at pos. The new
// waypoint goes between the points named by the marker's corner link; a link
// that no longer matches the list falls back to the marker's segment index.
// For orthogonal routes the waypoints bounding the segment follow the new
// position along the segment's free axis. Anchors stay put, so a segment
// ending at an anchor gets a companion corner on the anchor's line and every
// segment stays axis-aligned. It returns the new list and the id of the
// inserted waypoint.
func Activate(r route.Route, m route.ControlMarker, pos vector.Pt, alg route.Algorithm, ids IDFunc) ([]route.Waypoint, string) {
	wps, renamed := Materialize(r.Waypoints, ids)
	idx := insertIndex(wps, m, renamed)

	orthogonal := alg.Or(route.DefaultAlgorithm).Orthogonal()
	var from, to vector.Pt
	vertical := false
	if orthogonal {
		pts := route.Route{From: r.From, To: r.To, Waypoints: wps}.Points()
		from, to = pts[0], pts[len(pts)-1]
		a, b := pts[idx], pts[idx+1]
		vertical = a.X == b.X && a.Y != b.Y
		for _, j := range []int{idx - 1, idx} {
			if j < 0 || j >= len(wps) {
				continue
			}
			if vertical {
				wps[j].X = pos.X
			} else {
				wps[j].Y = pos.Y
			}
		}
	}

	id := ids.next()
	inserted := []route.Waypoint{{ID: id, X: pos.X, Y: pos.Y}}
	if orthogonal {
		if idx == 0 {
			if c, ok := companion(pos, from, vertical); ok {
				inserted = append([]route.Waypoint{{ID: ids.next(), X: c.X, Y: c.Y}}, inserted...)
			}
		}
		if idx == len(wps) {
			if c, ok := companion(pos, to, vertical); ok {
				inserted = append(inserted, route.Waypoint{ID: ids.next(), X: c.X, Y: c.Y})
			}
		}
	}
	out := make([]route.Waypoint, 0, len(wps)+len(inserted))
	out = append(out, wps[:idx]...)
	out = append(out, inserted...)
	out = append(out, wps[idx:]...)
	return out, id
}

// companion is the corner joining an anchor to pos when a segment leaving
// the anchor was shifted off the anchor's line. ok is false when pos is
// still on that line.
func companion(pos, anchor vector.Pt, vertical bool) (vector.Pt, bool) {
	if vertical {
		return vector.Pt{X: anchor.X, Y: pos.Y}, !same(pos.X, anchor.X)
	}
	return vector.Pt{X: pos.X, Y: anchor.Y}, !same(pos.Y, anchor.Y)
}

// insertIndex is the waypoint index the activated marker takes.
func insertIndex(wps []route.Waypoint, m route.ControlMarker, renamed map[string]string) int {
	if l := m.CornerLink; l != nil {
		if l.Before != nil {
			if i := route.IndexOf(wps, rename(l.Before.ID, renamed)); i >= 0 {
				return i + 1
			}
		} else if l.After != nil {
			if i := route.IndexOf(wps, rename(l.After.ID, renamed)); i >= 0 {
				return i
			}
		}
	}
	return min(max(m.Segment, 0), len(wps))
}

// MoveWaypoint moves the waypoint id to pos. On orthogonal routes its linked
// neighbours keep their right angle: a neighbour sharing the old X takes the
// new X, one sharing the old Y takes the new Y. Neighbours are taken from
// link when given, otherwise from the list; linked ids absent from the list
// are ignored. Anchors never move: the first and last waypoint stay on the
// line leaving their anchor and only slide along it. Unknown ids leave the
// list unchanged.
func MoveWaypoint(r route.Route, id string, pos vector.Pt, link *route.CornerLink, alg route.Algorithm, opts route.Options) []route.Waypoint {
	wps := route.Clone(r.Waypoints)
	i := route.IndexOf(wps, id)
	if i < 0 {
		return wps
	}
	if opts.SnapThreshold > 0 {
		pos, _ = SnapToNeighbours(r, id, pos, opts)
	}
	old := wps[i]
	if !alg.Or(route.DefaultAlgorithm).Orthogonal() {
		wps[i] = old.At(pos)
		return wps
	}
	if i == 0 {
		pos = pin(pos, old.Pt(), r.From)
	}
	if i == len(wps)-1 {
		pos = pin(pos, old.Pt(), r.To)
	}
	wps[i] = old.At(pos)

	var neighbours []int
	if link != nil {
		for _, n := range []*route.Waypoint{link.Before, link.After} {
			if n == nil {
				continue
			}
			if j := route.IndexOf(wps, n.ID); j >= 0 && j != i {
				neighbours = append(neighbours, j)
			}
		}
	} else {
		for _, j := range []int{i - 1, i + 1} {
			if j >= 0 && j < len(wps) {
				neighbours = append(neighbours, j)
			}
		}
	}
	for _, j := range neighbours {
		n := wps[j]
		switch {
		case same(n.X, old.X):
			wps[j].X = pos.X
		case same(n.Y, old.Y):
			wps[j].Y = pos.Y
		}
	}
	return wps
}

// pin keeps pos on the line from anchor a through old. Which line that is
// follows from old; a waypoint off both lines uses the anchor side.
func pin(pos, old vector.Pt, a route.Anchor) vector.Pt {
	horizontal := !a.Side.Vertical()
	switch {
	case same(old.Y, a.Pt.Y) && !same(old.X, a.Pt.X):
		horizontal = true
	case same(old.X, a.Pt.X) && !same(old.Y, a.Pt.Y):
		horizontal = false
	}
	if horizontal {
		pos.Y = a.Pt.Y
	} else {
		pos.X = a.Pt.X
	}
	return pos
}

// SnapToNeighbours aligns pos with the route points adjacent to waypoint id,
// anchors included, and returns the guides to draw.
func SnapToNeighbours(r route.Route, id string, pos vector.Pt, opts route.Options) (vector.Pt, []vector.GuideLine) {
	i := route.IndexOf(r.Waypoints, id)
	if i < 0 {
		return pos, nil
	}
	pts := r.Points()
	targets := []vector.SnapTarget{{Pt: pts[i], Weight: 1}, {Pt: pts[i+2], Weight: 1}}
	return vector.SnapPoint(pos, targets, vector.SnapOptions{Threshold: opts.SnapThreshold})
}

// ApplyMarkerDrag applies a drag of delta to the marker markerID of r. An
// inactive marker is activated at its position plus delta, an active one
// moves its waypoint. Provisional waypoints are materialized in both cases.
// It returns the new list and the id of the waypoint under the marker; an
// unknown marker yields an unchanged list and an empty id.
func ApplyMarkerDrag(r route.Route, markerID string, delta vector.Pt, alg route.Algorithm, opts route.Options, ids IDFunc) ([]route.Waypoint, string) {
	m, ok := route.FindMarker(route.Markers(r, alg, opts), markerID)
	if !ok {
		return route.Clone(r.Waypoints), ""
	}
	return applyMarker(r, m, delta, alg, opts, ids)
}

func applyMarker(r route.Route, m route.ControlMarker, delta vector.Pt, alg route.Algorithm, opts route.Options, ids IDFunc) ([]route.Waypoint, string) {
	pos := m.Pt().Add(delta)
	if !m.Active {
		return Activate(r, m, pos, alg, ids)
	}
	wps := MoveWaypoint(r, m.ID, pos, m.CornerLink, alg, opts)
	wps, renamed := Materialize(wps, ids)
	return wps, rename(m.ID, renamed)
}

// Delete removes the waypoint id. The input is not modified.
func Delete(wps []route.Waypoint, id string) []route.Waypoint {
	out := make([]route.Waypoint, 0, len(wps))
	for _, w := range wps {
		if w.ID != id {
			out = append(out, w)
		}
	}
	return out
}

// Direction is a keyboard nudge direction. DirNone activates a marker in
// place.
type Direction uint8

const (
	DirNone Direction = iota
	DirLeft
	DirRight
	DirUp
	DirDown
)

// ParseDirection accepts left, right, up, down and the empty string (DirNone).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirNone, nil
	case "left":
		return DirLeft, nil
	case "right":
		return DirRight, nil
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) delta(step float64) vector.Pt {
	switch d {
	case DirLeft:
		return vector.Pt{X: -step}
	case DirRight:
		return vector.Pt{X: step}
	case DirUp:
		return vector.Pt{Y: -step}
	case DirDown:
		return vector.Pt{Y: step}
	}
	return vector.Pt{}
}

// Nudge moves the marker markerID one NudgeStep in direction d.
func Nudge(r route.Route, markerID string, d Direction, alg route.Algorithm, opts route.Options, ids IDFunc) ([]route.Waypoint, string) {
	return ApplyMarkerDrag(r, markerID, d.delta(opts.Normalize().NudgeStep), alg, opts, ids)
}

// Simplify drops the first two and then the last two waypoints when they
// coincide within tol on both axes, which is what a collapsed jog looks like
// after its node has been dragged level with the other end.
func Simplify(wps []route.Waypoint, tol float64) []route.Waypoint {
	out := route.Clone(wps)
	if tol <= 0 {
		tol = route.DefaultSimplifyTolerance
	}
	if len(out) >= 2 && collapsed(out[0], out[1], tol) {
		out = out[2:]
	}
	if n := len(out); n >= 2 && collapsed(out[n-2], out[n-1], tol) {
		out = out[:n-2]
	}
	return out
}

func collapsed(a, b route.Waypoint, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}

// FromConnection returns the bends of a freshly connected edge: the preview
// bends with persistent ids.
func FromConnection(from, to route.Anchor, opts route.Options, ids IDFunc) []route.Waypoint {
	wps, _ := route.ConnectionPreview(from, to, opts)
	out, _ := Materialize(wps, ids)
	if out == nil {
		out = []route.Waypoint{}
	}
	return out
}

func same(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }
