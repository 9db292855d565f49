/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package route computes edge routes between two anchors: orthogonal
// right-angle routes, Catmull-Rom/Bezier splines, their path data and the
// control markers used to insert bend points. Everything in this package is
// a pure function of its inputs.
package route

import (
	"fmt"
	"strings"

	"edgepath/internal/vector"
)

// ProvisionalPrefix marks ids of bends the router synthesized but nobody has
// persisted yet. They are deterministic so recomputing a route is idempotent.
const ProvisionalPrefix = "auto-"

// Waypoint is a persisted bend point with a stable identity.
type Waypoint struct {
	ID string  `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

func (w Waypoint) Pt() vector.Pt { return vector.Pt{X: w.X, Y: w.Y} }

// At returns a copy of w moved to p.
func (w Waypoint) At(p vector.Pt) Waypoint { return Waypoint{ID: w.ID, X: p.X, Y: p.Y} }

// Provisional reports whether w still carries a router-generated id.
func (w Waypoint) Provisional() bool { return strings.HasPrefix(w.ID, ProvisionalPrefix) }

func provisional(i int, p vector.Pt) Waypoint {
	return Waypoint{ID: fmt.Sprintf("%s%d", ProvisionalPrefix, i), X: p.X, Y: p.Y}
}

func provisionalList(pts ...vector.Pt) []Waypoint {
	out := make([]Waypoint, len(pts))
	for i, p := range pts {
		out[i] = provisional(i, p)
	}
	return out
}

// Clone returns an independent copy of wps (nil stays nil).
func Clone(wps []Waypoint) []Waypoint {
	if wps == nil {
		return nil
	}
	out := make([]Waypoint, len(wps))
	copy(out, wps)
	return out
}

// Reverse returns wps in opposite order. Identities are kept.
func Reverse(wps []Waypoint) []Waypoint {
	out := make([]Waypoint, len(wps))
	for i, w := range wps {
		out[len(wps)-1-i] = w
	}
	return out
}

// IndexOf returns the position of the waypoint with the given id or -1.
func IndexOf(wps []Waypoint, id string) int {
	if id == "" {
		return -1
	}
	for i, w := range wps {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// Equal compares ids and positions.
func Equal(a, b []Waypoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Anchor is the live geometry at one end of an edge. Node is nil while the
// end floats freely during a connect or reconnect gesture.
type Anchor struct {
	Pt   vector.Pt
	Side vector.Side
	Node *vector.Rect
}

func (a Anchor) Snapped() bool { return a.Node != nil }

// Route is the full point sequence [From, Waypoints..., To].
type Route struct {
	From      Anchor
	To        Anchor
	Waypoints []Waypoint
}

// Points returns the ordered route points, anchors included.
func (r Route) Points() []vector.Pt {
	pts := make([]vector.Pt, 0, len(r.Waypoints)+2)
	pts = append(pts, r.From.Pt)
	for _, w := range r.Waypoints {
		pts = append(pts, w.Pt())
	}
	return append(pts, r.To.Pt)
}

// Sides returns the connection sides of both ends. A free end takes the side
// facing its neighbouring route point.
func (r Route) Sides() (from, to vector.Side) {
	pts := r.Points()
	from, to = r.From.Side, r.To.Side
	if from == vector.SideNone {
		d := pts[1].Sub(pts[0])
		from = vector.ClassifySide(d.X, d.Y)
	}
	if to == vector.SideNone {
		d := pts[len(pts)-2].Sub(pts[len(pts)-1])
		to = vector.ClassifySide(d.X, d.Y)
	}
	return from, to
}

// CornerLink pairs a marker with the waypoints it moves together. Before and
// After are nil where the neighbour is an anchor.
type CornerLink struct {
	WaypointID string    `json:"waypointId,omitempty"`
	Before     *Waypoint `json:"before,omitempty"`
	After      *Waypoint `json:"after,omitempty"`
}

// ControlMarker is an interactive handle derived from a route. Active markers
// sit on a persisted waypoint; inactive ones sit on a segment and become a
// waypoint when first dragged. Segment is the index of the route segment the
// marker belongs to (for active markers, the segment that ends at it).
type ControlMarker struct {
	ID         string      `json:"id"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Active     bool        `json:"active"`
	Segment    int         `json:"segment"`
	CornerLink *CornerLink `json:"cornerLink,omitempty"`
}

func (m ControlMarker) Pt() vector.Pt { return vector.Pt{X: m.X, Y: m.Y} }

// End names which end of an edge is being moved.
type End uint8

const (
	EndNone End = iota
	EndSource
	EndTarget
	EndBoth
)

func (e End) source() bool { return e == EndSource || e == EndBoth }
func (e End) target() bool { return e == EndTarget || e == EndBoth }

// Handle names the endpoint handle grabbed in a reconnect gesture.
type Handle uint8

const (
	HandleNone Handle = iota
	HandleSource
	HandleTarget
)

func (h Handle) String() string {
	switch h {
	case HandleSource:
		return "source"
	case HandleTarget:
		return "target"
	}
	return "none"
}

// DragState describes the gesture in flight for a single edge. The zero
// value means idle.
type DragState struct {
	// Active is set while the edge already has a settled route and one of
	// its ends moves.
	Active bool
	// Moving is the end whose node is being dragged.
	Moving End
	// Reconnecting is the handle being dragged to a new anchor. When it is
	// HandleSource the From anchor passed to the router is the stationary end.
	Reconnecting Handle
}
