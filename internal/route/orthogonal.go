/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package route

import (
	"math"

	"edgepath/internal/vector"
)

// Orthogonal returns the waypoints of a right-angle route from one anchor to
// the other. Rules are tried in order:
//
//  1. an active edge keeps its waypoints and only re-aligns the moving end;
//  2. stored waypoints of an idle edge are returned unchanged;
//  3. a reconnect from the source handle is routed from the stationary end;
//  4. a target right of the source gets no bend (same y) or one mid-x jog;
//  5. a target left of the source is routed around the nodes.
//
// Synthesized bends carry provisional ids. The input slice is never modified.
func Orthogonal(from, to Anchor, wps []Waypoint, drag DragState, opts Options) []Waypoint {
	opts = opts.Normalize()
	switch {
	case drag.Active && len(wps) > 0:
		return realignActive(from, to, wps, drag)
	case len(wps) > 0:
		return Clone(wps)
	case drag.Reconnecting == HandleSource:
		return fromStationary(from, to, opts)
	case to.Pt.X > from.Pt.X:
		return rightward(from, to)
	default:
		return leftward(from, to, opts)
	}
}

func realignActive(from, to Anchor, wps []Waypoint, drag DragState) []Waypoint {
	out := Clone(wps)
	if drag.Reconnecting == HandleSource {
		// the list is anchored at the grabbed handle; flip it so it runs
		// from the stationary end towards the cursor
		out = Reverse(out)
		alignFirst(out, from, to)
		alignLast(out, from, to)
		return out
	}
	moving := drag.Moving
	if drag.Reconnecting == HandleTarget {
		moving = EndTarget
	}
	if moving.source() {
		alignFirst(out, from, to)
	}
	if moving.target() {
		alignLast(out, from, to)
	}
	return out
}

func alignFirst(wps []Waypoint, from, to Anchor) {
	next := to.Pt
	if len(wps) > 1 {
		next = wps[1].Pt()
	}
	wps[0] = align(wps[0], next, from)
}

func alignLast(wps []Waypoint, from, to Anchor) {
	last := len(wps) - 1
	next := from.Pt
	if last > 0 {
		next = wps[last-1].Pt()
	}
	wps[last] = align(wps[last], next, to)
}

// align moves w onto the line leaving the anchor. Only the coordinate
// perpendicular to the anchor segment changes: when the segment from w to
// next is vertical the anchor segment is horizontal and y follows the
// anchor, and vice versa. When that is ambiguous the anchor side decides.
func align(w Waypoint, next vector.Pt, a Anchor) Waypoint {
	horizontal := !a.Side.Vertical()
	switch {
	case same(w.X, next.X) && !same(w.Y, next.Y):
		horizontal = true
	case same(w.Y, next.Y) && !same(w.X, next.X):
		horizontal = false
	}
	if horizontal {
		w.Y = a.Pt.Y
	} else {
		w.X = a.Pt.X
	}
	return w
}

func same(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }

func rightward(from, to Anchor) []Waypoint {
	if same(from.Pt.Y, to.Pt.Y) {
		return []Waypoint{}
	}
	mx := (from.Pt.X + to.Pt.X) / 2
	return provisionalList(
		vector.Pt{X: mx, Y: from.Pt.Y},
		vector.Pt{X: mx, Y: to.Pt.Y},
	)
}

// fromStationary routes a source-handle reconnect. from is the end that
// stays put, to follows the cursor.
func fromStationary(from, to Anchor, opts Options) []Waypoint {
	f, t, o := from.Pt, to.Pt, opts.Offset
	my := (f.Y + t.Y) / 2
	if f.X > t.X {
		mx := (f.X + t.X) / 2
		return provisionalList(vector.Pt{X: mx, Y: f.Y}, vector.Pt{X: mx, Y: t.Y})
	}
	switch {
	case from.Side == vector.SideLeft && to.Snapped():
		return provisionalList(
			vector.Pt{X: f.X - o, Y: f.Y},
			vector.Pt{X: f.X - o, Y: my},
			vector.Pt{X: t.X + o, Y: my},
			vector.Pt{X: t.X + o, Y: t.Y},
		)
	case from.Side == vector.SideLeft:
		return provisionalList(vector.Pt{X: f.X - o, Y: f.Y}, vector.Pt{X: f.X - o, Y: t.Y})
	case from.Side == vector.SideRight && to.Snapped():
		return provisionalList(
			vector.Pt{X: f.X + o, Y: f.Y},
			vector.Pt{X: f.X + o, Y: my},
			vector.Pt{X: t.X + o, Y: my},
			vector.Pt{X: t.X + o, Y: t.Y},
		)
	}
	return []Waypoint{}
}

func leftward(from, to Anchor, opts Options) []Waypoint {
	f, t, o := from.Pt, to.Pt, opts.Offset
	my := (f.Y + t.Y) / 2

	fromCY, fromTop, fromH, fromW := f.Y, f.Y, 0.0, 0.0
	if from.Node != nil {
		fromCY, fromTop, fromH, fromW = from.Node.Center().Y, from.Node.Y, from.Node.H, from.Node.W
	}
	threshold := fromH + opts.ThresholdMargin

	if to.Snapped() {
		dy := to.Node.Center().Y - fromCY
		if math.Abs(dy) <= threshold {
			// close in height: pass above both nodes
			clearY := math.Min(fromTop, to.Node.Y) - o
			return provisionalList(
				vector.Pt{X: f.X + o, Y: f.Y},
				vector.Pt{X: f.X + o, Y: clearY},
				vector.Pt{X: t.X - o, Y: clearY},
				vector.Pt{X: t.X - o, Y: t.Y},
			)
		}
		switch to.Side {
		case vector.SideLeft:
			return provisionalList(
				vector.Pt{X: f.X + o, Y: f.Y},
				vector.Pt{X: f.X + o, Y: my},
				vector.Pt{X: t.X - o, Y: my},
				vector.Pt{X: t.X - o, Y: t.Y},
			)
		case vector.SideRight:
			return provisionalList(
				vector.Pt{X: f.X + o, Y: f.Y},
				vector.Pt{X: f.X + o, Y: my},
				vector.Pt{X: t.X + o, Y: my},
				vector.Pt{X: t.X + o, Y: t.Y},
			)
		}
	}

	// a snapped top or bottom handle gets the complete jog; only a free end
	// may stop halfway
	if to.Snapped() || f.X-t.X > fromW*2 {
		return provisionalList(vector.Pt{X: f.X + o, Y: f.Y}, vector.Pt{X: f.X + o, Y: t.Y})
	}
	// still close to the source: stop halfway until a target snaps
	return provisionalList(vector.Pt{X: f.X + o, Y: f.Y}, vector.Pt{X: f.X + o, Y: my})
}

// OrthogonalPath draws points with horizontal and vertical lines only. Two
// points differing in both axes are joined by an elbow that runs
// horizontally first; zero-length moves are skipped.
func OrthogonalPath(points []vector.Pt) vector.Path {
	var p vector.Path
	if len(points) == 0 {
		return p
	}
	p.MoveTo(points[0].X, points[0].Y)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if prev.X != cur.X {
			p.LineTo(cur.X, prev.Y)
		}
		if prev.Y != cur.Y {
			p.LineTo(cur.X, cur.Y)
		}
	}
	return p
}
