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

import "edgepath/internal/vector"

// Compute returns the route of an edge for the current frame. Orthogonal
// algorithms run the orthogonal router; splines pass stored waypoints
// through, flipped while the source handle is being reconnected so that the
// list runs from the stationary end. Compute has no side effects.
func Compute(from, to Anchor, wps []Waypoint, alg Algorithm, drag DragState, opts Options) Route {
	alg = alg.Or(DefaultAlgorithm)
	var out []Waypoint
	if alg.Orthogonal() {
		out = Orthogonal(from, to, wps, drag, opts)
	} else {
		out = Clone(wps)
		if drag.Reconnecting == HandleSource {
			out = Reverse(out)
		}
	}
	if out == nil {
		out = []Waypoint{}
	}
	return Route{From: from, To: to, Waypoints: out}
}

// BuildPath renders r as path data for the algorithm.
func BuildPath(r Route, alg Algorithm, opts Options) vector.Path {
	alg = alg.Or(DefaultAlgorithm)
	if alg.Orthogonal() {
		return OrthogonalPath(r.Points())
	}
	from, to := r.Sides()
	return SplinePath(r.Points(), alg.Smooth(), Sides{From: from, To: to}, opts.Normalize().Curvature)
}

// ConnectionPreview is the line shown while a new connection is drawn from
// an anchor to the cursor or a candidate handle. The returned waypoints are
// the bends the edge starts with once the connection is made.
func ConnectionPreview(from, to Anchor, opts Options) ([]Waypoint, vector.Path) {
	wps := Orthogonal(from, to, nil, DragState{}, opts)
	return wps, OrthogonalPath(Route{From: from, To: to, Waypoints: wps}.Points())
}
