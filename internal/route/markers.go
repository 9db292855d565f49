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
	"fmt"

	"edgepath/internal/vector"
)

// SegmentMarkerID returns the id of the inactive marker on segment i.
func SegmentMarkerID(i int) string { return fmt.Sprintf("seg-%d", i) }

// Markers derives the interactive handles of a route: an active marker on
// every waypoint and an inactive one on every segment. Orthogonal segments
// carry their marker at the midpoint, spline segments at the Catmull-Rom
// sample t = 0.5. Zero-length segments get no marker. Corner links only ever
// name waypoints of r.
func Markers(r Route, alg Algorithm, opts Options) []ControlMarker {
	opts = opts.Normalize()
	pts := r.Points()
	from, to := r.Sides()
	sides := Sides{From: from, To: to}

	out := make([]ControlMarker, 0, 2*len(pts))
	for i := 0; i+1 < len(pts); i++ {
		if w := waypointAt(r, i); w != nil {
			out = append(out, ControlMarker{
				ID:      w.ID,
				X:       w.X,
				Y:       w.Y,
				Active:  true,
				Segment: i - 1,
				CornerLink: &CornerLink{
					WaypointID: w.ID,
					Before:     waypointAt(r, i-1),
					After:      waypointAt(r, i+1),
				},
			})
		}
		if pts[i].Eq(pts[i+1]) {
			continue
		}
		var at vector.Pt
		if alg.Orthogonal() {
			at = pts[i].Mid(pts[i+1])
		} else {
			at = catmullRomMid(quad(pts, i, alg.Smooth(), sides, opts.Curvature))
		}
		out = append(out, ControlMarker{
			ID:      SegmentMarkerID(i),
			X:       at.X,
			Y:       at.Y,
			Segment: i,
			CornerLink: &CornerLink{
				Before: waypointAt(r, i),
				After:  waypointAt(r, i+1),
			},
		})
	}
	return out
}

// waypointAt returns a copy of the waypoint at route point index i, or nil
// when i is an anchor or out of range.
func waypointAt(r Route, i int) *Waypoint {
	if i < 1 || i > len(r.Waypoints) {
		return nil
	}
	w := r.Waypoints[i-1]
	return &w
}

// FindMarker returns the marker with the given id.
func FindMarker(markers []ControlMarker, id string) (ControlMarker, bool) {
	for _, m := range markers {
		if m.ID == id {
			return m, true
		}
	}
	return ControlMarker{}, false
}
