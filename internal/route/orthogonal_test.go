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
	"testing"

	"edgepath/internal/vector"
)

func anchor(x, y float64, side vector.Side, node *vector.Rect) Anchor {
	return Anchor{Pt: vector.Pt{X: x, Y: y}, Side: side, Node: node}
}

func rect(x, y, w, h float64) *vector.Rect {
	r := vector.R(x, y, w, h)
	return &r
}

func wantPts(t *testing.T, got []Waypoint, want ...vector.Pt) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d waypoints, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Pt().Near(want[i], 1e-9) {
			t.Fatalf("waypoint %d: want %+v got %+v (all %+v)", i, want[i], got[i].Pt(), got)
		}
	}
}

func TestOrthogonal_StraightWhenSameY(t *testing.T) {
	from := anchor(0, 0, vector.SideRight, nil)
	to := anchor(100, 0, vector.SideLeft, nil)
	wps := Orthogonal(from, to, nil, DragState{}, Options{})
	if len(wps) != 0 {
		t.Fatalf("expected no waypoints, got %+v", wps)
	}
	p := OrthogonalPath(Route{From: from, To: to, Waypoints: wps}.Points())
	if p.String() != "M 0 0 L 100 0" {
		t.Fatalf("expected single straight segment, got %q", p.String())
	}
}

func TestOrthogonal_SingleJogAtMidX(t *testing.T) {
	from := anchor(0, 0, vector.SideRight, nil)
	to := anchor(250, 150, vector.SideLeft, nil)
	wps := Orthogonal(from, to, nil, DragState{}, Options{})
	wantPts(t, wps, vector.Pt{X: 125, Y: 0}, vector.Pt{X: 125, Y: 150})
	if wps[0].ID != "auto-0" || wps[1].ID != "auto-1" || !wps[0].Provisional() {
		t.Fatalf("expected provisional ids, got %+v", wps)
	}
	r := Route{From: from, To: to, Waypoints: wps}
	if got := OrthogonalPath(r.Points()).String(); got != "M 0 0 L 125 0 L 125 150 L 250 150" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestOrthogonal_Idempotent(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	to := anchor(0, 325, vector.SideLeft, rect(0, 300, 60, 50))
	a := Orthogonal(from, to, nil, DragState{}, Options{})
	b := Orthogonal(from, to, nil, DragState{}, Options{})
	if !Equal(a, b) {
		t.Fatalf("expected identical output, got %+v vs %+v", a, b)
	}
}

func TestOrthogonal_IdleKeepsStoredWaypoints(t *testing.T) {
	stored := []Waypoint{{ID: "a", X: 40, Y: 0}, {ID: "b", X: 40, Y: 90}}
	got := Orthogonal(anchor(0, 0, vector.SideRight, nil), anchor(300, 10, vector.SideLeft, nil), stored, DragState{}, Options{})
	if !Equal(got, stored) {
		t.Fatalf("expected stored waypoints back, got %+v", got)
	}
	got[0].X = 999
	if stored[0].X != 40 {
		t.Fatalf("router must not alias the input slice")
	}
}

func TestOrthogonal_ActiveSourceMovesFirstOnly(t *testing.T) {
	stored := []Waypoint{{ID: "a", X: 125, Y: 0}, {ID: "b", X: 125, Y: 150}}
	drag := DragState{Active: true, Moving: EndSource}
	got := Orthogonal(anchor(0, 20, vector.SideRight, nil), anchor(250, 150, vector.SideLeft, nil), stored, drag, Options{})
	wantPts(t, got, vector.Pt{X: 125, Y: 20}, vector.Pt{X: 125, Y: 150})
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("identities must be kept: %+v", got)
	}
}

func TestOrthogonal_ActiveTargetMovesLastOnly(t *testing.T) {
	stored := []Waypoint{{ID: "a", X: 125, Y: 0}, {ID: "b", X: 125, Y: 150}}
	drag := DragState{Active: true, Moving: EndTarget}
	got := Orthogonal(anchor(0, 0, vector.SideRight, nil), anchor(250, 170, vector.SideLeft, nil), stored, drag, Options{})
	wantPts(t, got, vector.Pt{X: 125, Y: 0}, vector.Pt{X: 125, Y: 170})
}

func TestOrthogonal_ActiveAlignsAlongVerticalAnchorSegment(t *testing.T) {
	// last waypoint is entered horizontally, so the anchor segment below it
	// is vertical and only x follows the target
	stored := []Waypoint{{ID: "a", X: 50, Y: 0}, {ID: "b", X: 50, Y: 100}, {ID: "c", X: 200, Y: 100}}
	drag := DragState{Active: true, Moving: EndTarget}
	got := Orthogonal(anchor(0, 0, vector.SideRight, nil), anchor(210, 200, vector.SideTop, nil), stored, drag, Options{})
	wantPts(t, got, vector.Pt{X: 50, Y: 0}, vector.Pt{X: 50, Y: 100}, vector.Pt{X: 210, Y: 100})
}

func TestOrthogonal_ActiveSingleWaypointKeepsElbow(t *testing.T) {
	stored := []Waypoint{{ID: "a", X: 100, Y: 0}}
	drag := DragState{Active: true, Moving: EndBoth}
	got := Orthogonal(anchor(0, 10, vector.SideRight, nil), anchor(120, 80, vector.SideTop, nil), stored, drag, Options{})
	wantPts(t, got, vector.Pt{X: 120, Y: 10})
}

func TestOrthogonal_ReconnectSourceReversesOnce(t *testing.T) {
	stored := []Waypoint{{ID: "a", X: 125, Y: 0}, {ID: "b", X: 125, Y: 150}}
	drag := DragState{Active: true, Reconnecting: HandleSource}
	// from is the stationary target, to follows the cursor
	got := Orthogonal(anchor(250, 150, vector.SideLeft, nil), anchor(0, 10, vector.SideNone, nil), stored, drag, Options{})
	wantPts(t, got, vector.Pt{X: 125, Y: 150}, vector.Pt{X: 125, Y: 10})
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("expected reversed identities, got %+v", got)
	}
	if stored[0].ID != "a" {
		t.Fatalf("input must stay untouched")
	}
}

func TestOrthogonal_LeftwardCloseInHeightGoesOverTop(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	to := anchor(0, 35, vector.SideLeft, rect(0, 10, 60, 50))
	got := Orthogonal(from, to, nil, DragState{}, Options{})
	wantPts(t, got,
		vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: -10},
		vector.Pt{X: -10, Y: -10}, vector.Pt{X: -10, Y: 35})
}

func TestOrthogonal_LeftwardTargetSlightlyAboveClearsTargetTop(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	to := anchor(0, -5, vector.SideLeft, rect(0, -30, 60, 50))
	got := Orthogonal(from, to, nil, DragState{}, Options{})
	wantPts(t, got,
		vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: -40},
		vector.Pt{X: -10, Y: -40}, vector.Pt{X: -10, Y: -5})
}

func TestOrthogonal_LeftwardFarBelowInnerSideSJog(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	to := anchor(0, 325, vector.SideLeft, rect(0, 300, 60, 50))
	got := Orthogonal(from, to, nil, DragState{}, Options{})
	wantPts(t, got,
		vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: 175},
		vector.Pt{X: -10, Y: 175}, vector.Pt{X: -10, Y: 325})
}

func TestOrthogonal_LeftwardOuterSideJog(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	to := anchor(60, 325, vector.SideRight, rect(0, 300, 60, 50))
	got := Orthogonal(from, to, nil, DragState{}, Options{})
	wantPts(t, got,
		vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: 175},
		vector.Pt{X: 70, Y: 175}, vector.Pt{X: 70, Y: 325})
}

func TestOrthogonal_LeftwardFreeEnd(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))

	far := Orthogonal(from, anchor(-100, 200, vector.SideNone, nil), nil, DragState{}, Options{})
	wantPts(t, far, vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: 200})

	near := Orthogonal(from, anchor(150, 200, vector.SideNone, nil), nil, DragState{}, Options{})
	wantPts(t, near, vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: 112.5})
}

func TestOrthogonal_LeftwardSnappedTopHandleCompletesRoute(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	for _, to := range []Anchor{
		anchor(150, 300, vector.SideTop, rect(120, 300, 60, 50)),
		anchor(150, 350, vector.SideBottom, rect(120, 300, 60, 50)),
		anchor(-100, 300, vector.SideTop, rect(-130, 300, 60, 50)),
	} {
		got := Orthogonal(from, to, nil, DragState{}, Options{})
		wantPts(t, got, vector.Pt{X: 210, Y: 25}, vector.Pt{X: 210, Y: to.Pt.Y})
		pts := Route{From: from, To: to, Waypoints: got}.Points()
		last := pts[len(pts)-2]
		if last.X != to.Pt.X && last.Y != to.Pt.Y {
			t.Fatalf("route to %+v must end on the target, got %+v", to.Pt, pts)
		}
	}
}

func TestOrthogonal_ReconnectSourceFromStationaryEnd(t *testing.T) {
	drag := DragState{Reconnecting: HandleSource}
	node := rect(300, 25, 80, 50)

	snapped := Orthogonal(anchor(300, 50, vector.SideLeft, node), anchor(500, 100, vector.SideRight, rect(500, 75, 40, 50)), nil, drag, Options{})
	wantPts(t, snapped,
		vector.Pt{X: 290, Y: 50}, vector.Pt{X: 290, Y: 75},
		vector.Pt{X: 510, Y: 75}, vector.Pt{X: 510, Y: 100})

	free := Orthogonal(anchor(300, 50, vector.SideLeft, node), anchor(500, 100, vector.SideNone, nil), nil, drag, Options{})
	wantPts(t, free, vector.Pt{X: 290, Y: 50}, vector.Pt{X: 290, Y: 100})

	behind := Orthogonal(anchor(300, 50, vector.SideLeft, node), anchor(100, 0, vector.SideNone, nil), nil, drag, Options{})
	wantPts(t, behind, vector.Pt{X: 200, Y: 50}, vector.Pt{X: 200, Y: 0})

	top := Orthogonal(anchor(340, 25, vector.SideTop, node), anchor(500, 100, vector.SideNone, nil), nil, drag, Options{})
	if len(top) != 0 {
		t.Fatalf("expected no bends for an undetermined side, got %+v", top)
	}
}

func TestOrthogonal_CustomOffset(t *testing.T) {
	from := anchor(200, 25, vector.SideRight, rect(100, 0, 100, 50))
	got := Orthogonal(from, anchor(-100, 200, vector.SideNone, nil), nil, DragState{}, Options{Offset: 20})
	wantPts(t, got, vector.Pt{X: 220, Y: 25}, vector.Pt{X: 220, Y: 200})
}

func TestOrthogonalPath_ElbowAndZeroLength(t *testing.T) {
	p := OrthogonalPath([]vector.Pt{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 40, Y: 30}})
	if p.String() != "M 0 0 L 40 0 L 40 30" {
		t.Fatalf("unexpected path %q", p.String())
	}
	if (OrthogonalPath(nil).String()) != "" {
		t.Fatalf("expected empty path for no points")
	}
}
