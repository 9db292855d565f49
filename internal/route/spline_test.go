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
	"strings"
	"testing"

	"edgepath/internal/vector"
)

func TestSplinePath_SmoothEndsUseVirtualTangents(t *testing.T) {
	pts := []vector.Pt{{X: 0, Y: 0}, {X: 250, Y: 150}}
	p := SplinePath(pts, true, Sides{From: vector.SideRight, To: vector.SideLeft}, 0.25)
	if got := p.String(); got != "M 0 0 C 125 0, 125 150, 250 150" {
		t.Fatalf("unexpected spline %q", got)
	}
}

func TestSplinePath_ViaComputeAndBuildPath(t *testing.T) {
	from := anchor(0, 0, vector.SideRight, nil)
	to := anchor(250, 150, vector.SideLeft, nil)
	r := Compute(from, to, nil, BezierCatmullRom, DragState{}, Options{})
	if len(r.Waypoints) != 0 {
		t.Fatalf("splines must not synthesize bends, got %+v", r.Waypoints)
	}
	got := BuildPath(r, BezierCatmullRom, Options{Curvature: 0.25}).String()
	if !strings.HasPrefix(got, "M 0 0") || strings.Count(got, "C") != 1 {
		t.Fatalf("expected M 0 0 and one cubic, got %q", got)
	}
	if got != "M 0 0 C 125 0, 125 150, 250 150" {
		t.Fatalf("unexpected spline %q", got)
	}
}

func TestSplinePath_FreeEndsInferSides(t *testing.T) {
	from := anchor(0, 0, vector.SideNone, nil)
	to := anchor(250, 150, vector.SideNone, nil)
	got := BuildPath(Route{From: from, To: to}, BezierCatmullRom, Options{}).String()
	if got != "M 0 0 C 125 0, 125 150, 250 150" {
		t.Fatalf("expected sides right/left to be inferred, got %q", got)
	}
}

func TestSplinePath_UnsmoothedTwoPointsIsStraight(t *testing.T) {
	p := SplinePath([]vector.Pt{{X: 0, Y: 0}, {X: 60, Y: 30}}, false, Sides{}, 0.25)
	if got := p.String(); got != "M 0 0 C 10 5, 50 25, 60 30" {
		t.Fatalf("unexpected spline %q", got)
	}
}

func TestSplinePath_OneCubicPerSegment(t *testing.T) {
	pts := []vector.Pt{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 0}, {X: 300, Y: 50}}
	p := SplinePath(pts, true, Sides{From: vector.SideRight, To: vector.SideLeft}, 0.25)
	if p.Count(vector.CubicTo) != 3 || p.Count(vector.MoveTo) != 1 {
		t.Fatalf("expected 3 cubic segments, got %q", p.String())
	}
	// interior controls follow the plain Catmull-Rom rule
	c := p.Cmds[2].Data
	// segment 1: p0=(0,0) p1=(100,100) p2=(200,0) p3=(300,50)
	wantB1 := vector.Pt{X: (-0 + 600 + 200) / 6.0, Y: (-0 + 600 + 0) / 6.0}
	wantB2 := vector.Pt{X: (100 + 1200 - 300) / 6.0, Y: (100 + 0 - 50) / 6.0}
	if !(vector.Pt{X: c[0], Y: c[1]}).Near(wantB1, 1e-9) || !(vector.Pt{X: c[2], Y: c[3]}).Near(wantB2, 1e-9) {
		t.Fatalf("unexpected interior controls %+v", c)
	}
}

func TestSplinePath_DegenerateInput(t *testing.T) {
	if got := SplinePath([]vector.Pt{{X: 1, Y: 2}}, true, Sides{}, 0.25).String(); got != "M 1 2" {
		t.Fatalf("single point should only move, got %q", got)
	}
	if got := SplinePath(nil, true, Sides{}, 0.25).String(); got != "" {
		t.Fatalf("no points should give empty path, got %q", got)
	}
}

func TestControlOffset(t *testing.T) {
	if v := controlOffset(40, 0.25); v != 20 {
		t.Fatalf("expected half the distance, got %v", v)
	}
	if v := controlOffset(-16, 0.25); v != 25 {
		t.Fatalf("expected curvature*25*sqrt(16)=25, got %v", v)
	}
}

func TestControlWithCurvature_TargetBehindHandle(t *testing.T) {
	// right-facing handle whose other end lies 16 px behind it
	c := controlWithCurvature(vector.SideRight, vector.Pt{X: 100, Y: 0}, vector.Pt{X: 84, Y: 40}, 0.25)
	if c != (vector.Pt{X: 125, Y: 0}) {
		t.Fatalf("unexpected control %+v", c)
	}
	c = controlWithCurvature(vector.SideBottom, vector.Pt{X: 0, Y: 0}, vector.Pt{X: 10, Y: 50}, 0.25)
	if c != (vector.Pt{X: 0, Y: 25}) {
		t.Fatalf("unexpected control %+v", c)
	}
}
