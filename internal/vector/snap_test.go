/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestSnapPoint_AlignsBothAxes(t *testing.T) {
	targets := []SnapTarget{{Pt: Pt{100, 0}, Weight: 1}, {Pt: Pt{0, 50}, Weight: 1}}
	snapped, guides := SnapPoint(Pt{103, 47}, targets, SnapOptions{Threshold: 5})
	if snapped != (Pt{100, 50}) {
		t.Fatalf("expected snap to (100,50), got %+v", snapped)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == "vertical" && g.Position == 100 {
			vOK = true
		}
		if g.Orientation == "horizontal" && g.Position == 50 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected guides at x=100 (%v) and y=50 (%v)", vOK, hOK)
	}
}

func TestSnapPoint_ThresholdPreventsSnap(t *testing.T) {
	moving := Pt{10, 10}
	snapped, guides := SnapPoint(moving, []SnapTarget{{Pt: Pt{0, 0}, Weight: 1}}, SnapOptions{Threshold: 5})
	if snapped != moving {
		t.Fatalf("expected no snapping outside threshold; got %+v", snapped)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides when no snap")
	}
}

func TestSnapPoint_PicksClosestPerAxis(t *testing.T) {
	targets := []SnapTarget{
		{Pt: Pt{0, 0}, Weight: 1},
		{Pt: Pt{4, 300}, Weight: 1},
	}
	snapped, _ := SnapPoint(Pt{3, 2}, targets, SnapOptions{Threshold: 5})
	if snapped.X != 4 {
		t.Fatalf("expected X snapped to 4, got %v", snapped.X)
	}
	if snapped.Y != 0 {
		t.Fatalf("expected Y snapped to 0, got %v", snapped.Y)
	}
}

func TestSnapPoint_DefaultThreshold(t *testing.T) {
	snapped, _ := SnapPoint(Pt{5.5, 40}, []SnapTarget{{Pt: Pt{0, 0}}}, SnapOptions{})
	if snapped.X != 0 || snapped.Y != 40 {
		t.Fatalf("expected default threshold 6 to snap X only, got %+v", snapped)
	}
}
