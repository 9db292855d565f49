/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPath_StringFormatsSVG(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.CubicTo(125, 0, 125, 150, 250, 150)
	if got := p.String(); got != "M 0 0 C 125 0, 125 150, 250 150" {
		t.Fatalf("unexpected path data: %q", got)
	}
}

func TestPath_StringRoundsAndTrims(t *testing.T) {
	var p Path
	p.MoveTo(1.0/3, -0.00001)
	p.LineTo(10.5, 2)
	p.Close()
	if got := p.String(); got != "M 0.333 0 L 10.5 2 Z" {
		t.Fatalf("unexpected path data: %q", got)
	}
}

func TestPath_BoundsIncludesControls(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.CubicTo(20, -5, 30, 15, 40, 10)
	b := p.Bounds()
	if b.X != 0 || b.Y != -5 || b.W != 40 || b.H != 20 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	var empty Path
	if (empty.Bounds() != Rect{}) {
		t.Fatalf("empty path should have zero bounds")
	}
}

func TestPath_CountAndEnd(t *testing.T) {
	var p Path
	p.MoveTo(0, 0)
	p.CubicTo(1, 1, 2, 2, 3, 3)
	p.CubicTo(4, 4, 5, 5, 6, 7)
	if p.Count(CubicTo) != 2 || p.Count(LineTo) != 0 {
		t.Fatalf("unexpected counts")
	}
	end, ok := p.Cmds[2].End()
	if !ok || end != (Pt{6, 7}) {
		t.Fatalf("unexpected end %+v", end)
	}
	if _, ok := (PathCmd{Op: Close}).End(); ok {
		t.Fatalf("close has no end point")
	}
}

func TestPath_Transform(t *testing.T) {
	var p Path
	p.MoveTo(1, 2)
	p.QuadTo(3, 4, 5, 6)
	q := p.Transform(Translate(10, 20))
	if q.String() != "M 11 22 Q 13 24, 15 26" {
		t.Fatalf("unexpected transformed path %q", q.String())
	}
	if p.String() != "M 1 2 Q 3 4, 5 6" {
		t.Fatalf("transform must not mutate the receiver")
	}
}
