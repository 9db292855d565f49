/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestRectSideMid(t *testing.T) {
	r := R(0, 0, 100, 40)
	cases := map[Side]Pt{
		SideLeft:   {0, 20},
		SideRight:  {100, 20},
		SideTop:    {50, 0},
		SideBottom: {50, 40},
		SideNone:   {50, 20},
	}
	for s, want := range cases {
		if got := r.SideMid(s); got != want {
			t.Fatalf("side %v: want %+v got %+v", s, want, got)
		}
	}
}

func TestPtHelpers(t *testing.T) {
	a, b := Pt{0, 0}, Pt{30, 40}
	if d := a.Dist(b); d != 50 {
		t.Fatalf("expected distance 50, got %v", d)
	}
	if m := a.Mid(b); m != (Pt{15, 20}) {
		t.Fatalf("unexpected midpoint %+v", m)
	}
	if l := a.Lerp(b, 0.25); l != (Pt{7.5, 10}) {
		t.Fatalf("unexpected lerp %+v", l)
	}
	if !a.Near(Pt{0.4, -0.4}, 0.5) || a.Near(Pt{0.6, 0}, 0.5) {
		t.Fatalf("near tolerance not applied per axis")
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
}

func TestFitInto_CentersAndScales(t *testing.T) {
	src := R(100, 100, 200, 100)
	dst := R(0, 0, 420, 420)
	m := FitInto(src, dst, 10)
	tl := m.Apply(src.Min())
	br := m.Apply(src.Max())
	// scale = min(400/200, 400/100) = 2 -> 400x200 centered vertically
	if tl != (Pt{10, 110}) || br != (Pt{410, 310}) {
		t.Fatalf("unexpected fit: %+v %+v", tl, br)
	}
}

func TestFloatRound(t *testing.T) {
	if v := FloatRound(1.23456, 3); v != 1.235 {
		t.Fatalf("expected 1.235, got %v", v)
	}
	if v := FloatRound(-0.0001, 3); math.Signbit(v) {
		t.Fatalf("expected positive zero, got %v", v)
	}
	if v := FloatRound(1.5, -1); v != 1.5 {
		t.Fatalf("negative places must leave value untouched")
	}
}

func TestClassifySide(t *testing.T) {
	if s := ClassifySide(10, 3); s != SideRight {
		t.Fatalf("expected right, got %v", s)
	}
	if s := ClassifySide(-10, 3); s != SideLeft {
		t.Fatalf("expected left, got %v", s)
	}
	if s := ClassifySide(1, -5); s != SideTop {
		t.Fatalf("expected top, got %v", s)
	}
	if s := ClassifySide(1, 5); s != SideBottom {
		t.Fatalf("expected bottom, got %v", s)
	}
	if s := ClassifySide(4, 4); s != SideRight {
		t.Fatalf("tie should resolve horizontally, got %v", s)
	}
}

func TestSideText(t *testing.T) {
	var s Side
	if err := s.UnmarshalText([]byte("Bottom")); err != nil || s != SideBottom {
		t.Fatalf("unmarshal failed: %v %v", s, err)
	}
	if err := s.UnmarshalText([]byte("diagonal")); err == nil {
		t.Fatalf("expected error for unknown side")
	}
	b, _ := SideLeft.MarshalText()
	if string(b) != "left" {
		t.Fatalf("unexpected text %q", b)
	}
	if SideLeft.Opposite() != SideRight || SideNone.Opposite() != SideNone {
		t.Fatalf("opposite mismatch")
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#0375ff")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (Color{0x03, 0x75, 0xff, 0xff}) {
		t.Fatalf("unexpected color %+v", c)
	}
	if c.Hex() != "#0375ff" {
		t.Fatalf("hex roundtrip mismatch: %s", c.Hex())
	}
	if short := MustHex("#fff"); short != White {
		t.Fatalf("short form mismatch: %+v", short)
	}
	if _, err := ParseHex("#12"); err == nil {
		t.Fatalf("expected error for short input")
	}
}
