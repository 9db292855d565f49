/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry and transforms in diagram space.
// Values are float64 so that repeated incremental edits do not drift.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

func (p Pt) Add(q Pt) Pt         { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt         { return Pt{p.X - q.X, p.Y - q.Y} }
func (p Pt) Scale(f float64) Pt  { return Pt{p.X * f, p.Y * f} }
func (p Pt) Eq(q Pt) bool        { return p.X == q.X && p.Y == q.Y }
func (p Pt) Round(places int) Pt { return Pt{FloatRound(p.X, places), FloatRound(p.Y, places)} }
func (p Pt) Dist(q Pt) float64   { return math.Hypot(q.X-p.X, q.Y-p.Y) }
func (p Pt) Mid(q Pt) Pt         { return Pt{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }
func (p Pt) Lerp(q Pt, t float64) Pt {
	return Pt{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Near reports whether both coordinates differ by at most eps.
func (p Pt) Near(q Pt, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt    { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt    { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Size() Size { return Size{r.W, r.H} }
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.W, o.X+o.W)
	maxY := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// SideMid returns the midpoint of the given side of r. SideNone yields the center.
func (r Rect) SideMid(s Side) Pt {
	switch s {
	case SideLeft:
		return Pt{r.X, r.Y + r.H/2}
	case SideRight:
		return Pt{r.X + r.W, r.Y + r.H/2}
	case SideTop:
		return Pt{r.X + r.W/2, r.Y}
	case SideBottom:
		return Pt{r.X + r.W/2, r.Y + r.H}
	}
	return r.Center()
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f].
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }

// FitInto returns the transform that maps src uniformly into dst, centered,
// leaving margin on every side of dst.
func FitInto(src, dst Rect, margin float64) Affine2D {
	inner := dst.Inset(margin, margin)
	if src.W <= 0 || src.H <= 0 || inner.W <= 0 || inner.H <= 0 {
		return Translate(inner.X-src.X, inner.Y-src.Y)
	}
	s := min(inner.W/src.W, inner.H/src.H)
	ox := inner.X + (inner.W-src.W*s)/2
	oy := inner.Y + (inner.H-src.H*s)/2
	return Translate(ox, oy).Mul(Scale(s, s)).Mul(Translate(-src.X, -src.Y))
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	r := math.Round(v*pow) / pow
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
