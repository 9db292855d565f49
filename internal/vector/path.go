/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands and their SVG path-data form.

import (
	"strconv"
	"strings"
)

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

// Letter returns the SVG path command letter.
func (op PathOp) Letter() string {
	switch op {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case QuadTo:
		return "Q"
	case CubicTo:
		return "C"
	case Close:
		return "Z"
	}
	return ""
}

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

// End returns the point the command finishes at. Close has none.
func (c PathCmd) End() (Pt, bool) {
	switch c.Op {
	case MoveTo, LineTo:
		return Pt{c.Data[0], c.Data[1]}, true
	case QuadTo:
		return Pt{c.Data[2], c.Data[3]}, true
	case CubicTo:
		return Pt{c.Data[4], c.Data[5]}, true
	}
	return Pt{}, false
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Count returns how many commands of the given op the path holds.
func (p Path) Count(op PathOp) int {
	n := 0
	for _, c := range p.Cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

// String renders SVG path data, e.g. "M 0 0 C 125 0, 125 150, 250 150".
// Coordinates are rounded to 3 decimals so output is stable across platforms.
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.Op.Letter())
		switch c.Op {
		case MoveTo, LineTo:
			writePair(&b, c.Data[0], c.Data[1])
		case QuadTo:
			writePair(&b, c.Data[0], c.Data[1])
			b.WriteByte(',')
			writePair(&b, c.Data[2], c.Data[3])
		case CubicTo:
			writePair(&b, c.Data[0], c.Data[1])
			b.WriteByte(',')
			writePair(&b, c.Data[2], c.Data[3])
			b.WriteByte(',')
			writePair(&b, c.Data[4], c.Data[5])
		}
	}
	return b.String()
}

func writePair(b *strings.Builder, x, y float64) {
	b.WriteByte(' ')
	b.WriteString(FormatFloat(x))
	b.WriteByte(' ')
	b.WriteString(FormatFloat(y))
}

// FormatFloat prints v rounded to 3 decimals without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(FloatRound(v, 3), 'f', -1, 64)
}

// Transform returns a copy of the path with every coordinate mapped by m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i] = c
		for j := 0; j+1 < len(c.Data); j += 2 {
			q := m.Apply(Pt{c.Data[j], c.Data[j+1]})
			out.Cmds[i].Data[j], out.Cmds[i].Data[j+1] = q.X, q.Y
		}
	}
	return out
}

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. A curve lies within the
// convex hull of its control points, so the result never undershoots.
func (p *Path) Bounds() Rect {
	minX, minY := +1e18, +1e18
	maxX, maxY := -1e18, -1e18
	grow := func(q Pt) {
		minX, minY = min(minX, q.X), min(minY, q.Y)
		maxX, maxY = max(maxX, q.X), max(maxY, q.Y)
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			grow(Pt{c.Data[0], c.Data[1]})
		case QuadTo:
			grow(Pt{c.Data[0], c.Data[1]})
			grow(Pt{c.Data[2], c.Data[3]})
		case CubicTo:
			grow(Pt{c.Data[0], c.Data[1]})
			grow(Pt{c.Data[2], c.Data[3]})
			grow(Pt{c.Data[4], c.Data[5]})
		case Close:
			// no-op for bounds
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
