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

// Catmull-Rom splines drawn as cubic Bezier segments. Each segment p1->p2
// uses its neighbours p0 and p3; open ends are padded either with the
// endpoint itself or, for smooth splines, with a virtual point that keeps the
// curve tangent to the handle's outward direction.

import (
	"math"

	"edgepath/internal/vector"
)

// Sides carries the connection sides of both ends of a spline.
type Sides struct {
	From vector.Side
	To   vector.Side
}

// SplinePath draws points as a Catmull-Rom spline converted to cubic Bezier
// segments, one per consecutive pair. With fewer than two points only the
// move-to (or nothing) is emitted.
func SplinePath(points []vector.Pt, smooth bool, sides Sides, curvature float64) vector.Path {
	var p vector.Path
	if len(points) == 0 {
		return p
	}
	p.MoveTo(points[0].X, points[0].Y)
	for i := 0; i+1 < len(points); i++ {
		p0, p1, p2, p3 := quad(points, i, smooth, sides, curvature)
		b1 := vector.Pt{X: (-p0.X + 6*p1.X + p2.X) / 6, Y: (-p0.Y + 6*p1.Y + p2.Y) / 6}
		b2 := vector.Pt{X: (p1.X + 6*p2.X - p3.X) / 6, Y: (p1.Y + 6*p2.Y - p3.Y) / 6}
		p.CubicTo(b1.X, b1.Y, b2.X, b2.Y, p2.X, p2.Y)
	}
	return p
}

// quad returns the four points around segment i.
func quad(points []vector.Pt, i int, smooth bool, sides Sides, curvature float64) (p0, p1, p2, p3 vector.Pt) {
	p1, p2 = points[i], points[i+1]
	switch {
	case i > 0:
		p0 = points[i-1]
	case smooth:
		c1 := controlWithCurvature(sides.From, p1, p2, curvature)
		p0 = p2.Add(p1.Sub(c1).Scale(6))
	default:
		p0 = p1
	}
	switch {
	case i+2 < len(points):
		p3 = points[i+2]
	case smooth:
		c2 := controlWithCurvature(sides.To, p2, p1, curvature)
		p3 = p1.Add(p2.Sub(c2).Scale(6))
	default:
		p3 = p2
	}
	return p0, p1, p2, p3
}

// controlWithCurvature returns the Bezier control point for an end at p
// facing side, with other the point at the opposite end of the segment.
func controlWithCurvature(side vector.Side, p, other vector.Pt, curvature float64) vector.Pt {
	switch side {
	case vector.SideLeft:
		return vector.Pt{X: p.X - controlOffset(p.X-other.X, curvature), Y: p.Y}
	case vector.SideRight:
		return vector.Pt{X: p.X + controlOffset(other.X-p.X, curvature), Y: p.Y}
	case vector.SideTop:
		return vector.Pt{X: p.X, Y: p.Y - controlOffset(p.Y-other.Y, curvature)}
	case vector.SideBottom:
		return vector.Pt{X: p.X, Y: p.Y + controlOffset(other.Y-p.Y, curvature)}
	}
	return p
}

// controlOffset is half the distance when the other end lies ahead of the
// handle, and grows with the square root of the overlap when it lies behind.
func controlOffset(distance, curvature float64) float64 {
	if distance >= 0 {
		return 0.5 * distance
	}
	return curvature * 25 * math.Sqrt(-distance)
}

// catmullRomMid evaluates the Catmull-Rom segment p1->p2 at t = 0.5.
func catmullRomMid(p0, p1, p2, p3 vector.Pt) vector.Pt {
	return vector.Pt{X: q(p0.X, p1.X, p2.X, p3.X, 0.5), Y: q(p0.Y, p1.Y, p2.Y, p3.Y, 0.5)}
}

func q(p0, p1, p2, p3, t float64) float64 {
	const alpha = 0.5
	t2, t3 := t*t, t*t*t
	return alpha * (2*p1 + (-p0+p2)*t + (2*p0-5*p1+4*p2-p3)*t2 + (-p0+3*p1-3*p2+p3)*t3)
}
