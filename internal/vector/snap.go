/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Alignment snapping for dragged bend points. A point snaps its X and Y
// independently onto nearby reference points so that a bend lines up with its
// neighbours. Results are deterministic for unit testing.

import "math"

// SnapOptions controls snapping.
type SnapOptions struct {
	// Threshold is the maximum distance at which snapping occurs.
	// Zero or negative falls back to 6.
	Threshold float64
}

// SnapTarget is a reference point. Weight biases selection when distances
// tie (higher = preferred); when uncertain set it to 1.
type SnapTarget struct {
	Pt     Pt
	Weight float64
}

// GuideLine describes a visual guide generated during a snap alignment.
// Orientation is "vertical" or "horizontal"; Position is the x (vertical)
// or y (horizontal) coordinate of the guide. Values are rounded to 3 decimals.
type GuideLine struct {
	Orientation string
	Position    float64
	From        Pt
	To          Pt
}

// SnapPoint aligns moving with the closest target on each axis. It returns
// the snapped point and the guides to render for visual feedback.
func SnapPoint(moving Pt, targets []SnapTarget, opts SnapOptions) (Pt, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	bestX, bestXDist, bestXTarget := 0.0, math.Inf(1), Pt{}
	bestY, bestYDist, bestYTarget := 0.0, math.Inf(1), Pt{}

	for _, t := range targets {
		consider(&bestX, &bestXDist, &bestXTarget, moving.X-t.Pt.X, opts.Threshold, t)
		consider(&bestY, &bestYDist, &bestYTarget, moving.Y-t.Pt.Y, opts.Threshold, t)
	}

	snapped := moving
	var guides []GuideLine
	if bestXDist <= opts.Threshold {
		snapped.X = FloatRound(moving.X-bestX, 3)
	}
	if bestYDist <= opts.Threshold {
		snapped.Y = FloatRound(moving.Y-bestY, 3)
	}
	if bestXDist <= opts.Threshold {
		guides = append(guides, guideVertical(snapped, bestXTarget))
	}
	if bestYDist <= opts.Threshold {
		guides = append(guides, guideHorizontal(snapped, bestYTarget))
	}
	return snapped, guides
}

func consider(best, bestDist *float64, bestTarget *Pt, delta, threshold float64, t SnapTarget) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / max(1, t.Weight)
	if score < *bestDist {
		*bestDist = dist
		*best = delta
		*bestTarget = t.Pt
	}
}

func guideVertical(a, b Pt) GuideLine {
	x := FloatRound(b.X, 3)
	return GuideLine{
		Orientation: "vertical",
		Position:    x,
		From:        Pt{x, min(a.Y, b.Y)},
		To:          Pt{x, max(a.Y, b.Y)},
	}
}

func guideHorizontal(a, b Pt) GuideLine {
	y := FloatRound(b.Y, 3)
	return GuideLine{
		Orientation: "horizontal",
		Position:    y,
		From:        Pt{min(a.X, b.X), y},
		To:          Pt{max(a.X, b.X), y},
	}
}
