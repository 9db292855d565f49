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

// Options tunes routing. Zero fields fall back to the defaults below.
type Options struct {
	// Offset is the perpendicular clearance of a jog from its anchor.
	Offset float64
	// ThresholdMargin is added to the source node height when deciding
	// whether a leftward target is close enough to route over the top.
	ThresholdMargin float64
	// Curvature shapes the virtual end tangents of smooth splines.
	Curvature float64
	// SimplifyTolerance is the maximum perpendicular difference of an
	// endpoint-adjacent waypoint pair that still counts as straight.
	SimplifyTolerance float64
	// NudgeStep is the keyboard nudge distance for markers.
	NudgeStep float64
	// SnapThreshold enables alignment snapping of dragged waypoints when > 0.
	SnapThreshold float64
}

const (
	DefaultOffset            = 10
	DefaultThresholdMargin   = 10
	DefaultCurvature         = 0.25
	DefaultSimplifyTolerance = 1
	DefaultNudgeStep         = 5
)

// DefaultOptions returns the routing defaults.
func DefaultOptions() Options {
	return Options{
		Offset:            DefaultOffset,
		ThresholdMargin:   DefaultThresholdMargin,
		Curvature:         DefaultCurvature,
		SimplifyTolerance: DefaultSimplifyTolerance,
		NudgeStep:         DefaultNudgeStep,
	}
}

// Normalize fills zero or negative fields with defaults. SnapThreshold is
// left alone since zero disables snapping.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.Offset <= 0 {
		o.Offset = d.Offset
	}
	if o.ThresholdMargin <= 0 {
		o.ThresholdMargin = d.ThresholdMargin
	}
	if o.Curvature <= 0 {
		o.Curvature = d.Curvature
	}
	if o.SimplifyTolerance <= 0 {
		o.SimplifyTolerance = d.SimplifyTolerance
	}
	if o.NudgeStep <= 0 {
		o.NudgeStep = d.NudgeStep
	}
	if o.SnapThreshold < 0 {
		o.SnapThreshold = 0
	}
	return o
}
