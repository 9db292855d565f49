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
	"fmt"
	"sort"
	"strings"

	"edgepath/internal/vector"
)

// Algorithm selects how an edge is routed and drawn.
type Algorithm string

const (
	Linear           Algorithm = "linear"
	CatmullRom       Algorithm = "catmull-rom"
	BezierCatmullRom Algorithm = "bezier-catmull-rom"
)

// DefaultAlgorithm is used for edges that do not name one.
const DefaultAlgorithm = BezierCatmullRom

type algorithmInfo struct {
	label      string
	color      vector.Color
	orthogonal bool
	// smooth pads the open ends of a spline with virtual tangent points.
	smooth bool
}

var algorithms = map[Algorithm]algorithmInfo{
	Linear:           {label: "Linear", color: vector.MustHex("#0375ff"), orthogonal: true},
	BezierCatmullRom: {label: "Bezier Catmull-Rom", color: vector.MustHex("#68D391"), smooth: true},
	CatmullRom:       {label: "Catmull-Rom", color: vector.MustHex("#FF0072")},
}

// ParseAlgorithm accepts the canonical names and a few common spellings.
// An empty string yields DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	switch n {
	case "":
		return DefaultAlgorithm, nil
	case "linear", "orthogonal", "step":
		return Linear, nil
	case "catmull-rom", "catmullrom":
		return CatmullRom, nil
	case "bezier-catmull-rom", "beziercatmullrom", "bezier":
		return BezierCatmullRom, nil
	}
	return "", fmt.Errorf("unknown algorithm %q (want one of %s)", s, strings.Join(AlgorithmNames(), ", "))
}

// AlgorithmNames lists the canonical names in stable order.
func AlgorithmNames() []string {
	out := make([]string, 0, len(algorithms))
	for a := range algorithms {
		out = append(out, string(a))
	}
	sort.Strings(out)
	return out
}

func (a Algorithm) info() algorithmInfo {
	if i, ok := algorithms[a]; ok {
		return i
	}
	return algorithms[DefaultAlgorithm]
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// Or returns a when valid, def otherwise.
func (a Algorithm) Or(def Algorithm) Algorithm {
	if a.Valid() {
		return a
	}
	return def
}

func (a Algorithm) Label() string       { return a.info().label }
func (a Algorithm) Color() vector.Color { return a.info().color }
func (a Algorithm) Orthogonal() bool    { return a.info().orthogonal }
func (a Algorithm) Smooth() bool        { return a.info().smooth }
