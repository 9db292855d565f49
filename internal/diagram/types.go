/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

// This file defines the document model of a diagram: movable nodes and the
// editable edges between them. It serializes to a human-readable JSON or
// YAML document; anchors are never stored, only handle sides.

import (
	"edgepath/internal/route"
	"edgepath/internal/vector"
)

// Document is a diagram with its nodes and edges.
type Document struct {
	Name  string `json:"name" yaml:"name"`
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is a rectangular box edges attach to.
type Node struct {
	ID     string  `json:"id" yaml:"id"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
}

// Edge connects two nodes through handles on their sides.
type Edge struct {
	ID           string           `json:"id" yaml:"id"`
	Source       string           `json:"source" yaml:"source"`
	Target       string           `json:"target" yaml:"target"`
	SourceHandle vector.Side      `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle vector.Side      `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
	Algorithm    route.Algorithm  `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Waypoints    []route.Waypoint `json:"waypoints" yaml:"waypoints"`
	Label        string           `json:"label,omitempty" yaml:"label,omitempty"`
	Kind         Kind             `json:"kind,omitempty" yaml:"kind,omitempty"`
	Optional     bool             `json:"optional,omitempty" yaml:"optional,omitempty"` // drawn dashed
}

// Kind is the process outcome an edge stands for.
type Kind string

const (
	KindNone Kind = ""
	KindYes  Kind = "yes"
	KindNo   Kind = "no"
	KindAll  Kind = "all"
)

var kindColors = map[Kind]vector.Color{
	KindYes: vector.MustHex("#38A169"),
	KindNo:  vector.MustHex("#E53E3E"),
	KindAll: vector.MustHex("#718096"),
}

// Valid reports whether k is a known kind (empty included).
func (k Kind) Valid() bool {
	_, ok := kindColors[k]
	return ok || k == KindNone
}

// Color returns the kind color; edges without a kind use their algorithm color.
func (k Kind) Color() (vector.Color, bool) {
	c, ok := kindColors[k]
	return c, ok
}
