/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

import (
	"errors"
	"fmt"

	"edgepath/internal/route"
	"edgepath/internal/vector"
)

// Default handle sides when an edge does not name one: edges leave on the
// right and enter on the left.
const (
	DefaultSourceHandle = vector.SideRight
	DefaultTargetHandle = vector.SideLeft
)

func (n Node) Rect() vector.Rect { return vector.R(n.X, n.Y, n.Width, n.Height) }

// NodeByID returns the node with the given id.
func (d *Document) NodeByID(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// EdgeByID returns the edge with the given id.
func (d *Document) EdgeByID(id string) (*Edge, bool) {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return &d.Edges[i], true
		}
	}
	return nil, false
}

// Handles returns the effective handle sides of e.
func (e Edge) Handles() (src, dst vector.Side) {
	src, dst = e.SourceHandle, e.TargetHandle
	if src == vector.SideNone {
		src = DefaultSourceHandle
	}
	if dst == vector.SideNone {
		dst = DefaultTargetHandle
	}
	return src, dst
}

// ResolveAnchor returns the live anchor of node id at the given side: the
// midpoint of that side, snapped to the node.
func (d *Document) ResolveAnchor(id string, side vector.Side) (route.Anchor, error) {
	n, ok := d.NodeByID(id)
	if !ok {
		return route.Anchor{}, fmt.Errorf("node %q not found", id)
	}
	r := n.Rect()
	return route.Anchor{Pt: r.SideMid(side), Side: side, Node: &r}, nil
}

// Anchors resolves both ends of e.
func (d *Document) Anchors(e Edge) (from, to route.Anchor, err error) {
	src, dst := e.Handles()
	if from, err = d.ResolveAnchor(e.Source, src); err != nil {
		return from, to, fmt.Errorf("edge %s source: %w", e.ID, err)
	}
	if to, err = d.ResolveAnchor(e.Target, dst); err != nil {
		return from, to, fmt.Errorf("edge %s target: %w", e.ID, err)
	}
	return from, to, nil
}

// Route computes the idle route of e.
func (d *Document) Route(e Edge, opts route.Options) (route.Route, error) {
	from, to, err := d.Anchors(e)
	if err != nil {
		return route.Route{}, err
	}
	return route.Compute(from, to, e.Waypoints, e.Algorithm, route.DragState{}, opts), nil
}

// Bounds returns the rectangle covering all nodes and routed edges.
func (d *Document) Bounds(opts route.Options) vector.Rect {
	var b vector.Rect
	first := true
	add := func(r vector.Rect) {
		if first {
			b, first = r, false
			return
		}
		b = b.Union(r)
	}
	for _, n := range d.Nodes {
		add(n.Rect())
	}
	for _, e := range d.Edges {
		r, err := d.Route(e, opts)
		if err != nil {
			continue
		}
		p := route.BuildPath(r, e.Algorithm, opts)
		add(p.Bounds())
	}
	return b
}

// Validate checks identities and references. It collects every problem.
func (d *Document) Validate() error {
	var errs []error
	nodes := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, errors.New("node without id"))
		case nodes[n.ID]:
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		nodes[n.ID] = true
	}
	edges := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		switch {
		case e.ID == "":
			errs = append(errs, errors.New("edge without id"))
		case edges[e.ID]:
			errs = append(errs, fmt.Errorf("duplicate edge id %q", e.ID))
		}
		edges[e.ID] = true
		if !nodes[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s: unknown source %q", e.ID, e.Source))
		}
		if !nodes[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s: unknown target %q", e.ID, e.Target))
		}
		if e.Algorithm != "" && !e.Algorithm.Valid() {
			errs = append(errs, fmt.Errorf("edge %s: unknown algorithm %q", e.ID, e.Algorithm))
		}
		if !e.Kind.Valid() {
			errs = append(errs, fmt.Errorf("edge %s: unknown kind %q", e.ID, e.Kind))
		}
		seen := make(map[string]bool, len(e.Waypoints))
		for _, w := range e.Waypoints {
			if w.ID == "" || seen[w.ID] {
				errs = append(errs, fmt.Errorf("edge %s: waypoint id %q missing or duplicated", e.ID, w.ID))
			}
			seen[w.ID] = true
		}
	}
	return errors.Join(errs...)
}

// Color returns the stroke color of e: its kind color, else its algorithm color.
func (e Edge) Color() vector.Color {
	if c, ok := e.Kind.Color(); ok {
		return c
	}
	return e.Algorithm.Or(route.DefaultAlgorithm).Color()
}
