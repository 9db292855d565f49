/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders diagrams to vector formats (SVG and PDF).
package export

import (
	"fmt"
	"log/slog"

	"edgepath/internal/config"
	"edgepath/internal/diagram"
	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/vector"
)

// Options controls both exporters. A zero stroke width or marker radius falls
// back to config.Defaults().Export.
type Options struct {
	StrokeWidth  float64
	MarkerRadius float64
	ShowMarkers  bool
	Margin       float64
	Route        route.Options
	NodeStroke   vector.Stroke
	NodeFill     vector.Color
}

// OptionsFrom maps the export and engine configuration onto Options.
func OptionsFrom(cfg config.AppConfig) Options {
	return Options{
		StrokeWidth:  cfg.Export.StrokeWidth,
		MarkerRadius: cfg.Export.MarkerRadius,
		ShowMarkers:  cfg.Export.ShowMarkers,
		Margin:       cfg.Export.Margin,
		Route:        cfg.Engine.Options(),
	}
}

func (o Options) withDefaults() Options {
	d := config.Defaults().Export
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = d.StrokeWidth
	}
	if o.MarkerRadius <= 0 {
		o.MarkerRadius = d.MarkerRadius
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if !o.NodeStroke.Enabled {
		o.NodeStroke = vector.Stroke{Color: vector.MustHex("#1A202C"), Width: 1, Enabled: true}
	}
	if o.NodeFill == (vector.Color{}) {
		o.NodeFill = vector.Color{R: 255, G: 255, B: 255, A: 255}
	}
	o.Route = o.Route.Normalize()
	return o
}

// optionalDash is the dash pattern of optional edges.
var optionalDash = []float64{6, 4}

type edgeShape struct {
	ID      string
	Path    vector.Path
	Stroke  vector.Stroke
	Markers []route.ControlMarker
	Label   string
	LabelAt vector.Pt
}

type scene struct {
	Bounds vector.Rect
	Nodes  []diagram.Node
	Edges  []edgeShape
}

// buildScene routes every edge of doc. Edges with dangling references are
// skipped and logged.
func buildScene(doc *diagram.Document, opt Options) (scene, error) {
	if doc == nil {
		return scene{}, fmt.Errorf("document is nil")
	}
	l := applog.WithComponent("export")
	sc := scene{Nodes: doc.Nodes}
	for _, e := range doc.Edges {
		r, err := doc.Route(e, opt.Route)
		if err != nil {
			l.Warn("skip edge", slog.String("edge", e.ID), slog.Any("err", err))
			continue
		}
		alg := e.Algorithm.Or(route.DefaultAlgorithm)
		st := vector.Stroke{Color: e.Color(), Width: opt.StrokeWidth, Cap: vector.CapRound, Join: vector.JoinRound, Enabled: true}
		if e.Optional {
			st.Dash = optionalDash
		}
		shape := edgeShape{ID: e.ID, Path: route.BuildPath(r, alg, opt.Route), Stroke: st, Label: e.Label}
		if opt.ShowMarkers {
			shape.Markers = route.Markers(r, alg, opt.Route)
		}
		if pts := r.Points(); len(pts) >= 2 {
			i := (len(pts) - 1) / 2
			shape.LabelAt = pts[i].Mid(pts[i+1])
		}
		sc.Edges = append(sc.Edges, shape)
	}
	b := doc.Bounds(opt.Route)
	if opt.ShowMarkers {
		// markers overhang the path by their radius
		b = b.Inset(-opt.MarkerRadius, -opt.MarkerRadius)
	}
	sc.Bounds = b.Inset(-opt.Margin, -opt.Margin)
	return sc, nil
}
