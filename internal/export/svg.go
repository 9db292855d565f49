/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"edgepath/internal/diagram"
	"edgepath/internal/vector"
)

// SVG writes doc as a standalone SVG document. The viewBox matches the
// diagram coordinates, so path data is the engine's own path string.
func SVG(w io.Writer, doc *diagram.Document, opt Options) error {
	opt = opt.withDefaults()
	sc, err := buildScene(doc, opt)
	if err != nil {
		return err
	}
	b := sc.Bounds
	f := vector.FormatFloat

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%s\" height=\"%s\" viewBox=\"%s %s %s %s\">\n",
		f(b.W), f(b.H), f(b.X), f(b.Y), f(b.W), f(b.H))
	wf("  <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"#ffffff\"/>\n", f(b.X), f(b.Y), f(b.W), f(b.H))

	ns := opt.NodeStroke
	for _, n := range sc.Nodes {
		wf("  <rect id=\"node-%s\" x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" rx=\"4\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%s\"/>\n",
			escAttr(n.ID), f(n.X), f(n.Y), f(n.Width), f(n.Height), opt.NodeFill.Hex(), ns.Color.Hex(), f(ns.Width))
		if n.Label != "" {
			c := n.Rect().Center()
			wf("  <text x=\"%s\" y=\"%s\" text-anchor=\"middle\" dominant-baseline=\"middle\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"12\" fill=\"#000\">%s</text>\n",
				f(c.X), f(c.Y), escText(n.Label))
		}
	}

	for _, e := range sc.Edges {
		wf("  <path id=\"edge-%s\" d=\"%s\" fill=\"none\"%s/>\n", escAttr(e.ID), e.Path.String(), strokeAttrs(e.Stroke))
		if e.Label != "" {
			wf("  <text x=\"%s\" y=\"%s\" text-anchor=\"middle\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"11\" fill=\"%s\">%s</text>\n",
				f(e.LabelAt.X), f(e.LabelAt.Y-4), e.Stroke.Color.Hex(), escText(e.Label))
		}
		for _, m := range e.Markers {
			// Active markers sit on waypoints; inactive ones are hollow and slightly smaller.
			if m.Active {
				wf("  <circle class=\"marker active\" data-id=\"%s\" cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"%s\"/>\n",
					escAttr(m.ID), f(m.X), f(m.Y), f(opt.MarkerRadius), e.Stroke.Color.Hex())
			} else {
				wf("  <circle class=\"marker\" data-id=\"%s\" cx=\"%s\" cy=\"%s\" r=\"%s\" fill=\"#ffffff\" stroke=\"%s\" stroke-width=\"1\"/>\n",
					escAttr(m.ID), f(m.X), f(m.Y), f(opt.MarkerRadius-1), e.Stroke.Color.Hex())
			}
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// WriteSVGFile renders doc into path, creating parent folders.
func WriteSVGFile(path string, doc *diagram.Document, opt Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	var buf bytes.Buffer
	if err := SVG(&buf, doc, opt); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func strokeAttrs(s vector.Stroke) string {
	var b strings.Builder
	fmt.Fprintf(&b, " stroke=\"%s\" stroke-width=\"%s\"", s.Color.Hex(), vector.FormatFloat(s.Width))
	switch s.Cap {
	case vector.CapRound:
		b.WriteString(" stroke-linecap=\"round\"")
	case vector.CapSquare:
		b.WriteString(" stroke-linecap=\"square\"")
	}
	switch s.Join {
	case vector.JoinRound:
		b.WriteString(" stroke-linejoin=\"round\"")
	case vector.JoinBevel:
		b.WriteString(" stroke-linejoin=\"bevel\"")
	}
	if len(s.Dash) > 0 {
		parts := make([]string, len(s.Dash))
		for i, d := range s.Dash {
			parts[i] = vector.FormatFloat(d)
		}
		fmt.Fprintf(&b, " stroke-dasharray=\"%s\"", strings.Join(parts, " "))
	}
	return b.String()
}

func escAttr(s string) string {
	// naive escaping sufficient for ids and names
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
