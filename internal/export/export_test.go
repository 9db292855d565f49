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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edgepath/internal/config"
	"edgepath/internal/diagram"
	"edgepath/internal/route"
)

func testDoc() *diagram.Document {
	return &diagram.Document{
		Name: "flow",
		Nodes: []diagram.Node{
			{ID: "1", X: 0, Y: 0, Width: 100, Height: 40, Label: "Start"},
			{ID: "2", X: 250, Y: 150, Width: 100, Height: 40, Label: "A & B"},
		},
		Edges: []diagram.Edge{
			{ID: "e1", Source: "1", Target: "2", Algorithm: route.Linear, Kind: diagram.KindNo, Optional: true, Label: "no"},
			{ID: "dangling", Source: "1", Target: "9"},
		},
	}
}

func TestSVG_RendersRouteAndStyle(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(&buf, testDoc(), Options{Margin: 10}); err != nil {
		t.Fatalf("SVG: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`viewBox="-10 -10 370 210"`,
		`<path id="edge-e1" d="M 100 20 L 175 20 L 175 170 L 250 170"`,
		`stroke="#e53e3e"`,
		`stroke-dasharray="6 4"`,
		`>A &amp; B</text>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "edge-dangling") {
		t.Fatalf("dangling edge must be skipped")
	}
	if strings.Contains(out, "marker") {
		t.Fatalf("markers are off by default")
	}
}

func TestSVG_Markers(t *testing.T) {
	doc := testDoc()
	doc.Edges[0].Waypoints = []route.Waypoint{{ID: "w1", X: 175, Y: 20}, {ID: "w2", X: 175, Y: 170}}
	var buf bytes.Buffer
	if err := SVG(&buf, doc, Options{ShowMarkers: true}); err != nil {
		t.Fatalf("SVG: %v", err)
	}
	out := buf.String()
	if n := strings.Count(out, `class="marker active"`); n != 2 {
		t.Fatalf("expected 2 active markers, got %d", n)
	}
	if !strings.Contains(out, `data-id="w1" cx="175" cy="20" r="4"`) {
		t.Fatalf("active marker should sit on its waypoint:\n%s", out)
	}
	if !strings.Contains(out, `data-id="seg-1" cx="175" cy="95" r="3"`) {
		t.Fatalf("inactive marker should sit mid-segment:\n%s", out)
	}
}

func TestPDF_CreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "flow.pdf")
	doc := testDoc()
	doc.Edges[0].Algorithm = route.BezierCatmullRom
	if err := WritePDFFile(out, doc, PDFOptions{Options: Options{ShowMarkers: true}, PageWidth: PageA4[0], PageHeight: PageA4[1]}); err != nil {
		t.Fatalf("export: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
	var buf bytes.Buffer
	if err := PDF(&buf, doc, PDFOptions{}); err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a pdf")
	}
}

func TestBatchExportPresets(t *testing.T) {
	dir := t.TempDir()
	files, err := BatchExport(testDoc(), BatchOptions{Preset: PresetPrint, OutDir: dir, Options: OptionsFrom(config.Defaults())})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "flow.svg" || filepath.Base(files[1]) != "flow.pdf" {
		t.Fatalf("unexpected files %v", files)
	}
	b, _ := os.ReadFile(files[0])
	if strings.Contains(string(b), "marker") {
		t.Fatalf("print preset hides markers")
	}
	if _, err := BatchExport(testDoc(), BatchOptions{Formats: []string{"png"}, OutDir: dir}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := BatchExport(nil, BatchOptions{}); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
