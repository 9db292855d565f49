/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"edgepath/internal/diagram"
	"edgepath/internal/vector"
	"edgepath/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). With a zero page size the page is exactly the
// diagram bounds; otherwise the diagram is scaled uniformly to fit the page.
// Built-in Helvetica keeps labels vector without embedding fonts.
type PDFOptions struct {
	Options
	PageWidth  float64
	PageHeight float64
	Title      string
}

// PDF writes doc as a single-page PDF to w.
func PDF(w io.Writer, doc *diagram.Document, opt PDFOptions) error {
	pdf, err := renderPDF(doc, opt)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// WritePDFFile renders doc into path, creating parent folders.
func WritePDFFile(path string, doc *diagram.Document, opt PDFOptions) error {
	pdf, err := renderPDF(doc, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func renderPDF(doc *diagram.Document, opt PDFOptions) (*gofpdf.Fpdf, error) {
	o := opt.Options.withDefaults()
	sc, err := buildScene(doc, o)
	if err != nil {
		return nil, err
	}
	pw, ph := opt.PageWidth, opt.PageHeight
	if pw <= 0 || ph <= 0 {
		pw, ph = max(sc.Bounds.W, 1), max(sc.Bounds.H, 1)
	}
	m := vector.FitInto(sc.Bounds, vector.R(0, 0, pw, ph), 0)
	s := m.A // uniform scale

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pw, Ht: ph},
		OrientationStr: "",
	})
	title := opt.Title
	if title == "" {
		title = doc.Name
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("edgepath "+version.String(), true)
	pdf.SetFont("Helvetica", "", 12*s)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pw, Ht: ph})

	// Nodes
	setDrawColor(pdf, o.NodeStroke.Color)
	setFillColor(pdf, o.NodeFill)
	pdf.SetLineWidth(o.NodeStroke.Width * s)
	for _, n := range sc.Nodes {
		p := m.Apply(vector.Pt{X: n.X, Y: n.Y})
		pdf.Rect(p.X, p.Y, n.Width*s, n.Height*s, "FD")
		if n.Label != "" {
			c := m.Apply(n.Rect().Center())
			pdf.SetTextColor(0, 0, 0)
			pdf.Text(c.X-pdf.GetStringWidth(n.Label)/2, c.Y+4*s, n.Label)
		}
	}

	for _, e := range sc.Edges {
		applyStroke(pdf, e.Stroke, s)
		drawPath(pdf, e.Path.Transform(m))
		pdf.SetDashPattern([]float64{}, 0)
		if e.Label != "" {
			at := m.Apply(e.LabelAt)
			pdf.SetFontSize(11 * s)
			pdf.SetTextColor(int(e.Stroke.Color.R), int(e.Stroke.Color.G), int(e.Stroke.Color.B))
			pdf.Text(at.X-pdf.GetStringWidth(e.Label)/2, at.Y-4*s, e.Label)
			pdf.SetFontSize(12 * s)
		}
		for _, mk := range e.Markers {
			c := m.Apply(vector.Pt{X: mk.X, Y: mk.Y})
			if mk.Active {
				setFillColor(pdf, e.Stroke.Color)
				pdf.Circle(c.X, c.Y, o.MarkerRadius*s, "F")
			} else {
				setFillColor(pdf, vector.Color{R: 255, G: 255, B: 255, A: 255})
				setDrawColor(pdf, e.Stroke.Color)
				pdf.SetLineWidth(s)
				pdf.Circle(c.X, c.Y, (o.MarkerRadius-1)*s, "FD")
			}
		}
	}
	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	return pdf, nil
}

func applyStroke(pdf *gofpdf.Fpdf, st vector.Stroke, s float64) {
	setDrawColor(pdf, st.Color)
	pdf.SetLineWidth(st.Width * s)
	switch st.Cap {
	case vector.CapRound:
		pdf.SetLineCapStyle("round")
	case vector.CapSquare:
		pdf.SetLineCapStyle("square")
	default:
		pdf.SetLineCapStyle("butt")
	}
	switch st.Join {
	case vector.JoinRound:
		pdf.SetLineJoinStyle("round")
	case vector.JoinBevel:
		pdf.SetLineJoinStyle("bevel")
	default:
		pdf.SetLineJoinStyle("miter")
	}
	if len(st.Dash) > 0 {
		dash := make([]float64, len(st.Dash))
		for i, d := range st.Dash {
			dash[i] = d * s
		}
		pdf.SetDashPattern(dash, 0)
	}
}

// drawPath replays p on the PDF canvas and strokes it.
func drawPath(pdf *gofpdf.Fpdf, p vector.Path) {
	if len(p.Cmds) == 0 {
		return
	}
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			pdf.MoveTo(d[0], d[1])
		case vector.LineTo:
			pdf.LineTo(d[0], d[1])
		case vector.QuadTo:
			pdf.CurveTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			pdf.CurveBezierCubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			pdf.ClosePath()
		}
	}
	pdf.DrawPath("D")
}

func setDrawColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c vector.Color) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
