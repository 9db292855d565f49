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
	"path/filepath"
	"strings"

	"edgepath/internal/diagram"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetScreen renders SVG with editing markers at the diagram's own size.
	PresetScreen PresetName = "screen"
	// PresetPrint renders SVG and an A4 landscape PDF without markers.
	PresetPrint PresetName = "print"
)

// Page sizes in points.
var (
	PageA4     = [2]float64{841.89, 595.28} // landscape
	PageLetter = [2]float64{792, 612}       // landscape
)

// BatchOptions controls exporting one diagram to several formats.
// Files are named <base>.<format> inside OutDir.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: svg, pdf; empty means preset defaults
	OutDir  string
	Base    string // file name without extension; defaults to the document name
	Options Options
}

// BatchExport runs exports according to the given preset and returns the written files.
func BatchExport(doc *diagram.Document, opt BatchOptions) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	base := opt.Base
	if base == "" {
		base = doc.Name
	}
	if base == "" {
		base = "diagram"
	}
	o := opt.Options
	if opt.Preset != "" {
		o.ShowMarkers = presetShowMarkers(opt.Preset)
	}

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "svg":
			out := filepath.Join(opt.OutDir, base+".svg")
			if err := WriteSVGFile(out, doc, o); err != nil {
				return written, fmt.Errorf("svg: %w", err)
			}
			written = append(written, out)
		case "pdf":
			out := filepath.Join(opt.OutDir, base+".pdf")
			po := PDFOptions{Options: o}
			if opt.Preset == PresetPrint {
				po.PageWidth, po.PageHeight = PageA4[0], PageA4[1]
			}
			if err := WritePDFFile(out, doc, po); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, out)
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetPrint:
		return []string{"svg", "pdf"}
	default:
		return []string{"svg"}
	}
}

func presetShowMarkers(p PresetName) bool {
	return p == PresetScreen
}
