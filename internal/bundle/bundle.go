/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package bundle packs a diagram document together with its SVG and PDF
// renders into a single .zip for sharing, and installs such bundles.
package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"edgepath/internal/export"
	applog "edgepath/internal/log"
	"edgepath/internal/storage"
	"edgepath/internal/version"
)

const (
	ManifestName = "bundle.manifest.txt"
	RenderDir    = "render"
)

// ErrUnsafePath is returned by Unpack for entries escaping the target directory.
var ErrUnsafePath = errors.New("bundle entry escapes target directory")

// Pack writes the document of h and its renders to destZipPath. The archive
// holds a manifest, the document under its file name and
// render/<name>.svg plus render/<name>.pdf.
func Pack(h *storage.DocumentHandle, destZipPath string, opt export.Options) error {
	if h == nil {
		return errors.New("nil DocumentHandle")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	l := applog.WithOperation(applog.WithComponent("bundle"), "pack").With(slog.String("doc", h.Path))

	base := filepath.Base(h.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	doc, err := storage.Encode(h.Document, h.Format)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	var svg, pdf bytes.Buffer
	if err := export.SVG(&svg, &h.Document, opt); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	if err := export.PDF(&pdf, &h.Document, export.PDFOptions{Options: opt, Title: h.Document.Name}); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)
	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	zw := zip.NewWriter(zf)

	manifest := fmt.Sprintf("edgepath diagram bundle\nCreated: %s\nVersion: %s\nDocument: %s\nEdges: %d\n",
		time.Now().Format(time.RFC3339), version.String(), base, len(h.Document.Edges))
	entries := []struct {
		name string
		data []byte
	}{
		{ManifestName, []byte(manifest)},
		{base, doc},
		{path.Join(RenderDir, stem+".svg"), svg.Bytes()},
		{path.Join(RenderDir, stem+".pdf"), pdf.Bytes()},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err == nil {
			_, err = w.Write(e.data)
		}
		if err != nil {
			_ = zw.Close()
			_ = zf.Close()
			l.Error("zip build failed", slog.Any("err", err))
			return fmt.Errorf("add %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = zf.Close()
		return fmt.Errorf("finish zip: %w", err)
	}
	if err := zf.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	l.Info("bundle written", slog.Int("files", len(entries)), slog.String("zip", destZipPath))
	return nil
}

// Unpack extracts a bundle into destDir. Existing files are not overwritten
// and the manifest is skipped. It returns the number of files written.
func Unpack(zipPath, destDir string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("bundle"), "unpack").With(slog.String("dir", destDir))
	if strings.TrimSpace(destDir) == "" {
		return 0, errors.New("destDir is required")
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = r.Close() }()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure dir: %w", err)
	}

	installed := 0
	for _, f := range r.File {
		if f.Name == ManifestName {
			continue
		}
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return installed, fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		target := filepath.Join(destDir, rel)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return installed, err
		}
		if err := extract(f, target); err != nil {
			return installed, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		installed++
	}
	l.Info("bundle unpacked", slog.Int("files", installed))
	return installed, nil
}

func extract(f *zip.File, target string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, rc)
	return err
}
