/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"edgepath/internal/config"
	"edgepath/internal/crash"
	applog "edgepath/internal/log"
	"edgepath/internal/storage"
	"edgepath/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "edgepath: edge routing for diagrams")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  edgepath version|-v|--version                     Show version")
	_, _ = fmt.Fprintln(w, "  edgepath route <doc> [edge]                       Print points, markers and path of edges")
	_, _ = fmt.Fprintln(w, "  edgepath svg <doc> <out.svg>                      Render the diagram as SVG")
	_, _ = fmt.Fprintln(w, "  edgepath pdf <doc> <out.pdf> [a4|letter]          Render the diagram as PDF")
	_, _ = fmt.Fprintln(w, "  edgepath export <doc> <dir> [screen|print]        Batch export with a preset")
	_, _ = fmt.Fprintln(w, "  edgepath watch <doc> <out.svg>                    Re-render SVG whenever the document changes")
	_, _ = fmt.Fprintln(w, "  edgepath nudge <doc> <edge> <marker> [direction]  Nudge a marker (left|right|up|down; none activates)")
	_, _ = fmt.Fprintln(w, "  edgepath simplify <doc>                           Drop collapsed jogs on every edge and save")
	_, _ = fmt.Fprintln(w, "  edgepath history <doc> <edge> [limit]             List journaled waypoint lists of an edge")
	_, _ = fmt.Fprintln(w, "  edgepath restore <doc> <edge> <n>                 Restore the n-th journal entry (0 = newest)")
	_, _ = fmt.Fprintln(w, "  edgepath pack <doc> <out.zip>                     Bundle the document with SVG and PDF renders")
	_, _ = fmt.Fprintln(w, "  edgepath unpack <bundle.zip> <dir>                Extract a bundle without overwriting files")
	_, _ = fmt.Fprintln(w, "  edgepath serve [addr] [journal-dir]               Serve the routing HTTP API")
}

// app carries what every command needs. h is the document currently open, if any.
type app struct {
	cfg config.AppConfig
	out io.Writer
	l   *slog.Logger
	h   *storage.DocumentHandle
}

func main() {
	cfg, cfgErr := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	a := &app{cfg: cfg, out: os.Stdout, l: applog.WithComponent("cli")}
	if cfgErr != nil {
		a.l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a *app) current() *storage.DocumentHandle { return a.h }

// run dispatches a command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	defer crash.RecoverCurrent(a.current)
	a.l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(a.out)
		return 0
	}
	need := func(n int, msg string) bool {
		if len(args) < n {
			_, _ = fmt.Fprintln(a.out, msg)
			usage(a.out)
			return false
		}
		return true
	}
	var err error
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(a.out, version.String())
		return 0
	case "route":
		if !need(2, "route requires <doc>") {
			return 2
		}
		edge := ""
		if len(args) > 2 {
			edge = args[2]
		}
		err = a.route(args[1], edge)
	case "svg":
		if !need(3, "svg requires <doc> and <out.svg>") {
			return 2
		}
		err = a.svg(args[1], args[2])
	case "pdf":
		if !need(3, "pdf requires <doc> and <out.pdf>") {
			return 2
		}
		page := ""
		if len(args) > 3 {
			page = args[3]
		}
		err = a.pdf(args[1], args[2], page)
	case "export":
		if !need(3, "export requires <doc> and <dir>") {
			return 2
		}
		preset := "screen"
		if len(args) > 3 {
			preset = args[3]
		}
		err = a.batch(args[1], args[2], preset)
	case "watch":
		if !need(3, "watch requires <doc> and <out.svg>") {
			return 2
		}
		err = a.watch(ctx, args[1], args[2])
	case "nudge":
		if !need(4, "nudge requires <doc>, <edge> and <marker>") {
			return 2
		}
		dir := ""
		if len(args) > 4 {
			dir = args[4]
		}
		err = a.nudge(ctx, args[1], args[2], args[3], dir)
	case "simplify":
		if !need(2, "simplify requires <doc>") {
			return 2
		}
		err = a.simplify(ctx, args[1])
	case "history":
		if !need(3, "history requires <doc> and <edge>") {
			return 2
		}
		limit := 20
		if len(args) > 3 {
			if limit, err = strconv.Atoi(args[3]); err != nil {
				_, _ = fmt.Fprintln(a.out, "limit must be a number")
				return 2
			}
		}
		err = a.history(ctx, args[1], args[2], limit)
	case "restore":
		if !need(4, "restore requires <doc>, <edge> and <n>") {
			return 2
		}
		n, perr := strconv.Atoi(args[3])
		if perr != nil || n < 0 {
			_, _ = fmt.Fprintln(a.out, "n must be a non-negative number")
			return 2
		}
		err = a.restore(ctx, args[1], args[2], n)
	case "pack":
		if !need(3, "pack requires <doc> and <out.zip>") {
			return 2
		}
		err = a.pack(args[1], args[2])
	case "unpack":
		if !need(3, "unpack requires <bundle.zip> and <dir>") {
			return 2
		}
		err = a.unpack(args[1], args[2])
	case "serve":
		addr, dir := "", ""
		if len(args) > 1 {
			addr = args[1]
		}
		if len(args) > 2 {
			dir = args[2]
		}
		err = a.serve(ctx, addr, dir)
	default:
		usage(a.out)
		return 2
	}
	if err != nil {
		a.l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		_, _ = fmt.Fprintln(a.out, "Error:", err)
		return 1
	}
	return 0
}
