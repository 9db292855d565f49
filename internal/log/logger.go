/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides slog-based logging for edgepath.
//
// Every record has a scope: the component and operation that produced it and
// the document and edge it concerns. Component and operation come from
// WithComponent and WithOperation, document and edge from the logger
// attributes "doc" and "edge" or from a context prepared with WithDocument
// and WithEdge. The console format prints the scope as a prefix
// ("edit/marker_drag_start flow.yaml#e1"); the JSON format keeps the fields
// as plain attributes.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"edgepath/internal/version"
)

// Attribute keys that make up the scope of a record.
const (
	KeyComponent = "component"
	KeyOperation = "op"
	KeyDocument  = "doc"
	KeyEdge      = "edge"
)

// Options controls logger initialization. FromEnv reads them from
// EDP_LOG_LEVEL, EDP_LOG_FORMAT, EDP_LOG_FILE and EDP_LOG_SOURCE.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // console or json
	AddSource bool
	// File, when set, receives the same records as the console through a
	// rotating writer.
	File    string
	Console io.Writer // nil means stderr
}

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// L returns the application logger, initializing it from the environment
// on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the application logger and slog.Default.
func Init(opts Options) {
	l := slog.New(NewHandler(destination(opts), opts)).With(
		slog.String("app", "edgepath"),
		slog.String("ver", version.Version),
	)
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

func destination(opts Options) io.Writer {
	w := opts.Console
	if w == nil {
		w = os.Stderr
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		w = io.MultiWriter(w, &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true})
	}
	return w
}

// NewHandler returns the handler Init installs, writing to w.
func NewHandler(w io.Writer, opts Options) slog.Handler {
	level := ParseLevel(opts.Level)
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		return &contextHandler{next: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})}
	}
	return &consoleHandler{level: level, source: opts.AddSource, w: w, mu: &sync.Mutex{}}
}

// FromEnv builds Options from the environment.
func FromEnv() Options {
	return Options{
		Level:     getenv("EDP_LOG_LEVEL", "info"),
		Format:    getenv("EDP_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(os.Getenv("EDP_LOG_SOURCE"), "true"),
		File:      os.Getenv("EDP_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseLevel maps a level name to a slog.Level. "warning" is accepted for
// warn; anything unknown is info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lv
}

// WithComponent returns the application logger scoped to a component.
func WithComponent(name string) *slog.Logger { return L().With(slog.String(KeyComponent, name)) }

// WithOperation scopes l to an operation, e.g. a gesture or a CLI command.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String(KeyOperation, op)) }

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

type ctxKey int

const (
	docKey ctxKey = iota
	edgeKey
)

// WithDocument stores the path of the diagram document in ctx.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, docKey, path)
}

// WithEdge stores an edge id in ctx.
func WithEdge(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, edgeKey, id)
}

func fromContext(ctx context.Context, k ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(k).(string)
	return v
}

// contextHandler adds the document and edge of the context to records that
// do not carry them yet.
type contextHandler struct {
	next      slog.Handler
	doc, edge bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := fromContext(ctx, docKey); v != "" && !h.doc {
		r.AddAttrs(slog.String(KeyDocument, v))
	}
	if v := fromContext(ctx, edgeKey); v != "" && !h.edge {
		r.AddAttrs(slog.String(KeyEdge, v))
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := &contextHandler{next: h.next.WithAttrs(attrs), doc: h.doc, edge: h.edge}
	for _, a := range attrs {
		c.doc = c.doc || a.Key == KeyDocument
		c.edge = c.edge || a.Key == KeyEdge
	}
	return c
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), doc: h.doc, edge: h.edge}
}

// scope is the component, operation, document and edge of a record.
type scope struct {
	component, op, doc, edge string
}

// take claims a at top level when it is a scope key.
func (s *scope) take(a slog.Attr) bool {
	if a.Value.Kind() != slog.KindString {
		return false
	}
	v := a.Value.String()
	switch a.Key {
	case KeyComponent:
		s.component = v
	case KeyOperation:
		s.op = v
	case KeyDocument:
		s.doc = v
	case KeyEdge:
		s.edge = v
	default:
		return false
	}
	return true
}

// String renders "component/op doc#edge", leaving out what is unset.
func (s scope) String() string {
	head := s.component
	if s.op != "" {
		if head != "" {
			head += "/"
		}
		head += s.op
	}
	var target string
	if s.doc != "" {
		target = filepath.Base(s.doc)
	}
	if s.edge != "" {
		target += "#" + s.edge
	}
	switch {
	case head == "":
		return target
	case target == "":
		return head
	}
	return head + " " + target
}

// consoleHandler writes one line per record:
//
//	15:04:05.000 INF edit/marker_drag_start flow.yaml#e1 message key=value
type consoleHandler struct {
	level  slog.Leveler
	source bool
	w      io.Writer
	mu     *sync.Mutex

	scope  scope
	attrs  []slog.Attr
	prefix string // open groups, "a.b."
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	sc := h.scope
	if v := fromContext(ctx, docKey); v != "" && sc.doc == "" {
		sc.doc = v
	}
	if v := fromContext(ctx, edgeKey); v != "" && sc.edge == "" {
		sc.edge = v
	}
	var rest []slog.Attr
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" || !sc.take(a) {
			rest = append(rest, a)
		}
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b := make([]byte, 0, 256)
	b = ts.AppendFormat(b, "15:04:05.000")
	b = append(b, ' ')
	b = append(b, levelTag(r.Level)...)
	if s := sc.String(); s != "" {
		b = append(b, ' ')
		b = append(b, s...)
	}
	if r.Message != "" {
		b = append(b, ' ')
		b = append(b, r.Message...)
	}
	for _, a := range h.attrs {
		b = appendAttr(b, "", a)
	}
	for _, a := range rest {
		b = appendAttr(b, h.prefix, a)
	}
	if h.source && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		b = append(b, " src="...)
		b = append(b, filepath.Base(f.File)...)
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(f.Line), 10)
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(b)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix == "" && c.scope.take(a) {
			continue
		}
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DBG"
	case l < slog.LevelWarn:
		return "INF"
	case l < slog.LevelError:
		return "WRN"
	}
	return "ERR"
}

func appendAttr(b []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return b
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			b = appendAttr(b, prefix+a.Key+".", g)
		}
		return b
	}
	b = append(b, ' ')
	b = append(b, prefix...)
	b = append(b, a.Key...)
	b = append(b, '=')
	return append(b, valueString(a.Value)...)
}

// valueString formats v compactly: floats without trailing zeros, durations
// and times in their usual text form, strings quoted when they contain
// blanks or '='.
func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " =\t\n\"") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	}
	return v.String()
}
