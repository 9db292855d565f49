/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package server exposes the routing engine over a small JSON HTTP API so
// that non-Go editors can compute routes, drag markers and share the waypoint
// journal.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"edgepath/internal/config"
	"edgepath/internal/edit"
	applog "edgepath/internal/log"
	"edgepath/internal/route"
	"edgepath/internal/storage"
	"edgepath/internal/version"
)

const devSecret = "dev-secret-change-me"

// Server serves the routing API. The journal is optional; without one the
// history endpoints answer 503.
type Server struct {
	engine   config.EngineConfig
	journal  storage.Journal
	keepLast int
	secret   []byte
	ttl      time.Duration
	ids      edit.IDFunc
	l        *slog.Logger
}

// New builds a server from the application config. j may be nil.
func New(cfg config.AppConfig, j storage.Journal) *Server {
	l := applog.WithComponent("server")
	secret := cfg.Server.Secret
	if secret == "" {
		secret = devSecret
		l.Warn("auth secret not set; using insecure dev secret", slog.String("env", config.EnvAuthSecret))
	}
	ttl := time.Duration(cfg.Server.TokenTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Server{
		engine:   cfg.Engine,
		journal:  j,
		keepLast: cfg.Journal.KeepLast,
		secret:   []byte(secret),
		ttl:      ttl,
		l:        l,
	}
}

// Handler returns the API mux wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	// Health endpoints
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("edgepath " + version.String()))
	})
	mux.HandleFunc("GET /api/algorithms", s.handleAlgorithms)

	mux.HandleFunc("POST /api/auth/token", s.handleToken)

	// Stateless geometry
	mux.HandleFunc("POST /api/route", s.handleRoute)
	mux.HandleFunc("POST /api/markers", s.handleMarker)
	mux.HandleFunc("POST /api/simplify", s.handleSimplify)

	// Journal (auth required)
	mux.HandleFunc("GET /api/edges/{id}/history", s.withAuth(s.handleHistory))
	mux.HandleFunc("POST /api/edges/{id}/history", s.withAuth(s.handleRecord))

	return s.logRequests(mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.l.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.journal.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("journal not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	type algo struct {
		Name       string `json:"name"`
		Label      string `json:"label"`
		Color      string `json:"color"`
		Orthogonal bool   `json:"orthogonal"`
		Default    bool   `json:"default"`
	}
	def := s.engine.Algorithm()
	var list []algo
	for _, n := range route.AlgorithmNames() {
		a := route.Algorithm(n)
		list = append(list, algo{Name: n, Label: a.Label(), Color: a.Color().Hex(), Orthogonal: a.Orthogonal(), Default: a == def})
	}
	writeJSON(w, http.StatusOK, list)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.l.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
