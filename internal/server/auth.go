/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pascaldekloe/jwt"
)

const tokenAlg = jwt.HS512

var (
	ErrTokenExpired = errors.New("token expired")
	ErrNoSubject    = errors.New("token has no subject")
)

// SignToken issues a bearer token for subject valid for ttl.
func (s *Server) SignToken(subject string, ttl time.Duration) ([]byte, time.Time, error) {
	now := time.Now().Round(time.Second)
	exp := now.Add(ttl)
	claims := jwt.Claims{
		Registered: jwt.Registered{
			Subject: subject,
			Issuer:  "edgepath",
			Expires: jwt.NewNumericTime(exp),
			Issued:  jwt.NewNumericTime(now),
		},
	}
	tok, err := claims.HMACSign(tokenAlg, s.secret)
	if err != nil {
		return nil, time.Time{}, err
	}
	return tok, exp, nil
}

// CheckToken verifies the signature and expiry and returns the subject.
func (s *Server) CheckToken(token []byte) (string, error) {
	h, err := jwt.NewHMAC(tokenAlg, s.secret)
	if err != nil {
		return "", err
	}
	claims, err := h.Check(token)
	if err != nil {
		return "", err
	}
	if claims.Expires == nil || claims.Expires.Time().Before(time.Now()) {
		return "", ErrTokenExpired
	}
	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

// POST /api/auth/token {subject, ttl_seconds} -> {token, expires_at}
// An empty body asks for a "dev" token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	_ = r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read request: %w", err))
		return
	}
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
			return
		}
	}
	if req.Subject == "" {
		req.Subject = "dev"
	}
	ttl := s.ttl
	if req.TTLSeconds > 0 && time.Duration(req.TTLSeconds)*time.Second < ttl {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	tok, exp, err := s.SignToken(req.Subject, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      string(tok),
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (s *Server) withAuth(next func(w http.ResponseWriter, r *http.Request, subject string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("missing bearer token"))
			return
		}
		sub, err := s.CheckToken([]byte(strings.TrimSpace(auth[len(prefix):])))
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid token"))
			return
		}
		next(w, r, sub)
	}
}
