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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"edgepath/internal/route"
)

// Client is a minimal HTTP client for the routing API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Login fetches a token for subject and keeps it for later calls.
func (c *Client) Login(ctx context.Context, subject string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", map[string]any{"subject": subject}, &out); err != nil {
		return err
	}
	c.Token = out.Token
	return nil
}

// Route computes the route, markers and path of an edge.
func (c *Client) Route(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	var out RouteResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/route", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Marker drags or nudges a marker and returns the resulting waypoints.
func (c *Client) Marker(ctx context.Context, req MarkerRequest) (*MarkerResponse, error) {
	var out MarkerResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/markers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Record journals a committed waypoint list for edgeID.
func (c *Client) Record(ctx context.Context, edgeID string, wps []route.Waypoint) error {
	path := "/api/edges/" + url.PathEscape(edgeID) + "/history"
	return c.doJSON(ctx, http.MethodPost, path, map[string]any{"waypoints": wps}, nil)
}

// History lists journaled waypoint lists of edgeID, newest first.
func (c *Client) History(ctx context.Context, edgeID string, limit int) ([]HistoryEntry, error) {
	var out struct {
		Entries []HistoryEntry `json:"entries"`
	}
	path := fmt.Sprintf("/api/edges/%s/history?limit=%d", url.PathEscape(edgeID), limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}
