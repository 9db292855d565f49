/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo keeps bounded per-edge undo/redo history of opaque state blobs.
package undo

import (
	"sync"
	"time"
)

// Snapshot is the state of one edge before a change.
// Blob content is opaque to the manager; size is estimated as len(Blob).
type Snapshot struct {
	EdgeID string
	Blob   []byte
	TS     time.Time
	// recorded marks entries pushed by Record; only those coalesce.
	recorded bool
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerEdge limits the number of snapshots kept per edge (0 means unlimited).
	MaxPerEdge int
	// MinInterval coalesces changes recorded within the interval for the same
	// edge into one undo step; the earliest state of the burst is kept.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack per edge.
// It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-edge stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting (undo stacks only)
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 * 1024 * 1024
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Record stores the state an edge had before a change and clears its redo
// stack. A record within MinInterval of the previous one for the same edge
// only refreshes its timestamp.
func (m *Manager) Record(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redo[s.EdgeID] = nil
	stack := m.undo[s.EdgeID]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 {
		if stack[n-1].recorded && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
			stack[n-1].TS = s.TS
			return
		}
	}
	s.recorded = true
	m.undo[s.EdgeID] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.EdgeID)
}

// Undo returns the state to restore for the edge. current is the state being
// left; it becomes available to Redo.
func (m *Manager) Undo(edgeID string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[edgeID]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[edgeID] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Blob)
	m.redo[edgeID] = append(m.redo[edgeID], Snapshot{EdgeID: edgeID, Blob: current, TS: time.Now()})
	return s, true
}

// Redo returns the state undone last. current goes back onto the undo stack.
func (m *Manager) Redo(edgeID string, current []byte) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[edgeID]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[edgeID] = r[:len(r)-1]
	m.undo[edgeID] = append(m.undo[edgeID], Snapshot{EdgeID: edgeID, Blob: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(edgeID)
	return s, true
}

// CanUndo reports whether the edge has history.
func (m *Manager) CanUndo(edgeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[edgeID]) > 0
}

// Clear drops all history of an edge.
func (m *Manager) Clear(edgeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[edgeID] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.undo, edgeID)
	delete(m.redo, edgeID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, edges int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	edges = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, edges, totalSnapshots
}

func (m *Manager) enforceCapsLocked(edgeID string) {
	if m.cfg.MaxPerEdge > 0 {
		stack := m.undo[edgeID]
		if len(stack) > m.cfg.MaxPerEdge {
			toDrop := len(stack) - m.cfg.MaxPerEdge
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[edgeID] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune the oldest bottom entry across all edges
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestEdge := ""
		found := false
		var oldestTS time.Time
		for edge, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldestEdge, oldestTS, found = edge, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldestEdge]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldestEdge] = stack[1:]
		if len(m.undo[oldestEdge]) == 0 {
			delete(m.undo, oldestEdge)
		}
	}
}
