// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package health tracks node liveness, the last known chain tip and a
// synchronization estimate. The snapshot is the only shared mutable state in
// the bridge outside the node session; it is replaced wholesale on every
// update so readers can never observe a half-written value.
package health

import (
	"sync"
	"sync/atomic"
	"time"
)

type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Tip is the last chain tip reported by the node
type Tip struct {
	Slot   uint64 `json:"slot"`
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
}

// Snapshot is one committed view of bridge and node state. Values are
// copied, never shared: mutating a Snapshot obtained from Read has no
// effect on the tracker.
type Snapshot struct {
	StartTime        time.Time        `json:"startTime"`
	LastKnownTip     *Tip             `json:"lastKnownTip"`
	LastTipUpdate    *time.Time       `json:"lastTipUpdate"`
	NetworkSyncRatio *SyncRatio       `json:"networkSynchronization"`
	CurrentEra       string           `json:"currentEra,omitempty"`
	CurrentEpoch     *uint64          `json:"currentEpoch"`
	SlotInEpoch      *uint64          `json:"slotInEpoch"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	Metrics          map[string]int64 `json:"metrics"`
	Version          string           `json:"version"`
	Network          string           `json:"network"`
}

// Tracker holds the latest committed snapshot. Reads are wait-free via an
// atomic pointer; updates serialize under a mutex and replace the whole
// snapshot as one unit (read-modify-write, last writer wins).
type Tracker struct {
	writeMutex sync.Mutex
	current    atomic.Pointer[Snapshot]
}

// NewTracker returns a tracker initialized to the empty, disconnected state
func NewTracker(version string, network string) *Tracker {
	t := &Tracker{}
	initial := &Snapshot{
		StartTime:        time.Now(),
		ConnectionStatus: StatusDisconnected,
		Metrics:          map[string]int64{},
		Version:          version,
		Network:          network,
	}
	t.current.Store(initial)
	return t
}

// Read returns the latest committed snapshot. It never blocks on writers.
func (t *Tracker) Read() Snapshot {
	snap := t.current.Load()
	ret := *snap
	// Copy the metrics map so callers cannot reach into a shared one
	ret.Metrics = make(map[string]int64, len(snap.Metrics))
	for k, v := range snap.Metrics {
		ret.Metrics[k] = v
	}
	return ret
}

// Update applies fn to a copy of the current snapshot and commits the result
// atomically. Concurrent updates serialize; none are lost and no reader
// observes an intermediate state.
func (t *Tracker) Update(fn func(Snapshot) Snapshot) {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()
	next := fn(t.Read())
	t.current.Store(&next)
}

// SetConnectionStatus records a node connection transition
func (t *Tracker) SetConnectionStatus(status ConnectionStatus) {
	t.Update(func(s Snapshot) Snapshot {
		s.ConnectionStatus = status
		return s
	})
}

// SetTip records a new chain tip along with the era, epoch and in-epoch slot
// it was observed under
func (t *Tracker) SetTip(tip Tip, eraName string, epoch uint64, slotInEpoch uint64) {
	now := time.Now()
	t.Update(func(s Snapshot) Snapshot {
		s.LastKnownTip = &tip
		s.LastTipUpdate = &now
		s.CurrentEra = eraName
		s.CurrentEpoch = &epoch
		s.SlotInEpoch = &slotInEpoch
		return s
	})
}

// SetSyncRatio records the latest network synchronization estimate
func (t *Tracker) SetSyncRatio(ratio SyncRatio) {
	t.Update(func(s Snapshot) Snapshot {
		s.NetworkSyncRatio = &ratio
		return s
	})
}

// MergeMetrics folds sampled runtime metrics into the snapshot
func (t *Tracker) MergeMetrics(metrics map[string]int64) {
	t.Update(func(s Snapshot) Snapshot {
		for k, v := range metrics {
			s.Metrics[k] = v
		}
		return s
	})
}
