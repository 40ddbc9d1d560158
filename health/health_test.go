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

package health

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestTrackerInitialState(t *testing.T) {
	tracker := NewTracker("1.2.3", "preview")
	snapshot := tracker.Read()
	if snapshot.ConnectionStatus != StatusDisconnected {
		t.Fatalf(
			"did not get expected connection status: got %s, wanted %s",
			snapshot.ConnectionStatus,
			StatusDisconnected,
		)
	}
	if snapshot.Version != "1.2.3" {
		t.Fatalf(
			"did not get expected version: got %s, wanted 1.2.3",
			snapshot.Version,
		)
	}
	if snapshot.Network != "preview" {
		t.Fatalf(
			"did not get expected network: got %s, wanted preview",
			snapshot.Network,
		)
	}
	if snapshot.StartTime.IsZero() {
		t.Fatal("expected start time to be set")
	}
	if len(snapshot.Metrics) != 0 {
		t.Fatalf("expected empty metrics, got %d entries", len(snapshot.Metrics))
	}
}

func TestTrackerSetTip(t *testing.T) {
	tracker := NewTracker("1.2.3", "mainnet")
	tracker.SetConnectionStatus(StatusConnected)
	tip := Tip{
		Slot:   112233,
		Hash:   "0dbe461fb5f981c0d01615332b8666340eb1a692b3034f46bcb5f5ea4172b2ed",
		Height: 9988,
	}
	tracker.SetTip(tip, "conway", 512, 33)
	snapshot := tracker.Read()
	if snapshot.ConnectionStatus != StatusConnected {
		t.Fatalf(
			"did not get expected connection status: got %s",
			snapshot.ConnectionStatus,
		)
	}
	if snapshot.LastKnownTip == nil || *snapshot.LastKnownTip != tip {
		t.Fatalf(
			"did not get expected tip: got %#v, wanted %#v",
			snapshot.LastKnownTip,
			tip,
		)
	}
	if snapshot.CurrentEra != "conway" {
		t.Fatalf("did not get expected era: got %s", snapshot.CurrentEra)
	}
	if snapshot.CurrentEpoch == nil || *snapshot.CurrentEpoch != 512 {
		t.Fatalf("did not get expected epoch: got %v", snapshot.CurrentEpoch)
	}
	if snapshot.SlotInEpoch == nil || *snapshot.SlotInEpoch != 33 {
		t.Fatalf(
			"did not get expected slot in epoch: got %v",
			snapshot.SlotInEpoch,
		)
	}
	if snapshot.LastTipUpdate == nil {
		t.Fatal("expected last tip update to be set")
	}
}

func TestTrackerReadCopiesMetrics(t *testing.T) {
	tracker := NewTracker("1.2.3", "mainnet")
	tracker.MergeMetrics(map[string]int64{"goroutines": 7})
	snapshot := tracker.Read()
	snapshot.Metrics["goroutines"] = 999
	snapshot2 := tracker.Read()
	if snapshot2.Metrics["goroutines"] != 7 {
		t.Fatalf(
			"mutation of returned metrics leaked into tracker: got %d",
			snapshot2.Metrics["goroutines"],
		)
	}
}

func TestTrackerMergeMetrics(t *testing.T) {
	tracker := NewTracker("1.2.3", "mainnet")
	tracker.MergeMetrics(map[string]int64{"goroutines": 7, "gcRuns": 2})
	tracker.MergeMetrics(map[string]int64{"goroutines": 9})
	snapshot := tracker.Read()
	if snapshot.Metrics["goroutines"] != 9 {
		t.Fatalf(
			"did not get expected goroutines metric: got %d",
			snapshot.Metrics["goroutines"],
		)
	}
	if snapshot.Metrics["gcRuns"] != 2 {
		t.Fatalf(
			"did not get expected gcRuns metric: got %d",
			snapshot.Metrics["gcRuns"],
		)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	defer goleak.VerifyNone(t)
	tracker := NewTracker("1.2.3", "mainnet")
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				tracker.SetTip(
					Tip{Slot: uint64(j), Height: uint64(j)},
					"conway",
					uint64(i),
					uint64(j),
				)
				tracker.MergeMetrics(map[string]int64{"writers": int64(i)})
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 500 {
			snapshot := tracker.Read()
			if snapshot.LastKnownTip == nil {
				continue
			}
			// Slot and Height are always written together
			if snapshot.LastKnownTip.Slot != snapshot.LastKnownTip.Height {
				t.Error("observed torn snapshot")
				return
			}
		}
	}()
	wg.Wait()
	snapshot := tracker.Read()
	if snapshot.Version != "1.2.3" {
		t.Fatalf("did not get expected version: got %s", snapshot.Version)
	}
}
