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

package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/gouroboros/ledger"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/protocol/localstatequery"
)

// summaryMaxAge bounds how long a cached chain summary is trusted
// before the era history is queried again. Era boundaries move at
// epoch granularity, so a short TTL is plenty.
const summaryMaxAge = 5 * time.Minute

// EraSegment is one era's slice of the slot timeline.
type EraSegment struct {
	BeginSlot   uint64
	BeginEpoch  uint64
	EndSlot     uint64
	EndEpoch    uint64
	EpochLength uint64
	// SlotLength is the slot duration in seconds.
	SlotLength uint64
}

// ChainSummary captures the node's view of the chain timeline: when
// the chain started, which era is active, and the per-era slotting
// parameters needed to convert between slots, times, and epochs.
type ChainSummary struct {
	SystemStart time.Time
	CurrentEra  uint8
	Segments    []EraSegment
}

// segmentFor finds the era segment containing the given slot. The
// last segment is open-ended.
func (s *ChainSummary) segmentFor(slot uint64) (*EraSegment, error) {
	if len(s.Segments) == 0 {
		return nil, errors.New("empty era history")
	}
	for i := range s.Segments {
		seg := &s.Segments[i]
		if slot < seg.BeginSlot {
			break
		}
		if i == len(s.Segments)-1 || slot < seg.EndSlot {
			return seg, nil
		}
	}
	return nil, fmt.Errorf("slot %d not covered by era history", slot)
}

// EpochPosition converts an absolute slot into an epoch number and
// the slot offset within that epoch.
func (s *ChainSummary) EpochPosition(slot uint64) (uint64, uint64, error) {
	seg, err := s.segmentFor(slot)
	if err != nil {
		return 0, 0, err
	}
	if seg.EpochLength == 0 {
		return 0, 0, errors.New("era history has zero epoch length")
	}
	offset := slot - seg.BeginSlot
	epoch := seg.BeginEpoch + offset/seg.EpochLength
	slotInEpoch := offset % seg.EpochLength
	return epoch, slotInEpoch, nil
}

// SlotTime converts an absolute slot into wall-clock time.
func (s *ChainSummary) SlotTime(slot uint64) time.Time {
	start := s.SystemStart
	var elapsed time.Duration
	for i := range s.Segments {
		seg := &s.Segments[i]
		if slot < seg.BeginSlot {
			break
		}
		if i == len(s.Segments)-1 || slot < seg.EndSlot {
			elapsed += time.Duration(slot-seg.BeginSlot) *
				time.Duration(seg.SlotLength) * time.Second
			break
		}
		elapsed += time.Duration(seg.EndSlot-seg.BeginSlot) *
			time.Duration(seg.SlotLength) * time.Second
	}
	return start.Add(elapsed)
}

// ChainSummary returns the cached chain summary, refreshing it from
// the node when stale or absent.
func (c *Client) ChainSummary(ctx context.Context) (*ChainSummary, error) {
	c.summaryMutex.Lock()
	if c.summary != nil && time.Since(c.summaryTime) < summaryMaxAge {
		summary := c.summary
		c.summaryMutex.Unlock()
		return summary, nil
	}
	c.summaryMutex.Unlock()
	summary, err := c.querySummary(ctx)
	if err != nil {
		return nil, err
	}
	c.summaryMutex.Lock()
	c.summary = summary
	c.summaryTime = time.Now()
	c.summaryMutex.Unlock()
	return summary, nil
}

func (c *Client) querySummary(ctx context.Context) (*ChainSummary, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.release()
	lsq := conn.LocalStateQuery().Client
	currentEra, err := lsq.GetCurrentEra()
	if err != nil {
		return nil, fmt.Errorf("query current era: %w", err)
	}
	systemStart, err := lsq.GetSystemStart()
	if err != nil {
		return nil, fmt.Errorf("query system start: %w", err)
	}
	eraHistory, err := lsq.GetEraHistory()
	if err != nil {
		return nil, fmt.Errorf("query era history: %w", err)
	}
	summary := &ChainSummary{
		SystemStart: systemStartTime(systemStart),
		// nolint:gosec
		CurrentEra: uint8(currentEra),
		Segments:   eraSegments(eraHistory),
	}
	return summary, nil
}

func systemStartTime(result *localstatequery.SystemStartResult) time.Time {
	year := int(result.Year.Int64())
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	start = start.AddDate(0, 0, result.Day-1)
	nanos := result.Picoseconds.Int64() / 1000
	return start.Add(time.Duration(nanos) * time.Nanosecond)
}

func eraSegments(history []localstatequery.EraHistoryResult) []EraSegment {
	ret := make([]EraSegment, 0, len(history))
	for _, era := range history {
		ret = append(ret, EraSegment{
			// nolint:gosec
			BeginSlot: uint64(era.Begin.SlotNo),
			// nolint:gosec
			BeginEpoch: uint64(era.Begin.EpochNo),
			// nolint:gosec
			EndSlot: uint64(era.End.SlotNo),
			// nolint:gosec
			EndEpoch: uint64(era.End.EpochNo),
			// nolint:gosec
			EpochLength: uint64(era.Params.EpochLength),
			// nolint:gosec
			SlotLength: uint64(era.Params.SlotLength),
		})
	}
	return ret
}

// CurrentEra queries the ledger era the node is currently in.
func (c *Client) CurrentEra(ctx context.Context) (uint8, error) {
	summary, err := c.ChainSummary(ctx)
	if err != nil {
		return 0, err
	}
	return summary.CurrentEra, nil
}

// MaxTxExUnits returns the protocol's per-transaction execution
// budget. Protocol parameter shapes vary by era; eras without script
// support report a zero budget.
func (c *Client) MaxTxExUnits(ctx context.Context) (lcommon.ExUnits, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return lcommon.ExUnits{}, err
	}
	defer c.release()
	pparams, err := conn.LocalStateQuery().Client.GetCurrentProtocolParams()
	if err != nil {
		return lcommon.ExUnits{}, fmt.Errorf("query protocol params: %w", err)
	}
	switch p := pparams.(type) {
	case *ledger.ConwayProtocolParameters:
		return p.MaxTxExUnits, nil
	case *ledger.BabbageProtocolParameters:
		return p.MaxTxExUnits, nil
	case *ledger.AlonzoProtocolParameters:
		return p.MaxTxExUnits, nil
	}
	return lcommon.ExUnits{}, nil
}
