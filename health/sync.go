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
	"time"

	"github.com/shopspring/decimal"
)

// syncTolerance is how far the tip may lag wall-clock time while still
// reporting fully synced. Normal block production keeps the tip a little
// behind real time even on a healthy node.
const syncTolerance = 60 * time.Second

const syncRatioDecimals = 5

// SyncRatio is a network synchronization estimate in [0,1]. Its external
// representation is always a fixed 5-decimal string such as "0.50000",
// never scientific notation.
type SyncRatio struct {
	value decimal.Decimal
}

// NewSyncRatio computes the synchronization estimate from the process system
// start, the current wall-clock time, and the time elapsed at the tip (the
// duration since system start implied by the tip's slot). A tip within the
// tolerance of wall-clock time snaps to exactly 1.
func NewSyncRatio(systemStart time.Time, now time.Time, tipElapsed time.Duration) SyncRatio {
	wallElapsed := now.Sub(systemStart)
	diff := wallElapsed - tipElapsed
	if diff < 0 {
		diff = -diff
	}
	if diff <= syncTolerance {
		return SyncRatio{value: decimal.NewFromInt(1)}
	}
	if wallElapsed <= 0 {
		return SyncRatio{value: decimal.NewFromInt(0)}
	}
	ratio := decimal.NewFromInt(int64(tipElapsed)).
		DivRound(decimal.NewFromInt(int64(wallElapsed)), syncRatioDecimals)
	one := decimal.NewFromInt(1)
	if ratio.GreaterThan(one) {
		ratio = one
	}
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	return SyncRatio{value: ratio}
}

func (r SyncRatio) String() string {
	return r.value.StringFixed(syncRatioDecimals)
}

func (r SyncRatio) MarshalJSON() ([]byte, error) {
	// Unquoted fixed-point number
	return []byte(r.String()), nil
}

// Synced reports whether the estimate is exactly 1
func (r SyncRatio) Synced() bool {
	return r.value.Equal(decimal.NewFromInt(1))
}
