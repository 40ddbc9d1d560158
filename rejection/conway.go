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

package rejection

import "github.com/blinklabs-io/txbridge/eras"

// Conway dropped a constructor from the UTxO rule set, shifting the indices
// of every collateral- and script-related failure down by one. The table
// pins each shifted index so lookups never fall through to a stale Alonzo
// meaning; the canonical variants stay the same, which is what keeps
// client-side handling era-agnostic.
var conwayNormalizer = &normalizer{
	era: eras.EraConway,
	utxo: map[int]factory{
		11: func() Rejection { return &OutputTooLarge{} },
		12: func() Rejection { return &InsufficientCollateral{} },
		13: func() Rejection { return &ScriptsNotPaid{} },
		14: func() Rejection { return &ExecutionUnitsTooLarge{} },
		15: func() Rejection { return &CollateralHasNonAdaAssets{} },
		16: func() Rejection { return &ConflictingReferenceInputs{} },
	},
}
