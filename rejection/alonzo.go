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

// Alonzo introduced Plutus scripts: collateral, execution-unit, datum and
// redeemer rules all first appear here
var alonzoNormalizer = &normalizer{
	era: eras.EraAlonzo,
	utxow: map[int]factory{
		10: func() Rejection { return &MissingRedeemers{} },
		11: func() Rejection { return &MissingRequiredDatums{} },
		12: func() Rejection { return &ExtraneousDatums{} },
		13: func() Rejection { return &ScriptIntegrityHashMismatch{} },
		14: func() Rejection { return &MissingRequiredSigners{} },
		15: func() Rejection { return &UnspendableDatumlessOutputs{} },
		16: func() Rejection { return &ExtraneousRedeemers{} },
	},
	utxo: map[int]factory{
		12: func() Rejection { return &OutputTooLarge{} },
		13: func() Rejection { return &InsufficientCollateral{} },
		14: func() Rejection { return &ScriptsNotPaid{} },
		15: func() Rejection { return &ExecutionUnitsTooLarge{} },
		16: func() Rejection { return &CollateralHasNonAdaAssets{} },
		17: func() Rejection { return &NetworkMismatchTxBody{} },
		18: func() Rejection { return &OutsideForecast{} },
		19: func() Rejection { return &TooManyCollateralInputs{} },
		20: func() Rejection { return &MissingCollateralInputs{} },
	},
}
