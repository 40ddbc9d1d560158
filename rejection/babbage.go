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

// Babbage added inline datums, reference inputs and the explicit total
// collateral field, keeping Alonzo's numbering for everything it inherited
var babbageNormalizer = &normalizer{
	era: eras.EraBabbage,
	utxow: map[int]factory{
		17: func() Rejection { return &MalformedScriptWitnesses{} },
		18: func() Rejection { return &MalformedReferenceScripts{} },
	},
	utxo: map[int]factory{
		21: func() Rejection { return &TotalCollateralMismatch{} },
		22: func() Rejection { return &MalformedScripts{} },
		23: func() Rejection { return &ConflictingReferenceInputs{} },
	},
}
