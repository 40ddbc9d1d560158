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

// Shelley introduced the UTXOW/UTXO failure encoding that every later era
// extends, so its tables carry the original constructor set. Index 2 at the
// witness level is the nested UtxoFailure arm handled in normalizeUtxow.
var shelleyNormalizer = &normalizer{
	era: eras.EraShelley,
	utxow: map[int]factory{
		0: func() Rejection { return &InvalidWitnesses{} },
		1: func() Rejection { return &MissingVKeyWitnesses{} },
		3: func() Rejection { return &MissingScriptWitnesses{} },
		4: func() Rejection { return &ScriptWitnessNotValidating{} },
		5: func() Rejection { return &MissingMetadataHash{} },
		6: func() Rejection { return &MissingMetadata{} },
		7: func() Rejection { return &MetadataHashMismatch{} },
		8: func() Rejection { return &InvalidMetadata{} },
		9: func() Rejection { return &ExtraneousScriptWitnesses{} },
	},
	utxo: map[int]factory{
		0:  func() Rejection { return &BadInputs{} },
		1:  func() Rejection { return &OutsideValidityInterval{} },
		2:  func() Rejection { return &TxTooLarge{} },
		3:  func() Rejection { return &MissingAtLeastOneInput{} },
		4:  func() Rejection { return &FeeTooSmall{} },
		5:  func() Rejection { return &ValueNotConserved{} },
		6:  func() Rejection { return &OutputTooSmall{} },
		7:  func() Rejection { return &ScriptPhaseFailure{} },
		8:  func() Rejection { return &NetworkMismatch{} },
		9:  func() Rejection { return &NetworkMismatchWithdrawal{} },
		10: func() Rejection { return &AddressAttributesTooLarge{} },
	},
}
