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

// Package eras provides the ordered ladder of Cardano protocol eras. The
// ordinal era ID matches hard-fork order, which makes "is era X at least
// as new as era Y" a plain integer comparison.
package eras

import (
	"encoding/json"

	"github.com/blinklabs-io/gouroboros/ledger"
)

type Era struct {
	Id   uint8
	Name string
}

const (
	EraIdByron   = uint8(ledger.EraIdByron)
	EraIdShelley = uint8(ledger.EraIdShelley)
	EraIdAllegra = uint8(ledger.EraIdAllegra)
	EraIdMary    = uint8(ledger.EraIdMary)
	EraIdAlonzo  = uint8(ledger.EraIdAlonzo)
	EraIdBabbage = uint8(ledger.EraIdBabbage)
	EraIdConway  = uint8(ledger.EraIdConway)
)

var (
	EraByron   = Era{Id: EraIdByron, Name: "Byron"}
	EraShelley = Era{Id: EraIdShelley, Name: "Shelley"}
	EraAllegra = Era{Id: EraIdAllegra, Name: "Allegra"}
	EraMary    = Era{Id: EraIdMary, Name: "Mary"}
	EraAlonzo  = Era{Id: EraIdAlonzo, Name: "Alonzo"}
	EraBabbage = Era{Id: EraIdBabbage, Name: "Babbage"}
	EraConway  = Era{Id: EraIdConway, Name: "Conway"}
)

// Eras lists all known eras in hard-fork order
var Eras = []Era{
	EraByron,
	EraShelley,
	EraAllegra,
	EraMary,
	EraAlonzo,
	EraBabbage,
	EraConway,
}

// FirstScriptEra is the oldest era with Plutus script support
var FirstScriptEra = EraAlonzo

func ById(eraId uint8) *Era {
	for _, era := range Eras {
		if era.Id == eraId {
			return &era
		}
	}
	return nil
}

func ByName(name string) *Era {
	for _, era := range Eras {
		if era.Name == name {
			return &era
		}
	}
	return nil
}

// Latest returns the newest known era
func Latest() Era {
	return Eras[len(Eras)-1]
}

// Name returns the display name for an era ID, or a placeholder for IDs
// outside the ladder
func Name(eraId uint8) string {
	if era := ById(eraId); era != nil {
		return era.Name
	}
	return "unknown"
}

// AtLeast returns true when era e is the same age as or newer than other
func (e Era) AtLeast(other Era) bool {
	return e.Id >= other.Id
}

// Before returns true when era e predates era other
func (e Era) Before(other Era) bool {
	return e.Id < other.Id
}

func (e Era) String() string {
	return e.Name
}

// MarshalJSON renders an era as its display name; the numeric ID is an
// internal detail
func (e Era) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Name)
}
