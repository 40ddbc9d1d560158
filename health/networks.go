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

import "fmt"

// Well-known network magics and their canonical names
var networkNames = map[uint32]string{
	764824073:  "mainnet",
	1097911063: "testnet",
	1:          "preprod",
	2:          "preview",
	4:          "sanchonet",
}

// NetworkName maps a network magic to its canonical name, falling back to a
// placeholder carrying the raw value
func NetworkName(networkMagic uint32) string {
	if name, ok := networkNames[networkMagic]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%d)", networkMagic)
}
