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

// Byron predates the Shelley rule-failure encoding entirely, so its
// normalizer defines no constructors of its own. It anchors the delegation
// chain; anything reaching it comes back as UnknownRejection.
var byronNormalizer = &normalizer{
	era: eras.EraByron,
}
