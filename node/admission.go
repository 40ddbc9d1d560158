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
)

// admissionQueue serializes access to the single node-to-client
// connection. The slot channel has capacity 1, so at most one caller
// holds the queue at a time and the rest block until it is released
// or their context ends.
type admissionQueue struct {
	slot chan struct{}
}

func newAdmissionQueue() *admissionQueue {
	return &admissionQueue{
		slot: make(chan struct{}, 1),
	}
}

// acquire blocks until the slot is free or the context ends. On
// success the caller must call release when done.
func (q *admissionQueue) acquire(ctx context.Context) error {
	select {
	case q.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *admissionQueue) release() {
	<-q.slot
}
