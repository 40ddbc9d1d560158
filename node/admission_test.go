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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// Concurrent callers must be admitted one at a time: at no point may
// two goroutines hold the queue simultaneously, and every caller must
// eventually get its turn.
func TestAdmissionQueueSerializes(t *testing.T) {
	defer goleak.VerifyNone(t)
	queue := newAdmissionQueue()
	const callers = 16
	var holders atomic.Int32
	var completed atomic.Int32
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := queue.acquire(context.Background()); err != nil {
				t.Errorf("unexpected acquire error: %s", err)
				return
			}
			if n := holders.Add(1); n != 1 {
				t.Errorf("%d concurrent holders, expected 1", n)
			}
			time.Sleep(time.Millisecond)
			holders.Add(-1)
			queue.release()
			completed.Add(1)
		}()
	}
	wg.Wait()
	if n := completed.Load(); n != callers {
		t.Fatalf("%d callers completed, expected %d", n, callers)
	}
}

func TestAdmissionQueueContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	queue := newAdmissionQueue()
	if err := queue.acquire(context.Background()); err != nil {
		t.Fatalf("unexpected acquire error: %s", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- queue.acquire(ctx)
	}()
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not give up after cancellation")
	}
	// The holder's slot must still be intact after the waiter gave up
	queue.release()
	if err := queue.acquire(context.Background()); err != nil {
		t.Fatalf("unexpected acquire error: %s", err)
	}
	queue.release()
}
