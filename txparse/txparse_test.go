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

package txparse_test

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/blinklabs-io/txbridge/eras"
	"github.com/blinklabs-io/txbridge/txparse"
)

const conwayTxHex = "84a500d9010281825820279184037d249e397d97293738370756da559718fcdefae9924834840046b37b01018282583900923d4b64e1d730a4baf3e6dc433a9686983940f458363f37aad7a1a9568b72f85522e4a17d44a45cd021b9741b55d7cbc635c911625b015e1a00a9867082583900923d4b64e1d730a4baf3e6dc433a9686983940f458363f37aad7a1a9568b72f85522e4a17d44a45cd021b9741b55d7cbc635c911625b015e1b00000001267d7b04021a0002938d031a04e304e70800a100d9010281825820b829480e5d5827d2e1bd7c89176a5ca125c30812e54be7dbdf5c47c835a17f3d5840b13a76e7f2b19cde216fcad55ceeeb489ebab3dcf63ef1539ac4f535dece00411ee55c9b8188ef04b4aa3c72586e4a0ec9b89949367d7270fdddad3b18731403f5f6"

const byronTxHex = "839f8200d8185824825820a12a839c25a01fa5d118167db5acdbd9e38172ae8f00e5ac0a4997ef792a200700ff9f8282d818584283581c6c9982e7f2b6dcc5eaa880e8014568913c8868d9f0f86eb687b2633ca101581e581c010d876783fb2b4d0d17c86df29af8d35356ed3d1827bf4744f06700001a8dc672c11a000f4240ffa0"

func TestDecodeConwayTx(t *testing.T) {
	txCbor, err := hex.DecodeString(conwayTxHex)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tx, attempts, err := txparse.Decode(txCbor)
	if err != nil {
		t.Fatalf("Decode failed with an unexpected error: %s", err)
	}
	if attempts != nil {
		t.Fatalf("expected no decode attempts on success, got %d", len(attempts))
	}
	if tx.Era.Id != eras.EraIdConway {
		t.Fatalf(
			"did not get expected era: got %s, wanted %s",
			tx.Era.Name,
			eras.EraConway.Name,
		)
	}
	if tx.Id() == "" {
		t.Fatalf("expected non-empty transaction id")
	}
}

func TestDecodeByronTx(t *testing.T) {
	txCbor, err := hex.DecodeString(byronTxHex)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	tx, _, err := txparse.Decode(txCbor)
	if err != nil {
		t.Fatalf("Decode failed with an unexpected error: %s", err)
	}
	if tx.Era.Id != eras.EraIdByron {
		t.Fatalf(
			"did not get expected era: got %s, wanted %s",
			tx.Era.Name,
			eras.EraByron.Name,
		)
	}
}

func TestDecodeGarbage(t *testing.T) {
	tx, attempts, err := txparse.Decode([]byte{0x01, 0x02, 0x03})
	if !errors.Is(err, txparse.ErrUnparseable) {
		t.Fatalf("expected ErrUnparseable, got %v", err)
	}
	if tx != nil {
		t.Fatalf("expected nil transaction on failure")
	}
	if len(attempts) != len(eras.Eras) {
		t.Fatalf(
			"expected one attempt per era: got %d, wanted %d",
			len(attempts),
			len(eras.Eras),
		)
	}
	// Attempts run newest era first
	if attempts[0].Era.Id != eras.Latest().Id {
		t.Fatalf(
			"expected first attempt in era %s, got %s",
			eras.Latest().Name,
			attempts[0].Era.Name,
		)
	}
	if attempts[len(attempts)-1].Era.Id != eras.EraIdByron {
		t.Fatalf(
			"expected last attempt in era %s, got %s",
			eras.EraByron.Name,
			attempts[len(attempts)-1].Era.Name,
		)
	}
	for _, attempt := range attempts {
		if attempt.Error == "" {
			t.Fatalf("expected a decode error message for era %s", attempt.Era.Name)
		}
	}
	// The structural offset describes the byte stream, so every era's
	// attempt reports the same position
	for _, attempt := range attempts[1:] {
		if attempt.Offset != attempts[0].Offset {
			t.Fatalf(
				"offset mismatch between eras: %s reports %d, %s reports %d",
				attempts[0].Era.Name,
				attempts[0].Offset,
				attempt.Era.Name,
				attempt.Offset,
			)
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, _, err := txparse.Decode(nil)
	if err == nil {
		t.Fatalf("expected an error for empty input")
	}
	if errors.Is(err, txparse.ErrUnparseable) {
		t.Fatalf("empty input should not report per-era attempts")
	}
}
