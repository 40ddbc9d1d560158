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

// Package txparse resolves opaque transaction bytes into an era-tagged
// parsed transaction by speculative decoding against each known era's
// binary format, newest first.
package txparse

import (
	"bytes"
	"errors"

	"github.com/blinklabs-io/txbridge/eras"

	"github.com/blinklabs-io/gouroboros/ledger"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	_cbor "github.com/fxamacker/cbor/v2"
)

// Tx is a parsed transaction tagged with the era whose format it decoded
// under. It is owned by the call that produced it and never mutated.
type Tx struct {
	Era eras.Era
	Tx  lcommon.Transaction
	Raw []byte
}

// Id returns the content-derived transaction identifier, computed locally
// from the transaction body rather than reported by the node
func (t Tx) Id() string {
	return t.Tx.Hash().String()
}

// Attempt records one failed decode try. The sequence of attempts is
// diagnostic output and must preserve attempt order.
type Attempt struct {
	Era    eras.Era `json:"era"`
	Error  string   `json:"error"`
	Offset int      `json:"byteOffset"`
}

// ErrUnparseable indicates the bytes decoded under no known era format
var ErrUnparseable = errors.New("transaction does not parse under any known era")

// Decode attempts to parse raw transaction bytes against each known era,
// newest first, short-circuiting on the first success. On total failure the
// returned attempts list holds one record per era, in attempt order. Decode
// is pure: no I/O, no blocking.
func Decode(raw []byte) (*Tx, []Attempt, error) {
	if len(raw) == 0 {
		return nil, nil, errors.New("empty transaction bytes")
	}
	var attempts []Attempt
	// The offset is a property of the byte stream, not of any era's
	// schema, so it is computed once and repeated on every attempt
	offset := structuralOffset(raw)
	for i := len(eras.Eras) - 1; i >= 0; i-- {
		era := eras.Eras[i]
		tx, err := ledger.NewTransactionFromCbor(uint(era.Id), raw)
		if err == nil {
			return &Tx{Era: era, Tx: tx, Raw: raw}, nil, nil
		}
		attempts = append(attempts, Attempt{
			Era:    era,
			Error:  err.Error(),
			Offset: offset,
		})
	}
	return nil, attempts, ErrUnparseable
}

// structuralOffset reports how many bytes decode as well-formed CBOR before
// the stream breaks down, which is the most useful position to point a
// client at when every era rejects the input
func structuralOffset(raw []byte) int {
	dec := _cbor.NewDecoder(bytes.NewReader(raw))
	var tmp any
	if err := dec.Decode(&tmp); err != nil {
		return dec.NumBytesRead()
	}
	return 0
}
