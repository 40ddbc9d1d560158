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

import (
	"encoding/hex"

	"github.com/blinklabs-io/txbridge/eras"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Constructor indices for the outer failure wrappers. These are shared by
// every Shelley-based era; only the leaf constructor sets differ per era.
const (
	applyTxErrUtxowFailure = 0

	utxowFailureUtxo = 2
)

// factory produces an empty canonical variant ready for CBOR decoding. The
// embedded failureBase consumes the leading constructor index.
type factory func() Rejection

// normalizer is one link in the era-delegation chain. Lookup walks from the
// newest era's tables toward Byron, so an era that introduces or renumbers a
// constructor index shadows its ancestors for that index only.
type normalizer struct {
	era   eras.Era
	prev  *normalizer
	utxow map[int]factory
	utxo  map[int]factory
}

var normalizers = func() map[uint8]*normalizer {
	chain := []*normalizer{
		byronNormalizer,
		shelleyNormalizer,
		allegraNormalizer,
		maryNormalizer,
		alonzoNormalizer,
		babbageNormalizer,
		conwayNormalizer,
	}
	ret := make(map[uint8]*normalizer, len(chain))
	for i, n := range chain {
		if i > 0 {
			n.prev = chain[i-1]
		}
		ret[n.era.Id] = n
	}
	return ret
}()

// forEra returns the normalizer chain entry point for an era ID, falling
// back to the newest known era for IDs from the future
func forEra(eraId uint8) *normalizer {
	if n, ok := normalizers[eraId]; ok {
		return n
	}
	return normalizers[eras.Latest().Id]
}

func unknown(data []byte) Rejection {
	return UnknownRejection{Cbor: hex.EncodeToString(data)}
}

func (n *normalizer) lookupUtxow(idx int) (factory, bool) {
	for cur := n; cur != nil; cur = cur.prev {
		if f, ok := cur.utxow[idx]; ok {
			return f, true
		}
	}
	return nil, false
}

func (n *normalizer) lookupUtxo(idx int) (factory, bool) {
	for cur := n; cur != nil; cur = cur.prev {
		if f, ok := cur.utxo[idx]; ok {
			return f, true
		}
	}
	return nil, false
}

// normalizeUtxo maps one leaf (UTxO-rule) failure into the canonical
// vocabulary using the era-delegation chain
func (n *normalizer) normalizeUtxo(data []byte) Rejection {
	idx, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return unknown(data)
	}
	f, ok := n.lookupUtxo(idx)
	if !ok {
		return unknown(data)
	}
	rej := f()
	if _, err := cbor.Decode(data, rej); err != nil {
		return unknown(data)
	}
	return rej
}

// normalizeUtxow maps one witness-level failure. The UtxoFailure arm nests
// another era tag plus the actual UTxO-rule failure; everything else decodes
// directly from the era tables.
func (n *normalizer) normalizeUtxow(data []byte) Rejection {
	idx, err := cbor.DecodeIdFromList(data)
	if err != nil {
		return unknown(data)
	}
	if idx == utxowFailureUtxo {
		var tmp struct {
			cbor.StructAsArray
			Idx     int
			Wrapped struct {
				cbor.StructAsArray
				Era     uint8
				Failure cbor.RawMessage
			}
		}
		if _, err := cbor.Decode(data, &tmp); err != nil {
			return unknown(data)
		}
		return forEra(tmp.Wrapped.Era).normalizeUtxo(tmp.Wrapped.Failure)
	}
	f, ok := n.lookupUtxow(idx)
	if !ok {
		return unknown(data)
	}
	rej := f()
	if _, err := cbor.Decode(data, rej); err != nil {
		return unknown(data)
	}
	return rej
}

// nodeEraMismatch mirrors the node's on-wire era mismatch report
type nodeEraMismatch struct {
	cbor.StructAsArray
	LedgerEra uint8
	OtherEra  uint8
}

// nodeTxValidationError mirrors the node's on-wire tx validation report: an
// era tag plus a list of rule failures
type nodeTxValidationError struct {
	Era      uint8
	Failures []cbor.RawMessage
}

func (e *nodeTxValidationError) UnmarshalCBOR(data []byte) error {
	var tmp struct {
		cbor.StructAsArray
		Inner struct {
			cbor.StructAsArray
			Era      uint8
			Failures []cbor.RawMessage
		}
	}
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	e.Era = tmp.Inner.Era
	e.Failures = tmp.Inner.Failures
	return nil
}

// Normalize decodes a node reject reason and collapses every rule failure in
// it into the canonical vocabulary. It is total: input that matches no known
// shape comes back as a single UnknownRejection carrying the raw CBOR.
func Normalize(reasonCbor []byte) []Rejection {
	// Era mismatch has a distinct, smaller shape and is tried first
	var mismatch nodeEraMismatch
	if _, err := cbor.Decode(reasonCbor, &mismatch); err == nil {
		return []Rejection{
			EraMismatch{
				LedgerEra: eras.Name(mismatch.LedgerEra),
				QueryEra:  eras.Name(mismatch.OtherEra),
			},
		}
	}
	var validation nodeTxValidationError
	if _, err := cbor.Decode(reasonCbor, &validation); err != nil {
		return []Rejection{unknown(reasonCbor)}
	}
	chain := forEra(validation.Era)
	ret := make([]Rejection, 0, len(validation.Failures))
	for _, failure := range validation.Failures {
		idx, err := cbor.DecodeIdFromList(failure)
		if err != nil {
			ret = append(ret, unknown(failure))
			continue
		}
		switch idx {
		case applyTxErrUtxowFailure:
			var tmp struct {
				cbor.StructAsArray
				Idx     int
				Wrapped cbor.RawMessage
			}
			if _, err := cbor.Decode(failure, &tmp); err != nil {
				ret = append(ret, unknown(failure))
				continue
			}
			ret = append(ret, chain.normalizeUtxow(tmp.Wrapped))
		default:
			ret = append(ret, unknown(failure))
		}
	}
	if len(ret) == 0 {
		ret = append(ret, unknown(reasonCbor))
	}
	return ret
}
