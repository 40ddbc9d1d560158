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

// Package evaluate computes per-redeemer execution cost estimates for
// a transaction. Requests pass era compatibility gating before the
// script oracle runs; per-redeemer results are then aggregated into a
// single all-or-nothing outcome.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"

	"github.com/blinklabs-io/txbridge/eras"
	"github.com/blinklabs-io/txbridge/rejection"
	"github.com/blinklabs-io/txbridge/txparse"
)

// Purpose names the script invocation site kind on the wire.
type Purpose string

const (
	PurposeSpend    Purpose = "spend"
	PurposeMint     Purpose = "mint"
	PurposeCert     Purpose = "certificate"
	PurposeWithdraw Purpose = "withdrawal"
	PurposeVote     Purpose = "vote"
	PurposePropose  Purpose = "propose"
)

// purposeOrder gives the deterministic response ordering for pointers
// with different purposes.
var purposeOrder = map[Purpose]int{
	PurposeSpend:    0,
	PurposeMint:     1,
	PurposeCert:     2,
	PurposeWithdraw: 3,
	PurposeVote:     4,
	PurposePropose:  5,
}

// PurposeFromRedeemerTag maps a ledger redeemer tag to its wire name.
func PurposeFromRedeemerTag(tag lcommon.RedeemerTag) Purpose {
	switch tag {
	case lcommon.RedeemerTagSpend:
		return PurposeSpend
	case lcommon.RedeemerTagMint:
		return PurposeMint
	case lcommon.RedeemerTagCert:
		return PurposeCert
	case lcommon.RedeemerTagReward:
		return PurposeWithdraw
	case lcommon.RedeemerTagVoting:
		return PurposeVote
	case lcommon.RedeemerTagProposing:
		return PurposePropose
	}
	return Purpose(fmt.Sprintf("unknown (%d)", tag))
}

// RedeemerPointer identifies one script invocation site within a
// transaction. Pointers are unique per transaction and key the
// evaluation results.
type RedeemerPointer struct {
	Purpose Purpose `json:"purpose"`
	Index   uint32  `json:"index"`
}

func (p RedeemerPointer) String() string {
	return fmt.Sprintf("%s:%d", p.Purpose, p.Index)
}

// SortPointers orders pointers ascending by purpose tag, then index.
func SortPointers(pointers []RedeemerPointer) {
	sort.Slice(pointers, func(i, j int) bool {
		pi, pj := pointers[i], pointers[j]
		if pi.Purpose != pj.Purpose {
			return purposeOrder[pi.Purpose] < purposeOrder[pj.Purpose]
		}
		return pi.Index < pj.Index
	})
}

// ExecutionUnits is the two-dimensional cost of one script execution.
type ExecutionUnits struct {
	Memory uint64 `json:"memory"`
	Steps  uint64 `json:"steps"`
}

// ScriptFailure describes one reason a single script execution failed.
type ScriptFailure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RedeemerResult is the oracle's verdict for one pointer: either a
// cost or a non-empty failure list.
type RedeemerResult struct {
	Budget   *ExecutionUnits
	Failures []ScriptFailure
}

func (r RedeemerResult) Failed() bool {
	return len(r.Failures) > 0
}

// Query is one evaluation request after transaction decoding.
type Query struct {
	Tx *txparse.Tx
	// BaseUtxos is the known ledger UTXO view for the transaction's
	// inputs, as resolved by the caller.
	BaseUtxos []lcommon.Utxo
	// AdditionalUtxos supplements the base view with not-yet-confirmed
	// outputs the transaction may consume. An additional entry must not
	// reference an input the base view already covers.
	AdditionalUtxos []lcommon.Utxo
}

// ResolvedUtxos returns the combined UTXO view for input resolution.
func (q Query) ResolvedUtxos() []lcommon.Utxo {
	ret := make([]lcommon.Utxo, 0, len(q.BaseUtxos)+len(q.AdditionalUtxos))
	ret = append(ret, q.BaseUtxos...)
	ret = append(ret, q.AdditionalUtxos...)
	return ret
}

// Oracle runs the scripts of a transaction and prices each redeemer.
// Implementations return a result per redeemer pointer present in the
// transaction's witness set, or an error if no per-redeemer verdicts
// could be produced at all.
type Oracle interface {
	EvaluateScripts(
		ctx context.Context,
		query Query,
	) (map[RedeemerPointer]RedeemerResult, error)
}

// ChainView is the slice of node state that evaluation gating needs.
type ChainView interface {
	CurrentEra(ctx context.Context) (uint8, error)
}

// Outcome is the aggregate evaluation verdict. Exactly one of the
// fields is set.
type Outcome struct {
	Success map[RedeemerPointer]ExecutionUnits
	Failure *Error
}

// Error is the evaluation failure union. Exactly one field is set.
type Error struct {
	ScriptFailures     map[RedeemerPointer][]ScriptFailure
	IncompatibleEra    string
	UnsupportedEra     string
	OverlappingUtxos   []rejection.InputRef
	NodeTipTooOld      *TipTooOld
	CannotBuildContext string
	hasCannotBuild     bool
	hasIncompatibleEra bool
	hasUnsupportedEra  bool
}

// TipTooOld reports that the node has not yet reached an era capable
// of script evaluation.
type TipTooOld struct {
	CurrentEra         string `json:"currentNodeEra"`
	MinimumRequiredEra string `json:"minimumRequiredEra"`
}

func scriptFailureError(failures map[RedeemerPointer][]ScriptFailure) *Error {
	return &Error{ScriptFailures: failures}
}

func incompatibleEraError(name string) *Error {
	return &Error{IncompatibleEra: name, hasIncompatibleEra: true}
}

func unsupportedEraError(name string) *Error {
	return &Error{UnsupportedEra: name, hasUnsupportedEra: true}
}

func overlappingUtxoError(refs []rejection.InputRef) *Error {
	return &Error{OverlappingUtxos: refs}
}

func tipTooOldError(current string) *Error {
	return &Error{NodeTipTooOld: &TipTooOld{
		CurrentEra:         current,
		MinimumRequiredEra: eras.FirstScriptEra.Name,
	}}
}

func cannotBuildContextError(reason string) *Error {
	return &Error{CannotBuildContext: reason, hasCannotBuild: true}
}

// Kind reports which arm of the failure union is populated.
func (e *Error) Kind() ErrorKind {
	switch {
	case e.ScriptFailures != nil:
		return ErrorKindScriptFailures
	case e.hasIncompatibleEra:
		return ErrorKindIncompatibleEra
	case e.hasUnsupportedEra:
		return ErrorKindUnsupportedEra
	case e.OverlappingUtxos != nil:
		return ErrorKindOverlappingUtxo
	case e.NodeTipTooOld != nil:
		return ErrorKindNodeTipTooOld
	case e.hasCannotBuild:
		return ErrorKindCannotBuildContext
	}
	return ErrorKindUnknown
}

type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindScriptFailures
	ErrorKindIncompatibleEra
	ErrorKindUnsupportedEra
	ErrorKindOverlappingUtxo
	ErrorKindNodeTipTooOld
	ErrorKindCannotBuildContext
)

// Evaluator gates evaluation requests and aggregates oracle results.
type Evaluator struct {
	oracle Oracle
	chain  ChainView
}

func NewEvaluator(oracle Oracle, chain ChainView) *Evaluator {
	return &Evaluator{
		oracle: oracle,
		chain:  chain,
	}
}

// Evaluate runs one evaluation request through gating, the oracle,
// and aggregation. A non-nil error is reserved for infrastructure
// failure (node unreachable, caller cancellation); every domain
// verdict lands in the Outcome.
func (e *Evaluator) Evaluate(ctx context.Context, query Query) (Outcome, error) {
	nodeEra, err := e.chain.CurrentEra(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if failure := gate(nodeEra, query); failure != nil {
		return Outcome{Failure: failure}, nil
	}
	results, err := e.oracle.EvaluateScripts(ctx, query)
	if err != nil {
		var ctxErr ContextError
		if errors.As(err, &ctxErr) {
			return Outcome{Failure: cannotBuildContextError(ctxErr.Reason)}, nil
		}
		return Outcome{}, err
	}
	return aggregate(results), nil
}

// gate applies the era and input precondition checks that must pass
// before any script runs. Check order is fixed: node readiness, then
// transaction era, then additional-UTXO consistency.
func gate(nodeEra uint8, query Query) *Error {
	if nodeEra < eras.FirstScriptEra.Id {
		return tipTooOldError(eras.Name(nodeEra))
	}
	txEra := query.Tx.Era
	if txEra.Id == eras.EraIdByron {
		return unsupportedEraError(txEra.Name)
	}
	if txEra.Before(eras.FirstScriptEra) {
		return incompatibleEraError(txEra.Name)
	}
	if overlap := overlappingInputs(query); len(overlap) > 0 {
		return overlappingUtxoError(overlap)
	}
	return nil
}

// overlappingInputs reports additional UTXO entries whose input
// reference is already covered by the base UTXO view, plus references
// repeated within the additional set itself. Either case leaves two
// outputs claiming the same input and makes the evaluation UTXO view
// ambiguous.
func overlappingInputs(query Query) []rejection.InputRef {
	base := make(map[rejection.InputRef]struct{})
	for _, utxo := range query.BaseUtxos {
		base[inputRef(utxo)] = struct{}{}
	}
	seen := make(map[rejection.InputRef]struct{})
	var overlap []rejection.InputRef
	for _, utxo := range query.AdditionalUtxos {
		ref := inputRef(utxo)
		if _, ok := base[ref]; ok {
			overlap = append(overlap, ref)
			continue
		}
		if _, ok := seen[ref]; ok {
			overlap = append(overlap, ref)
			continue
		}
		seen[ref] = struct{}{}
	}
	sort.Slice(overlap, func(i, j int) bool {
		if overlap[i].TxId != overlap[j].TxId {
			return overlap[i].TxId < overlap[j].TxId
		}
		return overlap[i].Index < overlap[j].Index
	})
	return overlap
}

func inputRef(utxo lcommon.Utxo) rejection.InputRef {
	return rejection.InputRef{
		TxId:  utxo.Id.Id().String(),
		Index: utxo.Id.Index(),
	}
}

// aggregate folds per-redeemer verdicts into the all-or-nothing
// outcome: any failing redeemer turns the whole response into a
// failure carrying only the failing pointers.
func aggregate(results map[RedeemerPointer]RedeemerResult) Outcome {
	failures := make(map[RedeemerPointer][]ScriptFailure)
	successes := make(map[RedeemerPointer]ExecutionUnits)
	for pointer, result := range results {
		if result.Failed() {
			failures[pointer] = result.Failures
			continue
		}
		if result.Budget != nil {
			successes[pointer] = *result.Budget
		}
	}
	if len(failures) > 0 {
		return Outcome{Failure: scriptFailureError(failures)}
	}
	return Outcome{Success: successes}
}
