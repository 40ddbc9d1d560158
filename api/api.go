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

// Package api exposes the bridge over HTTP: transaction submission,
// script cost evaluation, and the health snapshot, all with a stable
// JSON wire contract.
package api

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/ledger"
	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"

	"github.com/blinklabs-io/txbridge/evaluate"
	"github.com/blinklabs-io/txbridge/rejection"
	"github.com/blinklabs-io/txbridge/submit"
	"github.com/blinklabs-io/txbridge/txparse"
)

// SubmitRequest carries one serialized transaction as hex CBOR.
type SubmitRequest struct {
	Cbor string `json:"cbor"`
}

// SubmitResponse reports an accepted transaction.
type SubmitResponse struct {
	Transaction string `json:"transaction"`
}

// RejectionDetail is one normalized rule failure on the wire.
type RejectionDetail struct {
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EvaluateRequest carries a transaction plus optional extra UTXOs
// that supplement the ledger state during evaluation.
type EvaluateRequest struct {
	Cbor            string           `json:"cbor"`
	AdditionalUtxos []AdditionalUtxo `json:"additionalUtxos,omitempty"`
}

// AdditionalUtxo is one unconfirmed output keyed by the input
// reference that would spend it. The output itself is hex CBOR in the
// era's own serialization.
type AdditionalUtxo struct {
	TxId   string `json:"txId"`
	Index  uint32 `json:"index"`
	Output string `json:"output"`
}

// EvaluateResponse lists per-redeemer budgets in deterministic
// pointer order.
type EvaluateResponse struct {
	Evaluation []EvaluationEntry `json:"evaluation"`
}

type EvaluationEntry struct {
	Validator evaluate.RedeemerPointer `json:"validator"`
	Budget    evaluate.ExecutionUnits  `json:"budget"`
}

// ScriptFailureEntry is one failing pointer with its error list.
type ScriptFailureEntry struct {
	Validator evaluate.RedeemerPointer `json:"validator"`
	Errors    []evaluate.ScriptFailure `json:"errors"`
}

// decodeUtxos converts the wire form of additional UTXOs into ledger
// UTXO values.
func decodeUtxos(entries []AdditionalUtxo) ([]lcommon.Utxo, error) {
	ret := make([]lcommon.Utxo, 0, len(entries))
	for _, entry := range entries {
		if _, err := hex.DecodeString(entry.TxId); err != nil {
			return nil, fmt.Errorf("malformed transaction id %q", entry.TxId)
		}
		outputCbor, err := hex.DecodeString(entry.Output)
		if err != nil {
			return nil, fmt.Errorf(
				"malformed output CBOR for %s#%d",
				entry.TxId,
				entry.Index,
			)
		}
		output, err := ledger.NewTransactionOutputFromCbor(outputCbor)
		if err != nil {
			return nil, fmt.Errorf(
				"undecodable output for %s#%d: %s",
				entry.TxId,
				entry.Index,
				err,
			)
		}
		ret = append(ret, lcommon.Utxo{
			Id: shelley.NewShelleyTransactionInput(
				entry.TxId,
				int(entry.Index),
			),
			Output: output,
		})
	}
	return ret, nil
}

// submitResponse maps a submission outcome onto the wire contract.
func submitResponse(outcome submit.Outcome) (any, int) {
	switch {
	case outcome.Accepted != "":
		return SubmitResponse{Transaction: outcome.Accepted}, 202
	case outcome.Rejected != nil:
		return newErrorResponse(
			CodeTransactionRejected,
			"transaction rejected by the ledger",
			rejectionDetails(outcome.Rejected),
		), 400
	default:
		return newErrorResponse(
			CodeDeserializationFailure,
			"failed to deserialize the transaction in every known era",
			deserializationAttempts(outcome.Unparseable),
		), 400
	}
}

func rejectionDetails(failures []rejection.Rejection) []RejectionDetail {
	ret := make([]RejectionDetail, 0, len(failures))
	for _, failure := range failures {
		ret = append(ret, RejectionDetail{
			Tag:     failure.Tag(),
			Message: failure.Error(),
			Details: failure,
		})
	}
	return ret
}

func deserializationAttempts(attempts []txparse.Attempt) []txparse.Attempt {
	if attempts == nil {
		return []txparse.Attempt{}
	}
	return attempts
}

// evaluateResponse maps an evaluation outcome onto the wire contract.
func evaluateResponse(outcome evaluate.Outcome) (any, int) {
	if outcome.Failure != nil {
		return evaluateErrorResponse(outcome.Failure), 400
	}
	pointers := make([]evaluate.RedeemerPointer, 0, len(outcome.Success))
	for pointer := range outcome.Success {
		pointers = append(pointers, pointer)
	}
	evaluate.SortPointers(pointers)
	entries := make([]EvaluationEntry, 0, len(pointers))
	for _, pointer := range pointers {
		entries = append(entries, EvaluationEntry{
			Validator: pointer,
			Budget:    outcome.Success[pointer],
		})
	}
	return EvaluateResponse{Evaluation: entries}, 200
}

func evaluateErrorResponse(failure *evaluate.Error) *ErrorResponse {
	switch failure.Kind() {
	case evaluate.ErrorKindIncompatibleEra:
		return newErrorResponse(
			CodeIncompatibleEra,
			fmt.Sprintf(
				"era %s is too old to carry scripts; re-serialize the transaction in a newer era",
				failure.IncompatibleEra,
			),
			nil,
		)
	case evaluate.ErrorKindUnsupportedEra:
		return newErrorResponse(
			CodeUnsupportedEra,
			fmt.Sprintf(
				"era %s is no longer supported for evaluation",
				failure.UnsupportedEra,
			),
			nil,
		)
	case evaluate.ErrorKindOverlappingUtxo:
		return newErrorResponse(
			CodeOverlappingUtxo,
			"the additional UTXO set contains conflicting entries for the same input",
			failure.OverlappingUtxos,
		)
	case evaluate.ErrorKindNodeTipTooOld:
		return newErrorResponse(
			CodeNodeTipTooOld,
			fmt.Sprintf(
				"the node is still in era %s; evaluation requires at least era %s",
				failure.NodeTipTooOld.CurrentEra,
				failure.NodeTipTooOld.MinimumRequiredEra,
			),
			failure.NodeTipTooOld,
		)
	case evaluate.ErrorKindCannotBuildContext:
		return newErrorResponse(
			CodeCannotBuildContext,
			fmt.Sprintf(
				"cannot build the evaluation context: %s",
				failure.CannotBuildContext,
			),
			nil,
		)
	case evaluate.ErrorKindScriptFailures:
		return newErrorResponse(
			CodeScriptFailures,
			"one or more scripts failed to execute",
			scriptFailureEntries(failure.ScriptFailures),
		)
	}
	return newErrorResponse(
		CodeCannotBuildContext,
		"unknown evaluation failure",
		nil,
	)
}

// scriptFailureEntries orders failing pointers deterministically and
// drops pointers whose error list is empty.
func scriptFailureEntries(
	failures map[evaluate.RedeemerPointer][]evaluate.ScriptFailure,
) []ScriptFailureEntry {
	pointers := make([]evaluate.RedeemerPointer, 0, len(failures))
	for pointer, errs := range failures {
		if len(errs) == 0 {
			continue
		}
		pointers = append(pointers, pointer)
	}
	evaluate.SortPointers(pointers)
	entries := make([]ScriptFailureEntry, 0, len(pointers))
	for _, pointer := range pointers {
		entries = append(entries, ScriptFailureEntry{
			Validator: pointer,
			Errors:    failures[pointer],
		})
	}
	return entries
}
