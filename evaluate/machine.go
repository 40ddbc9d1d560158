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

package evaluate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/common/script"
)

// ContextError reports that the evaluation context could not be
// assembled, typically because a required input has no known output.
type ContextError struct {
	Reason string
}

func (e ContextError) Error() string {
	return "cannot build evaluation context: " + e.Reason
}

// BudgetSource provides the per-transaction execution budget that
// caps each script run.
type BudgetSource interface {
	MaxTxExUnits(ctx context.Context) (lcommon.ExUnits, error)
}

// MachineOracle prices redeemers by actually running their scripts on
// a local Plutus machine against a script context assembled from the
// transaction and its resolved inputs.
type MachineOracle struct {
	budget BudgetSource
	logger *slog.Logger
}

func NewMachineOracle(budget BudgetSource, logger *slog.Logger) *MachineOracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &MachineOracle{
		budget: budget,
		logger: logger,
	}
}

// EvaluateScripts runs every redeemer in the transaction's witness
// set and returns a verdict per pointer. A ContextError is returned
// when the transaction's inputs cannot be fully resolved against the
// supplied UTXO view.
func (o *MachineOracle) EvaluateScripts(
	ctx context.Context,
	query Query,
) (map[RedeemerPointer]RedeemerResult, error) {
	tx := query.Tx.Tx
	resolved := query.ResolvedUtxos()
	if err := checkResolvable(tx.Inputs(), resolved); err != nil {
		return nil, err
	}
	budget := lcommon.ExUnits{}
	if o.budget != nil {
		maxUnits, err := o.budget.MaxTxExUnits(ctx)
		if err != nil {
			return nil, err
		}
		budget = maxUnits
	}
	txInfo := script.NewTxInfoV3FromTransaction(tx, resolved)
	witnesses := tx.Witnesses()
	redeemers := witnesses.Redeemers()
	results := make(map[RedeemerPointer]RedeemerResult)
	for _, key := range redeemerKeys(redeemers) {
		pointer := RedeemerPointer{
			Purpose: PurposeFromRedeemerTag(key.Tag),
			Index:   key.Index,
		}
		results[pointer] = o.runRedeemer(
			tx,
			txInfo,
			resolved,
			redeemers,
			key,
			budget,
		)
	}
	return results, nil
}

// checkResolvable verifies every spent input has a known output in
// the UTXO view.
func checkResolvable(
	inputs []lcommon.TransactionInput,
	resolved []lcommon.Utxo,
) error {
	for _, input := range inputs {
		found := false
		for _, utxo := range resolved {
			if utxo.Id.String() == input.String() {
				found = true
				break
			}
		}
		if !found {
			return ContextError{
				Reason: fmt.Sprintf(
					"unresolvable transaction input %s",
					input.String(),
				),
			}
		}
	}
	return nil
}

// redeemerKeys lists the redeemer pointers of a witness set in
// deterministic purpose-then-index order.
func redeemerKeys(
	redeemers lcommon.TransactionWitnessRedeemers,
) []lcommon.RedeemerKey {
	tags := []lcommon.RedeemerTag{
		lcommon.RedeemerTagSpend,
		lcommon.RedeemerTagMint,
		lcommon.RedeemerTagCert,
		lcommon.RedeemerTagReward,
		lcommon.RedeemerTagVoting,
		lcommon.RedeemerTagProposing,
	}
	var ret []lcommon.RedeemerKey
	for _, tag := range tags {
		idxs := redeemers.Indexes(tag)
		slices.Sort(idxs)
		for _, idx := range idxs {
			ret = append(ret, lcommon.RedeemerKey{
				Tag: tag,
				// nolint:gosec
				Index: uint32(idx),
			})
		}
	}
	return ret
}

func (o *MachineOracle) runRedeemer(
	tx lcommon.Transaction,
	txInfo script.TxInfo,
	resolvedInputs []lcommon.Utxo,
	redeemers lcommon.TransactionWitnessRedeemers,
	key lcommon.RedeemerKey,
	budget lcommon.ExUnits,
) RedeemerResult {
	purpose := buildPurpose(tx, resolvedInputs, key)
	if purpose == nil {
		return failResult(
			"unsupportedPurpose",
			fmt.Sprintf(
				"script purpose %s is not supported for evaluation",
				PurposeFromRedeemerTag(key.Tag),
			),
		)
	}
	scriptBytes, version := findScript(tx.Witnesses(), purpose.ScriptHash())
	if scriptBytes == nil {
		return failResult(
			"missingScript",
			fmt.Sprintf(
				"no witness script found for hash %s",
				purpose.ScriptHash().String(),
			),
		)
	}
	if version != 3 {
		return failResult(
			"unsupportedScriptLanguage",
			fmt.Sprintf(
				"local evaluation supports Plutus V3 scripts only, found V%d",
				version,
			),
		)
	}
	redeemerValue := redeemers.Value(uint(key.Index), key.Tag)
	scriptContext := script.NewScriptContextV3(
		txInfo,
		script.Redeemer{
			Tag:     key.Tag,
			Index:   key.Index,
			Data:    redeemerValue.Data.Data,
			ExUnits: redeemerValue.ExUnits,
		},
		purpose,
	)
	used, err := lcommon.PlutusV3Script(scriptBytes).Evaluate(
		scriptContext.ToPlutusData(),
		budget,
	)
	if err != nil {
		o.logger.Debug(
			"script execution failed",
			"component", "evaluate",
			"tag", int(key.Tag),
			"index", key.Index,
			"error", err,
		)
		return failResult("validationFailure", err.Error())
	}
	return RedeemerResult{
		Budget: &ExecutionUnits{
			// nolint:gosec
			Memory: uint64(used.Memory),
			// nolint:gosec
			Steps: uint64(used.Steps),
		},
	}
}

func failResult(code string, message string) RedeemerResult {
	return RedeemerResult{
		Failures: []ScriptFailure{{Code: code, Message: message}},
	}
}

// buildPurpose resolves a redeemer pointer to the script site it
// targets. Voting and proposal purposes are not yet supported.
func buildPurpose(
	tx lcommon.Transaction,
	resolvedInputs []lcommon.Utxo,
	key lcommon.RedeemerKey,
) script.ScriptInfo {
	switch key.Tag {
	case lcommon.RedeemerTagSpend:
		inputs := sortedInputs(tx.Inputs())
		if int(key.Index) >= len(inputs) {
			return nil
		}
		target := inputs[key.Index]
		for _, utxo := range resolvedInputs {
			if utxo.Id.String() == target.String() {
				info := script.ScriptInfoSpending{Input: utxo}
				if tmpDatum := utxo.Output.Datum(); tmpDatum != nil {
					info.Datum = tmpDatum.Data
				}
				return info
			}
		}
		return nil
	case lcommon.RedeemerTagMint:
		mint := tx.AssetMint()
		if mint == nil {
			return nil
		}
		policies := mint.Policies()
		slices.SortFunc(
			policies,
			func(a, b lcommon.Blake2b224) int {
				return bytes.Compare(a.Bytes(), b.Bytes())
			},
		)
		if int(key.Index) >= len(policies) {
			return nil
		}
		return script.ScriptInfoMinting{PolicyId: policies[key.Index]}
	case lcommon.RedeemerTagCert:
		certs := tx.Certificates()
		if int(key.Index) >= len(certs) {
			return nil
		}
		return script.ScriptInfoCertifying{
			Certificate: certs[key.Index],
		}
	case lcommon.RedeemerTagReward:
		addr := withdrawalAddress(tx.Withdrawals(), key.Index)
		if addr == nil {
			return nil
		}
		return script.ScriptInfoRewarding{
			StakeCredential: lcommon.Credential{
				CredType:   lcommon.CredentialTypeScriptHash,
				Credential: addr.StakeKeyHash(),
			},
		}
	}
	return nil
}

// sortedInputs orders inputs by transaction id, then output index,
// matching the ledger's canonical input ordering.
func sortedInputs(
	inputs []lcommon.TransactionInput,
) []lcommon.TransactionInput {
	tmp := make([]lcommon.TransactionInput, len(inputs))
	copy(tmp, inputs)
	slices.SortFunc(
		tmp,
		func(a, b lcommon.TransactionInput) int {
			if c := bytes.Compare(a.Id().Bytes(), b.Id().Bytes()); c != 0 {
				return c
			}
			return int(a.Index()) - int(b.Index())
		},
	)
	return tmp
}

// withdrawalAddress picks the index-th withdrawal reward address in
// canonical stake key order.
func withdrawalAddress(
	withdrawals map[*lcommon.Address]uint64,
	index uint32,
) *lcommon.Address {
	addrs := make([]*lcommon.Address, 0, len(withdrawals))
	for addr := range withdrawals {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(
		addrs,
		func(a, b *lcommon.Address) int {
			aHash := a.StakeKeyHash()
			bHash := b.StakeKeyHash()
			return bytes.Compare(aHash.Bytes(), bHash.Bytes())
		},
	)
	if int(index) >= len(addrs) {
		return nil
	}
	return addrs[index]
}

// findScript searches the witness set for the script matching a hash,
// returning its bytes and Plutus language version.
func findScript(
	witnesses lcommon.TransactionWitnessSet,
	hash lcommon.ScriptHash,
) ([]byte, int) {
	for _, s := range witnesses.PlutusV3Scripts() {
		if lcommon.PlutusV3Script(s).Hash() == hash {
			return s, 3
		}
	}
	for _, s := range witnesses.PlutusV2Scripts() {
		if lcommon.PlutusV2Script(s).Hash() == hash {
			return s, 2
		}
	}
	for _, s := range witnesses.PlutusV1Scripts() {
		if lcommon.PlutusV1Script(s).Hash() == hash {
			return s, 1
		}
	}
	return nil, 0
}
