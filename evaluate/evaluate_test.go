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

package evaluate_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/gouroboros/ledger/shelley"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/txbridge/eras"
	"github.com/blinklabs-io/txbridge/evaluate"
	"github.com/blinklabs-io/txbridge/txparse"
)

type fakeOracle struct {
	calls   int
	results map[evaluate.RedeemerPointer]evaluate.RedeemerResult
	err     error
}

func (f *fakeOracle) EvaluateScripts(
	_ context.Context,
	_ evaluate.Query,
) (map[evaluate.RedeemerPointer]evaluate.RedeemerResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeChain struct {
	era uint8
	err error
}

func (f *fakeChain) CurrentEra(_ context.Context) (uint8, error) {
	return f.era, f.err
}

func txInEra(era eras.Era) *txparse.Tx {
	return &txparse.Tx{Era: era}
}

func additionalUtxo(txIdHex string, index int) lcommon.Utxo {
	return lcommon.Utxo{
		Id: shelley.NewShelleyTransactionInput(txIdHex, index),
	}
}

const testTxIdHex = "96cf5bd2d493741779875a0fa64c783b0ca74885ef63fcbcd2c4d50a9d2c26f4"

func TestEvaluateNodeTipTooOld(t *testing.T) {
	oracle := &fakeOracle{}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdMary},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraConway)},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, evaluate.ErrorKindNodeTipTooOld, outcome.Failure.Kind())
	require.NotNil(t, outcome.Failure.NodeTipTooOld)
	assert.Equal(t, "Mary", outcome.Failure.NodeTipTooOld.CurrentEra)
	assert.Equal(
		t,
		"Alonzo",
		outcome.Failure.NodeTipTooOld.MinimumRequiredEra,
	)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluateByronTxUnsupported(t *testing.T) {
	oracle := &fakeOracle{}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraByron)},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, evaluate.ErrorKindUnsupportedEra, outcome.Failure.Kind())
	assert.Equal(t, "Byron", outcome.Failure.UnsupportedEra)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluatePreScriptEraIncompatible(t *testing.T) {
	for _, era := range []eras.Era{
		eras.EraShelley,
		eras.EraAllegra,
		eras.EraMary,
	} {
		t.Run(era.Name, func(t *testing.T) {
			oracle := &fakeOracle{}
			evaluator := evaluate.NewEvaluator(
				oracle,
				&fakeChain{era: eras.EraIdConway},
			)
			outcome, err := evaluator.Evaluate(
				context.Background(),
				evaluate.Query{Tx: txInEra(era)},
			)
			require.NoError(t, err)
			require.NotNil(t, outcome.Failure)
			assert.Equal(
				t,
				evaluate.ErrorKindIncompatibleEra,
				outcome.Failure.Kind(),
			)
			assert.Equal(t, era.Name, outcome.Failure.IncompatibleEra)
			assert.Equal(t, 0, oracle.calls)
		})
	}
}

func TestEvaluateOverlappingAdditionalUtxos(t *testing.T) {
	oracle := &fakeOracle{}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{
			Tx: txInEra(eras.EraConway),
			AdditionalUtxos: []lcommon.Utxo{
				additionalUtxo(testTxIdHex, 0),
				additionalUtxo(testTxIdHex, 1),
				additionalUtxo(testTxIdHex, 0),
			},
		},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, evaluate.ErrorKindOverlappingUtxo, outcome.Failure.Kind())
	require.Len(t, outcome.Failure.OverlappingUtxos, 1)
	assert.Equal(t, testTxIdHex, outcome.Failure.OverlappingUtxos[0].TxId)
	assert.Equal(t, uint32(0), outcome.Failure.OverlappingUtxos[0].Index)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluateAdditionalUtxoShadowsBase(t *testing.T) {
	oracle := &fakeOracle{}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{
			Tx: txInEra(eras.EraConway),
			BaseUtxos: []lcommon.Utxo{
				additionalUtxo(testTxIdHex, 0),
				additionalUtxo(testTxIdHex, 1),
			},
			AdditionalUtxos: []lcommon.Utxo{
				additionalUtxo(testTxIdHex, 1),
				additionalUtxo(testTxIdHex, 2),
			},
		},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, evaluate.ErrorKindOverlappingUtxo, outcome.Failure.Kind())
	require.Len(t, outcome.Failure.OverlappingUtxos, 1)
	assert.Equal(t, testTxIdHex, outcome.Failure.OverlappingUtxos[0].TxId)
	assert.Equal(t, uint32(1), outcome.Failure.OverlappingUtxos[0].Index)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluateAllOrNothingAggregation(t *testing.T) {
	spend0 := evaluate.RedeemerPointer{Purpose: evaluate.PurposeSpend, Index: 0}
	spend1 := evaluate.RedeemerPointer{Purpose: evaluate.PurposeSpend, Index: 1}
	mint0 := evaluate.RedeemerPointer{Purpose: evaluate.PurposeMint, Index: 0}
	oracle := &fakeOracle{
		results: map[evaluate.RedeemerPointer]evaluate.RedeemerResult{
			spend0: {
				Budget: &evaluate.ExecutionUnits{Memory: 100, Steps: 2000},
			},
			spend1: {
				Failures: []evaluate.ScriptFailure{
					{Code: "validationFailure", Message: "script returned False"},
				},
			},
			mint0: {
				Failures: []evaluate.ScriptFailure{
					{Code: "missingScript", Message: "no script for policy"},
				},
			},
		},
	}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraConway)},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(t, evaluate.ErrorKindScriptFailures, outcome.Failure.Kind())
	// the passing redeemer must not appear in the failure set
	assert.Len(t, outcome.Failure.ScriptFailures, 2)
	assert.Contains(t, outcome.Failure.ScriptFailures, spend1)
	assert.Contains(t, outcome.Failure.ScriptFailures, mint0)
	assert.NotContains(t, outcome.Failure.ScriptFailures, spend0)
	assert.Equal(t, 1, oracle.calls)
}

func TestEvaluateSuccess(t *testing.T) {
	spend0 := evaluate.RedeemerPointer{Purpose: evaluate.PurposeSpend, Index: 0}
	mint2 := evaluate.RedeemerPointer{Purpose: evaluate.PurposeMint, Index: 2}
	oracle := &fakeOracle{
		results: map[evaluate.RedeemerPointer]evaluate.RedeemerResult{
			spend0: {
				Budget: &evaluate.ExecutionUnits{Memory: 100, Steps: 2000},
			},
			mint2: {
				Budget: &evaluate.ExecutionUnits{Memory: 50, Steps: 900},
			},
		},
	}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdBabbage},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraAlonzo)},
	)
	require.NoError(t, err)
	require.Nil(t, outcome.Failure)
	require.Len(t, outcome.Success, 2)
	assert.Equal(
		t,
		evaluate.ExecutionUnits{Memory: 100, Steps: 2000},
		outcome.Success[spend0],
	)
	assert.Equal(
		t,
		evaluate.ExecutionUnits{Memory: 50, Steps: 900},
		outcome.Success[mint2],
	)
}

func TestEvaluateContextError(t *testing.T) {
	oracle := &fakeOracle{
		err: evaluate.ContextError{
			Reason: "unresolvable transaction input " + testTxIdHex + "#0",
		},
	}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	outcome, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraConway)},
	)
	require.NoError(t, err)
	require.NotNil(t, outcome.Failure)
	assert.Equal(
		t,
		evaluate.ErrorKindCannotBuildContext,
		outcome.Failure.Kind(),
	)
	assert.True(
		t,
		strings.Contains(
			outcome.Failure.CannotBuildContext,
			"unresolvable transaction input",
		),
	)
}

func TestEvaluateInfraErrorPassthrough(t *testing.T) {
	infraErr := errors.New("node unavailable")
	oracle := &fakeOracle{err: infraErr}
	evaluator := evaluate.NewEvaluator(
		oracle,
		&fakeChain{era: eras.EraIdConway},
	)
	_, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraConway)},
	)
	require.ErrorIs(t, err, infraErr)
}

func TestEvaluateChainViewError(t *testing.T) {
	chainErr := errors.New("node unavailable")
	oracle := &fakeOracle{}
	evaluator := evaluate.NewEvaluator(oracle, &fakeChain{err: chainErr})
	_, err := evaluator.Evaluate(
		context.Background(),
		evaluate.Query{Tx: txInEra(eras.EraConway)},
	)
	require.ErrorIs(t, err, chainErr)
	assert.Equal(t, 0, oracle.calls)
}

func TestSortPointers(t *testing.T) {
	pointers := []evaluate.RedeemerPointer{
		{Purpose: evaluate.PurposeMint, Index: 1},
		{Purpose: evaluate.PurposeSpend, Index: 2},
		{Purpose: evaluate.PurposeWithdraw, Index: 0},
		{Purpose: evaluate.PurposeSpend, Index: 0},
		{Purpose: evaluate.PurposeMint, Index: 0},
	}
	evaluate.SortPointers(pointers)
	expected := []evaluate.RedeemerPointer{
		{Purpose: evaluate.PurposeSpend, Index: 0},
		{Purpose: evaluate.PurposeSpend, Index: 2},
		{Purpose: evaluate.PurposeMint, Index: 0},
		{Purpose: evaluate.PurposeMint, Index: 1},
		{Purpose: evaluate.PurposeWithdraw, Index: 0},
	}
	assert.Equal(t, expected, pointers)
}
