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

// Package rejection defines the era-independent vocabulary for transaction
// rule failures reported by the node, plus the per-era normalizers that
// collapse the node's nested, era-specific failure encodings into it.
//
// Each hard fork wraps the previous era's failure union and adds (or
// renumbers) constructors, so normalization is defined by induction: an
// era's normalizer handles the constructor indices it introduced and
// delegates everything else to the previous era's normalizer. The result is
// total; shapes no normalizer recognizes collapse into UnknownRejection
// carrying the raw CBOR.
package rejection

import (
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Rejection is one canonical rule-failure variant. The set of
// implementations in this package is closed; clients can rely on Tag values
// being stable across bridge versions and node eras.
type Rejection interface {
	error
	Tag() string
	isRejection()
}

// failureBase consumes the leading constructor index of a CBOR-encoded
// failure so the remaining fields decode positionally. The cbor tag keeps
// the field in the positional layout; the CBOR decoder would otherwise
// honor the json tag and skip it, breaking the element count.
type failureBase struct {
	cbor.StructAsArray
	Type uint8 `cbor:"type" json:"-"`
}

func (failureBase) isRejection() {}

// InputRef identifies a transaction input by transaction ID and output index
type InputRef struct {
	TxId  string `json:"txId"`
	Index uint32 `json:"index"`
}

func (r *InputRef) UnmarshalCBOR(data []byte) error {
	var tmp struct {
		cbor.StructAsArray
		TxId  cbor.ByteString
		Index uint32
	}
	if _, err := cbor.Decode(data, &tmp); err != nil {
		return err
	}
	r.TxId = tmp.TxId.String()
	r.Index = tmp.Index
	return nil
}

func (r InputRef) String() string {
	return fmt.Sprintf("%s#%d", r.TxId, r.Index)
}

// RawValue carries a payload we surface without interpreting, as hex CBOR
type RawValue struct {
	Cbor string `json:"cbor"`
}

func (v *RawValue) UnmarshalCBOR(data []byte) error {
	v.Cbor = hex.EncodeToString(data)
	return nil
}

//
// UTxO rule failures
//

type BadInputs struct {
	failureBase
	Inputs []InputRef `json:"inputs"`
}

func (BadInputs) Tag() string { return "badInputs" }

func (e BadInputs) Error() string {
	return fmt.Sprintf("transaction spends %d unknown or spent input(s)", len(e.Inputs))
}

type OutsideValidityInterval struct {
	failureBase
	ValidityInterval RawValue `json:"validityInterval"`
	CurrentSlot      uint64   `json:"currentSlot"`
}

func (OutsideValidityInterval) Tag() string { return "outsideOfValidityInterval" }

func (e OutsideValidityInterval) Error() string {
	return fmt.Sprintf("current slot %d is outside of the transaction validity interval", e.CurrentSlot)
}

type TxTooLarge struct {
	failureBase
	ActualSize  int64 `json:"actualSize"`
	MaximumSize int64 `json:"maximumSize"`
}

func (TxTooLarge) Tag() string { return "txTooLarge" }

func (e TxTooLarge) Error() string {
	return fmt.Sprintf("transaction size %d exceeds maximum %d", e.ActualSize, e.MaximumSize)
}

type MissingAtLeastOneInput struct {
	failureBase
}

func (MissingAtLeastOneInput) Tag() string { return "missingAtLeastOneInputUtxo" }

func (MissingAtLeastOneInput) Error() string {
	return "transaction must have at least one input"
}

type FeeTooSmall struct {
	failureBase
	MinimumFee  uint64 `json:"minimumFee"`
	SuppliedFee uint64 `json:"suppliedFee"`
}

func (FeeTooSmall) Tag() string { return "feeTooSmall" }

func (e FeeTooSmall) Error() string {
	return fmt.Sprintf("fee %d is below required minimum %d", e.SuppliedFee, e.MinimumFee)
}

type ValueNotConserved struct {
	failureBase
	Consumed uint64 `json:"consumed"`
	Produced uint64 `json:"produced"`
}

func (ValueNotConserved) Tag() string { return "valueNotConserved" }

func (e ValueNotConserved) Error() string {
	return fmt.Sprintf("transaction consumes %d but produces %d", e.Consumed, e.Produced)
}

type OutputTooSmall struct {
	failureBase
	Outputs []RawValue `json:"outputs"`
}

func (OutputTooSmall) Tag() string { return "outputTooSmall" }

func (e OutputTooSmall) Error() string {
	return fmt.Sprintf("%d output(s) carry less than the required minimum value", len(e.Outputs))
}

// ScriptPhaseFailure covers the node's second-phase (UTxOS) failure wrapper
type ScriptPhaseFailure struct {
	failureBase
	Failure RawValue `json:"failure"`
}

func (ScriptPhaseFailure) Tag() string { return "scriptPhaseFailure" }

func (ScriptPhaseFailure) Error() string {
	return "phase-2 script validation failed"
}

type NetworkMismatch struct {
	failureBase
	ExpectedNetworkId int      `json:"expectedNetworkId"`
	Addresses         RawValue `json:"addresses"`
}

func (NetworkMismatch) Tag() string { return "networkMismatch" }

func (e NetworkMismatch) Error() string {
	return fmt.Sprintf("transaction addresses do not match expected network id %d", e.ExpectedNetworkId)
}

type NetworkMismatchWithdrawal struct {
	failureBase
	ExpectedNetworkId int      `json:"expectedNetworkId"`
	RewardAccounts    RawValue `json:"rewardAccounts"`
}

func (NetworkMismatchWithdrawal) Tag() string { return "networkMismatchWithdrawal" }

func (e NetworkMismatchWithdrawal) Error() string {
	return fmt.Sprintf("withdrawal accounts do not match expected network id %d", e.ExpectedNetworkId)
}

type NetworkMismatchTxBody struct {
	failureBase
	ActualNetworkId      int `json:"actualNetworkId"`
	TransactionNetworkId int `json:"transactionNetworkId"`
}

func (NetworkMismatchTxBody) Tag() string { return "networkMismatchTxBody" }

func (e NetworkMismatchTxBody) Error() string {
	return fmt.Sprintf(
		"transaction body declares network id %d but the node runs network id %d",
		e.TransactionNetworkId,
		e.ActualNetworkId,
	)
}

type AddressAttributesTooLarge struct {
	failureBase
	Outputs []RawValue `json:"outputs"`
}

func (AddressAttributesTooLarge) Tag() string { return "addressAttributesTooLarge" }

func (e AddressAttributesTooLarge) Error() string {
	return fmt.Sprintf("%d output(s) have oversized bootstrap address attributes", len(e.Outputs))
}

type TriesToForgeAda struct {
	failureBase
}

func (TriesToForgeAda) Tag() string { return "triesToForgeAda" }

func (TriesToForgeAda) Error() string {
	return "transaction attempts to mint or burn ada"
}

type OversizedOutput struct {
	cbor.StructAsArray
	ActualSize  int64    `json:"actualSize"`
	MaximumSize int64    `json:"maximumSize"`
	Output      RawValue `json:"output"`
}

type OutputTooLarge struct {
	failureBase
	Outputs []OversizedOutput `json:"outputs"`
}

func (OutputTooLarge) Tag() string { return "outputTooLarge" }

func (e OutputTooLarge) Error() string {
	return fmt.Sprintf("%d output(s) exceed the maximum serialized size", len(e.Outputs))
}

type InsufficientCollateral struct {
	failureBase
	ProvidedCollateral uint64 `json:"providedCollateral"`
	RequiredCollateral uint64 `json:"requiredCollateral"`
}

func (InsufficientCollateral) Tag() string { return "insufficientCollateral" }

func (e InsufficientCollateral) Error() string {
	return fmt.Sprintf(
		"collateral %d is below required %d",
		e.ProvidedCollateral,
		e.RequiredCollateral,
	)
}

type ScriptsNotPaid struct {
	failureBase
	Utxo RawValue `json:"utxo"`
}

func (ScriptsNotPaid) Tag() string { return "collateralIsScript" }

func (ScriptsNotPaid) Error() string {
	return "collateral inputs are locked by scripts"
}

type ExecutionUnitsTooLarge struct {
	failureBase
	MaximumUnits  RawValue `json:"maximumUnits"`
	SuppliedUnits RawValue `json:"suppliedUnits"`
}

func (ExecutionUnitsTooLarge) Tag() string { return "executionUnitsTooLarge" }

func (ExecutionUnitsTooLarge) Error() string {
	return "declared execution units exceed the per-transaction maximum"
}

type CollateralHasNonAdaAssets struct {
	failureBase
	Provided RawValue `json:"provided"`
}

func (CollateralHasNonAdaAssets) Tag() string { return "collateralHasNonAdaAssets" }

func (CollateralHasNonAdaAssets) Error() string {
	return "collateral inputs contain non-ada assets"
}

type OutsideForecast struct {
	failureBase
	Slot uint64 `json:"slot"`
}

func (OutsideForecast) Tag() string { return "outsideForecast" }

func (e OutsideForecast) Error() string {
	return fmt.Sprintf("slot %d is outside of the ledger time forecast", e.Slot)
}

type TooManyCollateralInputs struct {
	failureBase
	MaximumInputs int `json:"maximumInputs"`
	ActualInputs  int `json:"actualInputs"`
}

func (TooManyCollateralInputs) Tag() string { return "tooManyCollateralInputs" }

func (e TooManyCollateralInputs) Error() string {
	return fmt.Sprintf(
		"%d collateral inputs supplied but only %d allowed",
		e.ActualInputs,
		e.MaximumInputs,
	)
}

type MissingCollateralInputs struct {
	failureBase
}

func (MissingCollateralInputs) Tag() string { return "missingCollateralInputs" }

func (MissingCollateralInputs) Error() string {
	return "transaction runs scripts but declares no collateral inputs"
}

type TotalCollateralMismatch struct {
	failureBase
	DeclaredTotal uint64 `json:"declaredTotal"`
	ComputedTotal uint64 `json:"computedTotal"`
}

func (TotalCollateralMismatch) Tag() string { return "totalCollateralMismatch" }

func (e TotalCollateralMismatch) Error() string {
	return fmt.Sprintf(
		"declared total collateral %d does not match computed %d",
		e.DeclaredTotal,
		e.ComputedTotal,
	)
}

type MalformedScripts struct {
	failureBase
	Scripts []RawValue `json:"scripts"`
}

func (MalformedScripts) Tag() string { return "malformedScripts" }

func (e MalformedScripts) Error() string {
	return fmt.Sprintf("%d script(s) failed to deserialize", len(e.Scripts))
}

type ConflictingReferenceInputs struct {
	failureBase
	Inputs []InputRef `json:"inputs"`
}

func (ConflictingReferenceInputs) Tag() string { return "conflictingReferenceInputs" }

func (e ConflictingReferenceInputs) Error() string {
	return fmt.Sprintf(
		"%d input(s) are used both as spending and reference inputs",
		len(e.Inputs),
	)
}

//
// Witness-level (UTxOW) rule failures
//

type InvalidWitnesses struct {
	failureBase
	Keys RawValue `json:"keys"`
}

func (InvalidWitnesses) Tag() string { return "invalidWitnesses" }

func (InvalidWitnesses) Error() string {
	return "one or more signatures do not verify"
}

type MissingVKeyWitnesses struct {
	failureBase
	Keys RawValue `json:"keys"`
}

func (MissingVKeyWitnesses) Tag() string { return "missingVkeyWitnesses" }

func (MissingVKeyWitnesses) Error() string {
	return "required verification key witnesses are missing"
}

type MissingScriptWitnesses struct {
	failureBase
	Scripts RawValue `json:"scripts"`
}

func (MissingScriptWitnesses) Tag() string { return "missingScriptWitnesses" }

func (MissingScriptWitnesses) Error() string {
	return "required script witnesses are missing"
}

type ScriptWitnessNotValidating struct {
	failureBase
	Scripts RawValue `json:"scripts"`
}

func (ScriptWitnessNotValidating) Tag() string { return "scriptWitnessNotValidating" }

func (ScriptWitnessNotValidating) Error() string {
	return "one or more phase-1 script witnesses failed to validate"
}

type MissingMetadataHash struct {
	failureBase
	MetadataHash string `json:"metadataHash"`
}

func (MissingMetadataHash) Tag() string { return "missingMetadataHash" }

func (MissingMetadataHash) Error() string {
	return "transaction carries metadata but no metadata hash in its body"
}

type MissingMetadata struct {
	failureBase
	MetadataHash string `json:"metadataHash"`
}

func (MissingMetadata) Tag() string { return "missingMetadata" }

func (MissingMetadata) Error() string {
	return "transaction body declares a metadata hash but carries no metadata"
}

type MetadataHashMismatch struct {
	failureBase
	DeclaredHash string `json:"declaredHash"`
	ComputedHash string `json:"computedHash"`
}

func (MetadataHashMismatch) Tag() string { return "metadataHashMismatch" }

func (e MetadataHashMismatch) Error() string {
	return fmt.Sprintf(
		"declared metadata hash %s does not match computed %s",
		e.DeclaredHash,
		e.ComputedHash,
	)
}

type InvalidMetadata struct {
	failureBase
}

func (InvalidMetadata) Tag() string { return "invalidMetadata" }

func (InvalidMetadata) Error() string {
	return "transaction metadata is malformed"
}

type ExtraneousScriptWitnesses struct {
	failureBase
	Scripts RawValue `json:"scripts"`
}

func (ExtraneousScriptWitnesses) Tag() string { return "extraneousScriptWitnesses" }

func (ExtraneousScriptWitnesses) Error() string {
	return "transaction carries script witnesses it does not need"
}

type MissingRedeemers struct {
	failureBase
	Missing RawValue `json:"missing"`
}

func (MissingRedeemers) Tag() string { return "missingRedeemers" }

func (MissingRedeemers) Error() string {
	return "redeemers are missing for one or more script invocations"
}

type MissingRequiredDatums struct {
	failureBase
	Missing  RawValue `json:"missing"`
	Provided RawValue `json:"provided"`
}

func (MissingRequiredDatums) Tag() string { return "missingRequiredDatums" }

func (MissingRequiredDatums) Error() string {
	return "datums are missing for one or more script inputs"
}

type ExtraneousDatums struct {
	failureBase
	Datums RawValue `json:"datums"`
}

func (ExtraneousDatums) Tag() string { return "extraneousDatums" }

func (ExtraneousDatums) Error() string {
	return "transaction carries datums it does not need"
}

type ScriptIntegrityHashMismatch struct {
	failureBase
	DeclaredHash string `json:"declaredHash"`
	ComputedHash string `json:"computedHash"`
}

func (ScriptIntegrityHashMismatch) Tag() string { return "scriptIntegrityHashMismatch" }

func (e ScriptIntegrityHashMismatch) Error() string {
	return fmt.Sprintf(
		"declared script integrity hash %s does not match computed %s",
		e.DeclaredHash,
		e.ComputedHash,
	)
}

type MissingRequiredSigners struct {
	failureBase
	Keys RawValue `json:"keys"`
}

func (MissingRequiredSigners) Tag() string { return "missingRequiredSigners" }

func (MissingRequiredSigners) Error() string {
	return "signatures from required extra signers are missing"
}

type UnspendableDatumlessOutputs struct {
	failureBase
	Inputs []InputRef `json:"inputs"`
}

func (UnspendableDatumlessOutputs) Tag() string { return "unspendableDatumlessOutputs" }

func (e UnspendableDatumlessOutputs) Error() string {
	return fmt.Sprintf(
		"%d script-locked input(s) have no datum and can never be spent",
		len(e.Inputs),
	)
}

type ExtraneousRedeemers struct {
	failureBase
	Redeemers RawValue `json:"redeemers"`
}

func (ExtraneousRedeemers) Tag() string { return "extraneousRedeemers" }

func (ExtraneousRedeemers) Error() string {
	return "transaction carries redeemers that point at nothing"
}

type MalformedScriptWitnesses struct {
	failureBase
	Scripts RawValue `json:"scripts"`
}

func (MalformedScriptWitnesses) Tag() string { return "malformedScriptWitnesses" }

func (MalformedScriptWitnesses) Error() string {
	return "one or more script witnesses failed to deserialize"
}

type MalformedReferenceScripts struct {
	failureBase
	Scripts RawValue `json:"scripts"`
}

func (MalformedReferenceScripts) Tag() string { return "malformedReferenceScripts" }

func (MalformedReferenceScripts) Error() string {
	return "one or more reference scripts failed to deserialize"
}

//
// Top-level failures
//

// EraMismatch is reported when the node and the transaction disagree about
// the current era
type EraMismatch struct {
	LedgerEra string `json:"ledgerEra"`
	QueryEra  string `json:"queryEra"`
}

func (EraMismatch) isRejection() {}

func (EraMismatch) Tag() string { return "eraMismatch" }

func (e EraMismatch) Error() string {
	return fmt.Sprintf(
		"the node is running in the %s era, but the transaction is for the %s era",
		e.LedgerEra,
		e.QueryEra,
	)
}

// UnknownRejection is the explicit catch-all arm that keeps normalization
// total: any failure shape no era normalizer recognizes lands here with its
// raw CBOR preserved for diagnosis
type UnknownRejection struct {
	Cbor string `json:"cbor"`
}

func (UnknownRejection) isRejection() {}

func (UnknownRejection) Tag() string { return "unknownRejection" }

func (e UnknownRejection) Error() string {
	return fmt.Sprintf("unrecognized rejection reason (CBOR hex: %s)", e.Cbor)
}
