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

// Package submit coordinates transaction submission: decode the raw
// bytes, hand the era-tagged transaction to the node exactly once,
// and normalize any rejection into the stable failure vocabulary.
package submit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blinklabs-io/gouroboros/protocol/localtxsubmission"

	"github.com/blinklabs-io/txbridge/rejection"
	"github.com/blinklabs-io/txbridge/txparse"
)

// Oracle is the node-side mempool admission check.
type Oracle interface {
	SubmitTx(ctx context.Context, eraId uint8, txBytes []byte) error
}

// Outcome is the submission verdict. Exactly one field set describes
// the result: the transaction id on acceptance, the normalized
// failures on rejection, or the per-era decode attempts when the
// bytes never parsed.
type Outcome struct {
	Accepted    string
	Rejected    []rejection.Rejection
	Unparseable []txparse.Attempt
}

// Coordinator drives one submission per call, with no retries. A
// rejected or malformed transaction is a terminal outcome.
type Coordinator struct {
	oracle Oracle
	logger *slog.Logger
}

func NewCoordinator(oracle Oracle, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		oracle: oracle,
		logger: logger,
	}
}

// Submit decodes raw transaction bytes and submits them to the node.
// A non-nil error means the submission could not be attempted at all
// (node unavailable, caller cancellation); domain verdicts land in
// the Outcome.
func (c *Coordinator) Submit(ctx context.Context, rawTx []byte) (Outcome, error) {
	tx, attempts, err := txparse.Decode(rawTx)
	if err != nil {
		return Outcome{Unparseable: attempts}, nil
	}
	txId := tx.Id()
	err = c.oracle.SubmitTx(ctx, tx.Era.Id, tx.Raw)
	if err != nil {
		var rejectErr localtxsubmission.TransactionRejectedError
		if errors.As(err, &rejectErr) {
			failures := rejection.Normalize(rejectErr.ReasonCbor)
			c.logger.Debug(
				"transaction rejected",
				"component", "submit",
				"tx_id", txId,
				"failures", len(failures),
			)
			return Outcome{Rejected: failures}, nil
		}
		return Outcome{}, err
	}
	c.logger.Info(
		"transaction accepted",
		"component", "submit",
		"tx_id", txId,
	)
	return Outcome{Accepted: txId}, nil
}
