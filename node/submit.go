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

	"github.com/blinklabs-io/gouroboros/protocol/localtxsubmission"
)

// SubmitTx submits a serialized transaction tagged with its era. A nil
// return means the node accepted the transaction into its mempool. A
// rejection surfaces as *localtxsubmission.TransactionRejectedError,
// which carries the node's raw reject reason.
func (c *Client) SubmitTx(ctx context.Context, eraId uint8, txBytes []byte) error {
	conn, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer c.release()
	err = conn.LocalTxSubmission().Client.SubmitTx(uint16(eraId), txBytes)
	if err != nil {
		var rejectErr localtxsubmission.TransactionRejectedError
		if errors.As(err, &rejectErr) {
			return rejectErr
		}
		c.logger.Error(
			"transaction submission failed",
			"component", "node",
			"error", err,
		)
		c.markDisconnected()
		return ErrNodeUnavailable
	}
	return nil
}
