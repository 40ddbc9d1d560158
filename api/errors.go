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

package api

// Error codes are part of the wire contract and are never renumbered.
const (
	CodeDeserializationFailure = 3000
	CodeTransactionRejected    = 3001
	CodeNodeUnavailable        = 3002
	CodeIncompatibleEra        = 3003
	CodeUnsupportedEra         = 3004
	CodeOverlappingUtxo        = 3005
	CodeNodeTipTooOld          = 3006
	CodeCannotBuildContext     = 3007
	CodeScriptFailures         = 3008
)

// ErrorResponse is the error envelope for every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func newErrorResponse(code int, message string, data any) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
