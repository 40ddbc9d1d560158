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

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blinklabs-io/txbridge/evaluate"
	"github.com/blinklabs-io/txbridge/health"
	"github.com/blinklabs-io/txbridge/metrics"
	"github.com/blinklabs-io/txbridge/node"
	"github.com/blinklabs-io/txbridge/submit"
	"github.com/blinklabs-io/txbridge/txparse"
)

// ServerConfig holds the HTTP frontend settings.
type ServerConfig struct {
	ListenAddress  string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server is the HTTP frontend. It owns no domain logic; each handler
// decodes the request, delegates, and encodes the verdict.
type Server struct {
	config      ServerConfig
	logger      *slog.Logger
	coordinator *submit.Coordinator
	evaluator   *evaluate.Evaluator
	tracker     *health.Tracker
	httpServer  *http.Server
}

func NewServer(
	cfg ServerConfig,
	coordinator *submit.Coordinator,
	evaluator *evaluate.Evaluator,
	tracker *health.Tracker,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		config:      cfg,
		logger:      logger,
		coordinator: coordinator,
		evaluator:   evaluator,
		tracker:     tracker,
	}
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Post("/submit", s.handleSubmit)
	router.Post("/evaluate", s.handleEvaluate)
	router.Get("/health", s.handleHealth)
	router.Get("/metrics", promhttp.Handler().ServeHTTP)
	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info(
		"starting HTTP service",
		"component", "api",
		"address", s.config.ListenAddress,
	)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			"request body is not valid JSON",
			nil,
		), http.StatusBadRequest)
		return
	}
	rawTx, err := hex.DecodeString(req.Cbor)
	if err != nil || len(rawTx) == 0 {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			"transaction CBOR must be a non-empty hex string",
			nil,
		), http.StatusBadRequest)
		return
	}
	outcome, err := s.coordinator.Submit(r.Context(), rawTx)
	if err != nil {
		s.respondInfraError(w, err)
		return
	}
	switch {
	case outcome.Accepted != "":
		metrics.SubmittedTotal.Inc()
	case outcome.Rejected != nil:
		metrics.RejectedTotal.Inc()
	default:
		metrics.UnparseableTotal.Inc()
	}
	payload, status := submitResponse(outcome)
	responseJSON(w, payload, status)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			"request body is not valid JSON",
			nil,
		), http.StatusBadRequest)
		return
	}
	rawTx, err := hex.DecodeString(req.Cbor)
	if err != nil || len(rawTx) == 0 {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			"transaction CBOR must be a non-empty hex string",
			nil,
		), http.StatusBadRequest)
		return
	}
	tx, attempts, err := txparse.Decode(rawTx)
	if err != nil {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			"failed to deserialize the transaction in every known era",
			attempts,
		), http.StatusBadRequest)
		return
	}
	additionalUtxos, err := decodeUtxos(req.AdditionalUtxos)
	if err != nil {
		responseJSON(w, newErrorResponse(
			CodeDeserializationFailure,
			err.Error(),
			nil,
		), http.StatusBadRequest)
		return
	}
	outcome, err := s.evaluator.Evaluate(r.Context(), evaluate.Query{
		Tx:              tx,
		AdditionalUtxos: additionalUtxos,
	})
	if err != nil {
		s.respondInfraError(w, err)
		return
	}
	metrics.EvaluatedTotal.Inc()
	payload, status := evaluateResponse(outcome)
	responseJSON(w, payload, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := s.tracker.Read()
	status := http.StatusOK
	if snapshot.ConnectionStatus != health.StatusConnected {
		status = http.StatusServiceUnavailable
	}
	responseJSON(w, snapshot, status)
}

// respondInfraError maps infrastructure failures (as opposed to
// domain verdicts) to the wire contract.
func (s *Server) respondInfraError(w http.ResponseWriter, err error) {
	if errors.Is(err, node.ErrNodeUnavailable) {
		responseJSON(w, newErrorResponse(
			CodeNodeUnavailable,
			"the node is currently unreachable; retry later",
			nil,
		), http.StatusServiceUnavailable)
		return
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		responseJSON(w, newErrorResponse(
			CodeNodeUnavailable,
			"the request was cancelled before the node answered",
			nil,
		), http.StatusServiceUnavailable)
		return
	}
	s.logger.Error(
		"request failed",
		"component", "api",
		"error", err,
	)
	responseJSON(w, newErrorResponse(
		CodeNodeUnavailable,
		"internal error",
		nil,
	), http.StatusInternalServerError)
}

func responseJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error(
			"failed to encode response",
			"component", "api",
			"error", err,
		)
	}
}
