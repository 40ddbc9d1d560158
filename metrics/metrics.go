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

// Package metrics exposes bridge request counters and a periodic
// runtime sampler. Sampled values land both in the Prometheus
// registry and in the health snapshot's metrics map.
package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blinklabs-io/txbridge/health"
)

var (
	SubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_submitted_transactions_total",
		Help: "Transactions accepted by the node",
	})
	RejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_rejected_transactions_total",
		Help: "Transactions rejected by the node",
	})
	UnparseableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_unparseable_transactions_total",
		Help: "Submissions that failed multi-era decoding",
	})
	EvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txbridge_evaluated_transactions_total",
		Help: "Evaluation requests that produced a verdict",
	})
	goroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "txbridge_goroutines",
		Help: "Current goroutine count",
	})
	heapAllocBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "txbridge_heap_alloc_bytes",
		Help: "Bytes of allocated heap objects",
	})
	gcRunsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "txbridge_gc_runs_total",
		Help: "Completed garbage collection cycles",
	})
)

// Sampler periodically snapshots process runtime metrics.
type Sampler struct {
	tracker  *health.Tracker
	interval time.Duration
	doneChan chan struct{}
}

func NewSampler(tracker *health.Tracker, interval time.Duration) *Sampler {
	if interval == 0 {
		interval = 15 * time.Second
	}
	return &Sampler{
		tracker:  tracker,
		interval: interval,
		doneChan: make(chan struct{}),
	}
}

// Start samples immediately and then on every tick until Stop.
func (s *Sampler) Start() {
	s.sample()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.doneChan:
				return
			case <-ticker.C:
				s.sample()
			}
		}
	}()
}

func (s *Sampler) Stop() {
	close(s.doneChan)
}

func (s *Sampler) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	goroutines := runtime.NumGoroutine()
	goroutineCount.Set(float64(goroutines))
	heapAllocBytes.Set(float64(memStats.HeapAlloc))
	gcRunsTotal.Set(float64(memStats.NumGC))
	if s.tracker != nil {
		s.tracker.MergeMetrics(map[string]int64{
			"goroutines": int64(goroutines),
			// nolint:gosec
			"heapAllocBytes": int64(memStats.HeapAlloc),
			"gcRuns":         int64(memStats.NumGC),
		})
	}
}
