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

// Package node maintains the node-to-client connection to a local
// Cardano node and exposes the protocol operations the bridge needs:
// transaction submission, ledger state queries, and a chain-sync
// follower that keeps the health tracker current.
package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	ouroboros "github.com/blinklabs-io/gouroboros"
	"github.com/blinklabs-io/gouroboros/ledger"
	"github.com/blinklabs-io/gouroboros/protocol/chainsync"
	ocommon "github.com/blinklabs-io/gouroboros/protocol/common"

	"github.com/blinklabs-io/txbridge/eras"
	"github.com/blinklabs-io/txbridge/health"
)

// ErrNodeUnavailable is returned by client operations while no healthy
// node connection exists. Callers get the error immediately instead of
// queueing behind a connection that may never come back.
var ErrNodeUnavailable = errors.New("node connection unavailable")

// Config describes how to reach the local node.
type Config struct {
	SocketPath   string
	Address      string
	NetworkMagic uint32
	// DialTimeout bounds the initial transport dial.
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// Client wraps a single node-to-client connection. All protocol calls
// are serialized through an admission queue so that concurrent callers
// are handled one at a time in arrival order, while still honoring
// context cancellation for callers that give up waiting.
type Client struct {
	config  Config
	logger  *slog.Logger
	tracker *health.Tracker

	// sem is the admission queue that makes protocol calls strictly
	// sequential.
	sem *admissionQueue

	connMutex sync.Mutex
	conn      *ouroboros.Connection
	connected bool

	errorChan chan error
	doneChan  chan struct{}
	closeOnce sync.Once

	summaryMutex sync.Mutex
	summary      *ChainSummary
	summaryTime  time.Time
}

// NewClient builds a client, but does not connect. Call Start to
// establish the connection and begin following the chain.
func NewClient(cfg Config, tracker *health.Tracker) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	return &Client{
		config:   cfg,
		logger:   logger,
		tracker:  tracker,
		sem:      newAdmissionQueue(),
		doneChan: make(chan struct{}),
	}
}

// Start dials the node and starts the chain-sync follower. It returns
// an error if the initial connection cannot be established; after
// that, connection failures are reported through the health tracker
// and surface to callers as ErrNodeUnavailable.
func (c *Client) Start() error {
	if err := c.connect(); err != nil {
		return err
	}
	go c.monitor()
	return nil
}

func (c *Client) connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	errorChan := make(chan error, 1)
	o, err := ouroboros.New(
		ouroboros.WithConnection(conn),
		ouroboros.WithLogger(c.logger),
		ouroboros.WithNetworkMagic(c.config.NetworkMagic),
		ouroboros.WithErrorChan(errorChan),
		ouroboros.WithNodeToNode(false),
		ouroboros.WithKeepAlive(true),
		ouroboros.WithChainSyncConfig(
			chainsync.NewConfig(
				chainsync.WithRollForwardFunc(c.chainSyncRollForward),
				chainsync.WithRollBackwardFunc(c.chainSyncRollBackward),
			),
		),
	)
	if err != nil {
		return fmt.Errorf("create connection: %w", err)
	}
	c.connMutex.Lock()
	c.conn = o
	c.connected = true
	c.errorChan = errorChan
	c.connMutex.Unlock()
	if c.tracker != nil {
		c.tracker.SetConnectionStatus(health.StatusConnected)
	}
	if err := c.startChainFollower(); err != nil {
		c.logger.Warn(
			"failed to start chain follower",
			"component", "node",
			"error", err,
		)
	}
	return nil
}

func (c *Client) dial() (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	if c.config.SocketPath != "" {
		return dialer.Dial("unix", c.config.SocketPath)
	}
	if c.config.Address != "" {
		return dialer.Dial("tcp", c.config.Address)
	}
	return nil, errors.New("no node socket path or address configured")
}

// monitor watches the async error channel and flips the connection
// status on failure. It retries the connection with a fixed backoff
// until Close is called.
func (c *Client) monitor() {
	for {
		c.connMutex.Lock()
		errorChan := c.errorChan
		c.connMutex.Unlock()
		select {
		case <-c.doneChan:
			return
		case err, ok := <-errorChan:
			if !ok {
				return
			}
			c.logger.Error(
				"node connection failure",
				"component", "node",
				"error", err,
			)
			c.markDisconnected()
		}
		for {
			select {
			case <-c.doneChan:
				return
			case <-time.After(5 * time.Second):
			}
			if err := c.connect(); err != nil {
				c.logger.Warn(
					"node reconnect failed",
					"component", "node",
					"error", err,
				)
				continue
			}
			break
		}
	}
}

func (c *Client) markDisconnected() {
	c.connMutex.Lock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMutex.Unlock()
	if c.tracker != nil {
		c.tracker.SetConnectionStatus(health.StatusDisconnected)
	}
}

// Close shuts down the connection and stops the monitor.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.doneChan)
	})
	c.connMutex.Lock()
	defer c.connMutex.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		c.connected = false
		return err
	}
	return nil
}

// acquire takes an admission slot, or fails fast when the node is
// unreachable or the caller's context ends first. On success the
// current connection handle is returned and release must be called.
func (c *Client) acquire(ctx context.Context) (*ouroboros.Connection, error) {
	c.connMutex.Lock()
	connected := c.connected
	c.connMutex.Unlock()
	if !connected {
		return nil, ErrNodeUnavailable
	}
	if err := c.sem.acquire(ctx); err != nil {
		return nil, err
	}
	c.connMutex.Lock()
	conn := c.conn
	connected = c.connected
	c.connMutex.Unlock()
	if !connected || conn == nil {
		c.sem.release()
		return nil, ErrNodeUnavailable
	}
	return conn, nil
}

func (c *Client) release() {
	c.sem.release()
}

// startChainFollower begins syncing from the current tip. Only new
// blocks are of interest, so sync starts at the tip rather than
// origin.
func (c *Client) startChainFollower() error {
	c.connMutex.Lock()
	conn := c.conn
	c.connMutex.Unlock()
	if conn == nil {
		return ErrNodeUnavailable
	}
	tip, err := conn.ChainSync().Client.GetCurrentTip()
	if err != nil {
		return fmt.Errorf("query current tip: %w", err)
	}
	return conn.ChainSync().Client.Sync([]ocommon.Point{tip.Point})
}

func (c *Client) chainSyncRollForward(
	ctx chainsync.CallbackContext,
	blockType uint,
	blockData any,
	tip chainsync.Tip,
) error {
	var blockSlot uint64
	var blockHash string
	var blockNumber uint64
	switch v := blockData.(type) {
	case ledger.Block:
		blockSlot = v.SlotNumber()
		blockHash = v.Hash().String()
		blockNumber = v.BlockNumber()
	case ledger.BlockHeader:
		blockSlot = v.SlotNumber()
		blockHash = v.Hash().String()
		blockNumber = v.BlockNumber()
	default:
		return fmt.Errorf("unexpected block data type: %T", blockData)
	}
	c.updateTip(health.Tip{
		Slot:   blockSlot,
		Hash:   blockHash,
		Height: blockNumber,
	})
	c.logger.Debug(
		"chain roll forward",
		"component", "node",
		"slot", blockSlot,
		"block", blockNumber,
		"tip_slot", tip.Point.Slot,
	)
	return nil
}

func (c *Client) chainSyncRollBackward(
	ctx chainsync.CallbackContext,
	point ocommon.Point,
	tip chainsync.Tip,
) error {
	c.logger.Debug(
		"chain roll backward",
		"component", "node",
		"slot", point.Slot,
		"tip_slot", tip.Point.Slot,
	)
	return nil
}

// updateTip pushes a new tip into the health tracker, annotated with
// the era and epoch position derived from the era history. Failures to
// enrich the tip are tolerated; the raw tip still lands.
func (c *Client) updateTip(tip health.Tip) {
	if c.tracker == nil {
		return
	}
	eraName := ""
	var epoch, slotInEpoch uint64
	if summary, err := c.ChainSummary(context.Background()); err == nil {
		eraName = eras.Name(summary.CurrentEra)
		if e, s, err := summary.EpochPosition(tip.Slot); err == nil {
			epoch, slotInEpoch = e, s
		}
		c.tracker.SetSyncRatio(health.NewSyncRatio(
			summary.SystemStart,
			time.Now(),
			summary.SlotTime(tip.Slot).Sub(summary.SystemStart),
		))
	}
	c.tracker.SetTip(tip, eraName, epoch, slotInEpoch)
}
