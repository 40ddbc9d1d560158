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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TXBRIDGE_NODE_SOCKET_PATH", "/run/cardano/node.socket")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.Server.ListenAddress)
	assert.Equal(t, 30, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 15, cfg.Metrics.SampleInterval)
	assert.Equal(t, "/run/cardano/node.socket", cfg.Node.SocketPath)
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: ":9000"
node:
  address: "localhost:30001"
  network_magic: 2
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.ListenAddress)
	assert.Equal(t, "localhost:30001", cfg.Node.Address)
	assert.Equal(t, uint32(2), cfg.Node.NetworkMagic)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// values absent from the file keep their defaults
	assert.Equal(t, 30, cfg.Server.RequestTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
node:
  socket_path: "/tmp/node.socket"
logging:
  level: info
`)
	t.Setenv("TXBRIDGE_LOGGING_LEVEL", "warn")
	t.Setenv("TXBRIDGE_SERVER_LISTEN_ADDRESS", ":7070")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ":7070", cfg.Server.ListenAddress)
	assert.Equal(t, "/tmp/node.socket", cfg.Node.SocketPath)
}

func TestLoadMissingNodeTarget(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node.socket_path or node.address")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
