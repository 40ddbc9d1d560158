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

// Package config loads bridge settings from an optional YAML file,
// then lets environment variables override individual values.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// Environment variable names compose as the TXBRIDGE prefix, the section
// name, and the field tag: TXBRIDGE_NODE_SOCKET_PATH and so on.
type Config struct {
	Server struct {
		ListenAddress  string `yaml:"listen_address"  envconfig:"LISTEN_ADDRESS"`
		RequestTimeout int    `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	} `yaml:"server"`
	Node struct {
		SocketPath   string `yaml:"socket_path"   envconfig:"SOCKET_PATH"`
		Address      string `yaml:"address"       envconfig:"ADDRESS"`
		NetworkMagic uint32 `yaml:"network_magic" envconfig:"NETWORK_MAGIC"`
	} `yaml:"node"`
	Logging struct {
		Level string `yaml:"level" envconfig:"LEVEL"`
	} `yaml:"logging"`
	Metrics struct {
		SampleInterval int `yaml:"sample_interval" envconfig:"SAMPLE_INTERVAL"`
	} `yaml:"metrics"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.Server.ListenAddress = ":8090"
	cfg.Server.RequestTimeout = 30
	cfg.Logging.Level = "info"
	cfg.Metrics.SampleInterval = 15
	return cfg
}

// Load reads the config file at path (skipped when empty or missing)
// and applies environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process("txbridge", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if cfg.Node.SocketPath == "" && cfg.Node.Address == "" {
		return nil, fmt.Errorf("either node.socket_path or node.address must be set")
	}
	return &cfg, nil
}
