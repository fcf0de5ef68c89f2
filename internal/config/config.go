// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads and validates the rack's JSON configuration file:
// cluster connection parameters, the retry policy applied to every
// reconnect loop, this rack's identity, and which integrations to start.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fieldbridge/driver/internal/cluster"
	"github.com/fieldbridge/driver/pkg/breaker"
)

// Connection holds how to reach the cluster's NATS backend, including
// optional TLS material.
type Connection struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	CACertFile     string `json:"ca_cert_file,omitempty"`
	ClientCertFile string `json:"client_cert_file,omitempty"`
	ClientKeyFile  string `json:"client_key_file,omitempty"`
}

// Retry describes the backoff policy applied to the cluster connection and
// every other breaker-governed retry loop in the process (task manager
// startup, rack heartbeat).
type Retry struct {
	Name         string  `json:"name"`
	BaseInterval string  `json:"base_interval"`
	MaxRetries   uint32  `json:"max_retries"`
	Scale        float64 `json:"scale"`
}

// Breaker converts Retry into a pkg/breaker.Config, treating a zero/absent
// BaseInterval as one second.
func (r Retry) Breaker() (breaker.Config, error) {
	interval := r.BaseInterval
	if interval == "" {
		interval = "1s"
	}
	d, err := time.ParseDuration(interval)
	if err != nil {
		return breaker.Config{}, fmt.Errorf("config: retry.base_interval: %w", err)
	}
	maxRetries := r.MaxRetries
	if maxRetries == 0 {
		maxRetries = breaker.Infinite
	}
	return breaker.Config{
		Name:         r.Name,
		BaseInterval: d,
		MaxRetries:   maxRetries,
		Scale:        r.Scale,
	}, nil
}

// Rack is the rack's full configuration, as loaded from its JSON config
// file (default path ./synnax-driver-config.json per the CLI contract).
type Rack struct {
	Connection   Connection `json:"connection"`
	Retry        Retry      `json:"retry"`
	RackKey      uint32     `json:"rack_key"`
	ClusterKey   uint32     `json:"cluster_key"`
	Integrations []string   `json:"integrations"`
}

// ClusterConfig translates the rack's connection settings into the
// internal/cluster package's NATS Config.
func (r Rack) ClusterConfig() cluster.Config {
	return cluster.Config{
		Address:  fmt.Sprintf("nats://%s:%d", r.Connection.Host, r.Connection.Port),
		Username: r.Connection.Username,
		Password: r.Connection.Password,
	}
}

// HasIntegration reports whether name was listed in the rack's enabled
// integrations.
func (r Rack) HasIntegration(name string) bool {
	for _, i := range r.Integrations {
		if i == name {
			return true
		}
	}
	return false
}

// Schema is the rack config's JSON schema, compiled on each Load call and
// used to validate every config file before it is decoded into a Rack.
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "connection": {
            "type": "object",
            "properties": {
                "host": {"type": "string"},
                "port": {"type": "integer"},
                "username": {"type": "string"},
                "password": {"type": "string"},
                "ca_cert_file": {"type": "string"},
                "client_cert_file": {"type": "string"},
                "client_key_file": {"type": "string"}
            },
            "required": ["host", "port"]
        },
        "retry": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "base_interval": {"type": "string"},
                "max_retries": {"type": "integer"},
                "scale": {"type": "number"}
            }
        },
        "rack_key": {"type": "integer"},
        "cluster_key": {"type": "integer"},
        "integrations": {
            "type": "array",
            "items": {"type": "string"}
        }
    },
    "required": ["connection", "rack_key", "cluster_key"]
}`

// Load reads, schema-validates, and decodes the rack config file at path.
func Load(path string) (Rack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rack{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	sch, err := jsonschema.CompileString("rack-config.json", Schema)
	if err != nil {
		return Rack{}, fmt.Errorf("config: compiling schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Rack{}, fmt.Errorf("config: %s is not valid JSON: %w", path, err)
	}
	if err := sch.Validate(v); err != nil {
		return Rack{}, fmt.Errorf("config: %s failed schema validation: %w", path, err)
	}

	var rack Rack
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rack); err != nil {
		return Rack{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return rack, nil
}
