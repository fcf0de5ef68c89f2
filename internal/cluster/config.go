// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cluster connects a rack to the telemetry cluster over NATS: a
// Writer publishes acquired frames, a Streamer delivers commanded frames and
// task lifecycle events back down to the rack.
package cluster

import (
	"bytes"
	"encoding/json"
)

// Config holds the connection parameters for the cluster's NATS backend.
type Config struct {
	Address       string `json:"address"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	CredsFilePath string `json:"creds_file_path"`
}

const ConfigSchema = `{
    "type": "object",
    "description": "Connection parameters for the telemetry cluster's NATS backend.",
    "properties": {
        "address": {
            "description": "Address of the cluster's NATS server (e.g., 'nats://localhost:4222').",
            "type": "string"
        },
        "username": {
            "description": "Username for NATS authentication (optional).",
            "type": "string"
        },
        "password": {
            "description": "Password for NATS authentication (optional).",
            "type": "string"
        },
        "creds_file_path": {
            "description": "Path to a NATS credentials file (optional).",
            "type": "string"
        }
    },
    "required": ["address"]
}`

// ParseConfig decodes a Config from raw JSON, rejecting unknown fields.
func ParseConfig(raw json.RawMessage) (Config, error) {
	var cfg Config
	if raw == nil {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
