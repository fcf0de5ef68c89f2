// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "synnax-driver-config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
        "connection": {"host": "cluster.local", "port": 4222, "username": "rack"},
        "retry": {"name": "cluster-connect", "base_interval": "500ms", "max_retries": 10, "scale": 2},
        "rack_key": 1,
        "cluster_key": 7,
        "integrations": ["ni", "labjack"]
    }`)

	rack, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cluster.local", rack.Connection.Host)
	assert.Equal(t, uint32(1), rack.RackKey)
	assert.True(t, rack.HasIntegration("ni"))
	assert.False(t, rack.HasIntegration("opcua"))
	assert.Equal(t, "nats://cluster.local:4222", rack.ClusterConfig().Address)
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `{"connection": {"host": "cluster.local", "port": 4222}}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{
        "connection": {"host": "cluster.local", "port": 4222},
        "rack_key": 1,
        "cluster_key": 7,
        "bogus_field": true
    }`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestRetryBreakerDefaultsBaseInterval(t *testing.T) {
	r := Retry{Name: "x"}
	b, err := r.Breaker()
	require.NoError(t, err)
	assert.Equal(t, time.Second, b.BaseInterval)
	assert.Equal(t, "x", b.Name)
}
