// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtpolicy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasTiming(t *testing.T) {
	assert.False(t, Config{}.HasTiming())
	assert.False(t, Config{Period: time.Millisecond}.HasTiming())
	assert.True(t, Config{Period: time.Millisecond, Computation: 500 * time.Microsecond}.HasTiming())
}

func TestApplyConfigDisabledIsNoOp(t *testing.T) {
	assert.NoError(t, ApplyConfig(Config{Enabled: false}))
}

func TestGetCapabilitiesCached(t *testing.T) {
	a := GetCapabilities()
	b := GetCapabilities()
	assert.Equal(t, a, b)
}
