// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAdvice(t *testing.T) {
	ok := Status{Name: "x", Supported: true, Permitted: true}
	assert.Empty(t, ok.Advice())

	unsupported := Status{Name: "x", Supported: false, Permitted: false}
	assert.Contains(t, unsupported.Advice(), "not available")

	unpermitted := Status{Name: "x", Supported: true, Permitted: false}
	assert.Contains(t, unpermitted.Advice(), "not permitted")
}

func TestReportHealthy(t *testing.T) {
	r := Report{Statuses: []Status{{Name: "a", Supported: true, Permitted: true}}}
	assert.True(t, r.Healthy())

	r2 := Report{Statuses: []Status{{Name: "a", Supported: false, Permitted: false}}}
	assert.False(t, r2.Healthy())
	assert.Contains(t, r2.String(), "degraded")
}

func TestProbeReturnsAllSixCapabilities(t *testing.T) {
	r := Probe()
	assert.Len(t, r.Statuses, 6)
}
