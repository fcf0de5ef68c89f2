// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesPrefix(t *testing.T) {
	err := New("sy.validation.field", "")

	assert.True(t, err.Matches("sy"))
	assert.True(t, err.Matches("sy.validation"))
	assert.False(t, err.Matches("sy.query"))
	assert.False(t, err.Matches("sy.validation.field.extra"))
	assert.True(t, err.Matches(""))
	assert.False(t, Nil.Matches("anything-non-empty"))
}

func TestMatchesLengthCheck(t *testing.T) {
	short := New("a.b", "")
	assert.False(t, short.Matches("a.b.c"))
}

func TestSkip(t *testing.T) {
	err := New("sy.validation.field", "oob write clamped")

	assert.True(t, err.Skip("sy.validation").Ok())
	assert.Equal(t, "sy.validation.field", err.Skip("sy.query").Type)
}

func TestSub(t *testing.T) {
	base := New("sy.query", "")
	assert.Equal(t, "sy.query.not_found", base.Sub("not_found").Type)

	assert.Equal(t, "leaf", Nil.Sub("leaf").Type)
}

func TestReparent(t *testing.T) {
	err := New("old.leaf", "payload")
	reparented := err.Reparent("new")
	assert.Equal(t, "new.leaf", reparented.Type)
	assert.Equal(t, "payload", reparented.Data)

	noDot := New("leaf", "payload")
	assert.Equal(t, noDot, noDot.Reparent("new"))
}

func TestWireRoundTrip(t *testing.T) {
	cases := []Error{
		New("sy.validation.field", "bad channel key"),
		New("driver.unreachable", ""),
		Nil,
	}

	for _, c := range cases {
		parsed := Parse(c.Message())
		assert.Equal(t, c.Type, parsed.Type)
		assert.Equal(t, c.Data, parsed.Data)
	}
}

func TestParseNoSeparator(t *testing.T) {
	parsed := Parse("sy.validation.field")
	require.Equal(t, "sy.validation.field", parsed.Type)
	assert.Equal(t, "", parsed.Data)
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, KindTransient, ClassifyKind(Unreachable("")))
	assert.Equal(t, KindTransient, ClassifyKind(New(TypeDeviceDisconnected+".timeout", "")))
	assert.Equal(t, KindRestart, ClassifyKind(ResourceReserved("")))
	assert.Equal(t, KindFatal, ClassifyKind(New("sy.validation.field", "")))
	assert.Equal(t, KindFatal, ClassifyKind(Nil))
}
