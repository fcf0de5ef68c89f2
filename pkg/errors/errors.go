// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package errors implements the driver's hierarchical, network-transportable
// error value: a dot-separated type string plus an opaque data payload.
//
// Unlike the standard library's wrapped errors, a driver Error carries its
// type across the wire to the cluster (see Error.Message/Parse) and supports
// prefix matching so a caller can test "is this any kind of sy.query error"
// without knowing the exact leaf type.
package errors

import "strings"

// NilType is the sentinel type carried by the zero-value / "no error" Error.
const NilType = "nil"

// Error is a hierarchical error value. Matching compares Type only; Data
// is informational and excluded from matching.
type Error struct {
	Type string
	Data string
}

// Nil is the canonical "no error" value.
var Nil = Error{Type: NilType}

// New constructs an Error of the given dot-separated type.
func New(errType, data string) Error {
	return Error{Type: errType, Data: data}
}

// Ok reports whether e carries the nil sentinel type.
func (e Error) Ok() bool {
	return e.Type == "" || e.Type == NilType
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Data == "" {
		return e.Type
	}
	return e.Type + ": " + e.Data
}

// Sub returns a child error type by appending ".ext" to e's type, keeping
// e's Data. Used to narrow a general error into a more specific one, e.g.
// errors.New("sy.query", "").Sub("not_found") -> type "sy.query.not_found".
func (e Error) Sub(ext string) Error {
	if e.Type == "" || e.Type == NilType {
		return New(ext, e.Data)
	}
	return New(e.Type+"."+ext, e.Data)
}

// Reparent rewrites e's type to "parent.leaf", where leaf is the last
// dot-separated component of e's current type. A no-op if e's type has no
// dot (there is no leaf component to preserve under the new parent).
func (e Error) Reparent(parent string) Error {
	idx := strings.LastIndexByte(e.Type, '.')
	if idx < 0 {
		return e
	}
	leaf := e.Type[idx+1:]
	return New(parent+"."+leaf, e.Data)
}

// Matches reports whether pattern is a dot-component prefix of e's type.
// The empty pattern matches everything by convention. A nil error (e.Ok())
// never matches a non-empty pattern. A pattern longer than e's type never
// matches (explicit length check, since strings.HasPrefix alone would let
// "a.bc" wrongly match pattern "a.b").
func (e Error) Matches(pattern string) bool {
	if pattern == "" {
		return true
	}
	if e.Ok() {
		return false
	}
	if len(pattern) > len(e.Type) {
		return false
	}
	if e.Type == pattern {
		return true
	}
	return strings.HasPrefix(e.Type, pattern) && e.Type[len(pattern)] == '.'
}

// Skip returns Nil if e matches any of the given patterns, else returns e
// unchanged. Used by read paths to silently swallow benign, expected errors.
func (e Error) Skip(patterns ...string) Error {
	for _, p := range patterns {
		if e.Matches(p) {
			return Nil
		}
	}
	return e
}

const wireSep = "---"

// Message encodes e in the wire form "type---data", the form exchanged with
// the cluster. Parse is its inverse.
func (e Error) Message() string {
	return e.Type + wireSep + e.Data
}

// Parse decodes the wire form produced by Message. If the separator is
// absent, the whole string is treated as the type with empty data.
func Parse(s string) Error {
	idx := strings.Index(s, wireSep)
	if idx < 0 {
		return New(s, "")
	}
	return New(s[:idx], s[idx+len(wireSep):])
}
