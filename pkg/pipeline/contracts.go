// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline wires a hardware Source or Sink to the cluster through a
// transform chain, retrying on transient failures via a breaker and
// reporting health through a status handler.
package pipeline

import (
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/fieldbridge/driver/pkg/telem"
)

// ReadResult carries the outcome of a single Source or Sink read: Err is set
// on a hard failure the caller should retry or abort on, Warning is set on a
// soft, recoverable condition (e.g. a dropped sample) that should still be
// surfaced to the cluster but does not stop the pipeline.
type ReadResult struct {
	Err     errors.Error
	Warning string
}

func (r ReadResult) Ok() bool {
	return r.Err.Ok()
}

// WriterConfig describes the channel set and data layout a Source's frames
// will populate, so the cluster writer can open a matching stream.
type WriterConfig struct {
	Channels []telem.Channel
	// Index, if non-zero, names the channel that carries each frame's
	// sample timestamps.
	Index uint32
}

// Source is a hardware-facing data producer: NI DAQmx, LabJack, OPC UA and
// EtherCAT acquisition tasks all implement this contract.
type Source interface {
	Start() error
	Stop() error
	// Read blocks until the source has a frame, a breaker-observed
	// cancellation occurs, or a transient error warrants a retry per b.
	Read(b *breaker.Breaker, frame *telem.Frame) ReadResult
	Channels() []telem.Channel
	WriterConfig() WriterConfig
}

// Sink is a hardware-facing command consumer: writing setpoints out and
// echoing the resulting device state back.
type Sink interface {
	Write(frame *telem.Frame) error
	SetAuthority(keys []uint32, authorities []uint8) error
	// Read echoes the sink's current command state back into frame, for
	// the control pipeline's state-echo thread.
	Read(b *breaker.Breaker, frame *telem.Frame) ReadResult
}

// ClusterWriter streams acquired frames up to the cluster.
type ClusterWriter interface {
	Write(frame *telem.Frame) error
	Close() error
}

// ClusterStreamer delivers commanded frames down from the cluster.
type ClusterStreamer interface {
	// Frames yields each commanded frame as it arrives. The channel is
	// closed when the streamer is closed; internal/cluster.Streamer does
	// not close it when the connection is lost.
	Frames() <-chan *telem.Frame
	Close() error
}
