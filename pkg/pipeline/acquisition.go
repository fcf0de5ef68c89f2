// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/telem"
)

// Acquisition drives a single hardware Source into the cluster: start the
// source, read frames in a tight loop, run them through an optional
// transform chain, and publish them. A transient read error triggers
// breaker-backed retry without tearing the pipeline down; a restart or
// fatal error returns up to the caller, which decides whether to restart
// the task (errors.IsRestart) or surface it as a hard failure.
type Acquisition struct {
	Source    Source
	Writer    ClusterWriter
	Transform Transform
	Status    *status.Handler
	Breaker   *breaker.Breaker
}

// Transform mirrors pkg/transform.Transform so pipeline does not need to
// import it; *transform.Chain satisfies this structurally.
type Transform interface {
	Transform(frame *telem.Frame) error
}

// Run starts the source and loops until stop is closed or a non-transient
// error occurs. It always calls Source.Stop before returning.
func (a *Acquisition) Run(stop <-chan struct{}) error {
	if err := a.Source.Start(); err != nil {
		return err
	}
	defer a.Source.Stop()

	cfg := a.Source.WriterConfig()
	byKey := channelsByKey(cfg.Channels)

	// frame is allocated once with final capacity and cleared on every
	// iteration thereafter: the acquisition hot loop must not allocate.
	frame := telem.NewFrameForChannels(cfg.Channels, byKey, 1)

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		frame.Clear()
		result := a.Source.Read(a.Breaker, frame)

		if !result.Ok() {
			if errors.IsTransient(result.Err) {
				if a.Status != nil {
					a.Status.Warn(result.Err.Error())
				}
				if a.Breaker != nil && !a.Breaker.Wait() {
					return result.Err
				}
				continue
			}
			if a.Status != nil {
				a.Status.Error(result.Err)
			}
			return result.Err
		}
		if a.Breaker != nil {
			a.Breaker.Reset()
		}
		if result.Warning != "" && a.Status != nil {
			a.Status.Warn(result.Warning)
		} else if a.Status != nil {
			a.Status.Clear()
		}

		if a.Transform != nil {
			if err := a.Transform.Transform(frame); err != nil {
				if a.Status != nil {
					a.Status.Warn(err.Error())
				}
				continue
			}
		}

		if err := a.Writer.Write(frame); err != nil && a.Status != nil {
			a.Status.Warn(err.Error())
		}
	}
}

func channelsByKey(channels []telem.Channel) map[uint32]telem.Channel {
	byKey := make(map[uint32]telem.Channel, len(channels))
	for _, ch := range channels {
		byKey[ch.Key] = ch
	}
	return byKey
}
