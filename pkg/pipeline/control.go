// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"sync"
	"time"

	"github.com/fieldbridge/driver/pkg/breaker"
	"github.com/fieldbridge/driver/pkg/errors"
	"github.com/fieldbridge/driver/pkg/status"
	"github.com/fieldbridge/driver/pkg/telem"
)

// Control drives a single hardware Sink from the cluster: a command thread
// applies commanded frames as they arrive, and a state thread periodically
// echoes the sink's actual state back up, so an operator sees the true
// device state rather than just the last setpoint sent. Both threads share
// one status handler and run until stop is closed; Run blocks until both
// have exited, via a two-party latch.
type Control struct {
	Sink        Sink
	Streamer    ClusterStreamer
	StateWrite  ClusterWriter
	StatePeriod time.Duration
	Status      *status.Handler
	Breaker     *breaker.Breaker
	Channels    []telem.Channel
}

// Run starts the command and state threads and blocks until both exit,
// either because stop was closed or because the sink reported a
// non-transient error.
func (c *Control) Run(stop <-chan struct{}) error {
	var latch sync.WaitGroup
	latch.Add(2)

	errs := make(chan error, 2)

	go func() {
		defer latch.Done()
		errs <- c.runCommandThread(stop)
	}()
	go func() {
		defer latch.Done()
		errs <- c.runStateThread(stop)
	}()

	latch.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Control) runCommandThread(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return nil
		case frame, ok := <-c.Streamer.Frames():
			if !ok {
				return nil
			}
			if err := c.Sink.Write(frame); err != nil {
				if c.Status != nil {
					c.Status.Warn(err.Error())
				}
			}
		}
	}
}

func (c *Control) runStateThread(stop <-chan struct{}) error {
	period := c.StatePeriod
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	byKey := channelsByKey(c.Channels)

	// frame is allocated once with final capacity and cleared on every
	// iteration thereafter: the state-read loop must not allocate per tick.
	frame := telem.NewFrameForChannels(c.Channels, byKey, 1)

	for {
		select {
		case <-stop:
			return nil
		case <-ticker.C:
			frame.Clear()
			result := c.Sink.Read(c.Breaker, frame)
			if !result.Ok() {
				if errors.IsTransient(result.Err) {
					if c.Status != nil {
						c.Status.Warn(result.Err.Error())
					}
					if c.Breaker != nil && !c.Breaker.Wait() {
						return result.Err
					}
					continue
				}
				if c.Status != nil {
					c.Status.Error(result.Err)
				}
				return result.Err
			}
			if c.Breaker != nil {
				c.Breaker.Reset()
			}
			if c.StateWrite != nil {
				if err := c.StateWrite.Write(frame); err != nil && c.Status != nil {
					c.Status.Warn(err.Error())
				}
			}
		}
	}
}
