// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package heartbeat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldbridge/driver/pkg/telem"
)

type recordingWriter struct {
	mu     sync.Mutex
	frames []*telem.Frame
}

func (w *recordingWriter) Write(frame *telem.Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.frames)
}

var heartbeatChannel = telem.Channel{Key: 1, Name: "rack_heartbeat", DataType: telem.Uint64}

func TestHeartbeatPacksRackKeyAndVersion(t *testing.T) {
	w := &recordingWriter{}
	h := New(7, heartbeatChannel, w, nil)
	h.tick()
	h.tick()

	require.Equal(t, 2, w.count())
	v0, err := w.frames[0].Get(heartbeatChannel.Key).Int64At(0)
	require.NoError(t, err)
	assert.Equal(t, int64(uint64(7)<<32|1), v0)

	v1, err := w.frames[1].Get(heartbeatChannel.Key).Int64At(0)
	require.NoError(t, err)
	assert.Equal(t, int64(uint64(7)<<32|2), v1)
}

func TestHeartbeatStartStop(t *testing.T) {
	w := &recordingWriter{}
	h := New(1, heartbeatChannel, w, nil)
	h.Period = 5 * time.Millisecond

	require.NoError(t, h.Start())
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, h.Stop())

	assert.GreaterOrEqual(t, w.count(), 2)
}

func TestHeartbeatStopWithoutStartIsNoop(t *testing.T) {
	h := New(1, heartbeatChannel, &recordingWriter{}, nil)
	assert.NoError(t, h.Stop())
}
