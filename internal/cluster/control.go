// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"encoding/json"

	"github.com/fieldbridge/driver/pkg/log"
	"github.com/fieldbridge/driver/pkg/status"
)

// Control channel subjects: unlike the per-task telemetry channels Writer
// and Streamer carry (line-protocol encoded), the task manager's
// lifecycle/command channels carry plain JSON payloads, matching spec's
// task_set/task_delete/task_cmd/task_state shapes.
const (
	SubjectTaskSet    = "task_set"
	SubjectTaskDelete = "task_delete"
	SubjectTaskCmd    = "task_cmd"
	SubjectTaskState  = "task_state"
)

// SubscribeJSON subscribes to subject, decoding each message as a T and
// invoking handler. Malformed messages are logged and dropped rather than
// stopping the stream.
func SubscribeJSON[T any](client *Client, subject string, handler func(T)) error {
	return client.Subscribe(subject, func(_ string, data []byte) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			log.Warnf("cluster: malformed message on '%s': %v", subject, err)
			return
		}
		handler(v)
	})
}

// StatusEmitter publishes status.Message values as JSON to the task_state
// subject. It satisfies pkg/status.Emitter.
type StatusEmitter struct {
	client  *Client
	subject string
}

// NewStatusEmitter builds a StatusEmitter publishing to subject (normally
// SubjectTaskState).
func NewStatusEmitter(client *Client, subject string) *StatusEmitter {
	return &StatusEmitter{client: client, subject: subject}
}

func (e *StatusEmitter) Emit(msg status.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.client.Publish(e.subject, data)
}
