// Copyright (c) 2026 The fieldbridge authors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldbridge/driver/pkg/log"
	"github.com/nats-io/nats.go"
)

// MessageHandler processes a message delivered on a subject.
type MessageHandler func(subject string, data []byte)

// Client wraps a NATS connection with subscription bookkeeping. A rack holds
// exactly one Client for its lifetime; Writer and Streamer are built on top
// of it.
type Client struct {
	conn          *nats.Conn
	subscriptions []*nats.Subscription
	mu            sync.Mutex
}

// Connect dials the cluster's NATS backend per cfg.
func Connect(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("cluster: address is required")
	}

	var opts []nats.Option

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}

	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			log.Warnf("cluster: disconnected: %v", err)
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		log.Infof("cluster: reconnected to %s", nc.ConnectedUrl())
	}))
	opts = append(opts, nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
		log.Errorf("cluster: error: %v", err)
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("cluster: connect failed: %w", err)
	}
	log.Infof("cluster: connected to %s", cfg.Address)

	return &Client{conn: nc, subscriptions: make([]*nats.Subscription, 0)}, nil
}

// Subscribe registers handler for every message on subject.
func (c *Client) Subscribe(subject string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("cluster: subscribe to '%s' failed: %w", subject, err)
	}
	c.subscriptions = append(c.subscriptions, sub)
	return nil
}

// Publish sends data to subject.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("cluster: publish to '%s' failed: %w", subject, err)
	}
	return nil
}

// Request sends a request and waits for a response, bounded by ctx.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	msg, err := c.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("cluster: request to '%s' failed: %w", subject, err)
	}
	return msg.Data, nil
}

// Flush blocks until all published messages reach the server.
func (c *Client) Flush() error {
	return c.conn.Flush()
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close unsubscribes everything and tears down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.Warnf("cluster: unsubscribe failed: %v", err)
		}
	}
	c.subscriptions = nil

	if c.conn != nil {
		c.conn.Close()
		log.Info("cluster: connection closed")
	}
}
