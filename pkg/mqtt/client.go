// Inkterm
// Copyright (c) 2026 The Inkterm Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Inkterm.
//
// Inkterm is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Inkterm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Inkterm.  If not, see <http://www.gnu.org/licenses/>.

// Package mqtt wraps the paho client with topic routing, reconnect handling
// and a retained online/offline status.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ClientFactory creates the underlying paho client. Tests swap it for a mock.
type ClientFactory func(*mqtt.ClientOptions) mqtt.Client

// DefaultClientFactory creates real paho clients.
var DefaultClientFactory ClientFactory = mqtt.NewClient

var ErrConnectTimeout = errors.New("mqtt connect timed out")

// Handler receives one message. It runs on a paho goroutine.
type Handler func(topic string, payload []byte)

// Will is a retained message the broker publishes when the client vanishes.
// Stop publishes it too.
type Will struct {
	Topic   string
	Payload []byte
}

type Options struct {
	Factory        ClientFactory
	Clock          clockwork.Clock
	Will           *Will
	OnConnect      func()
	Broker         string
	ClientIDPrefix string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

type route struct {
	handler Handler
	filter  string
	qos     byte
}

// Client is a long-lived MQTT session. Register routes with Handle before
// calling Start; they are resubscribed on every reconnect.
type Client struct {
	client    mqtt.Client
	opts      Options
	routes    []route
	wg        sync.WaitGroup
	connected atomic.Bool
	mu        syncutil.RWMutex
}

func NewClient(opts Options) *Client {
	if opts.Factory == nil {
		opts.Factory = DefaultClientFactory
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ClientIDPrefix == "" {
		opts.ClientIDPrefix = "inkterm-"
	}
	return &Client{opts: opts}
}

// Handle routes messages matching filter (MQTT wildcards allowed) to h.
func (c *Client) Handle(filter string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes = append(c.routes, route{filter: filter, qos: 1, handler: h})
}

// Connected reports whether the broker session is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

func (c *Client) Broker() string {
	return c.opts.Broker
}

// Start connects to the broker. If the first attempt fails the client
// keeps retrying in the background with exponential backoff until ctx
// ends, and Start returns nil; the error is only logged.
func (c *Client) Start(ctx context.Context) error {
	if c.opts.Broker == "" {
		return errors.New("mqtt broker address is empty")
	}

	paho := c.opts.Factory(c.clientOptions())
	c.mu.Lock()
	c.client = paho
	c.mu.Unlock()

	err := c.connect(paho)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Msgf("mqtt: initial connect to %s failed, retrying in background", c.opts.Broker)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.retry(ctx, paho)
	}()
	return nil
}

func (c *Client) clientOptions() *mqtt.ClientOptions {
	opts := NewClientOptions(c.opts.Broker, c.opts.ClientIDPrefix, c.opts.Username, c.opts.Password)
	if w := c.opts.Will; w != nil && w.Topic != "" {
		opts.SetBinaryWill(w.Topic, w.Payload, 1, true)
	}

	opts.OnConnect = func(client mqtt.Client) {
		c.connected.Store(true)
		log.Info().Msgf("mqtt: connected to %s", c.opts.Broker)
		c.subscribeAll(client)
		if c.opts.OnConnect != nil {
			c.opts.OnConnect()
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.connected.Store(false)
		log.Warn().Err(err).Msgf("mqtt: connection to %s lost", c.opts.Broker)
	}
	opts.OnReconnecting = func(mqtt.Client, *mqtt.ClientOptions) {
		log.Debug().Msgf("mqtt: reconnecting to %s", c.opts.Broker)
	}
	return opts
}

func (c *Client) connect(client mqtt.Client) error {
	token := client.Connect()
	if !token.WaitTimeout(c.opts.ConnectTimeout) {
		client.Disconnect(0)
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

func (c *Client) retry(ctx context.Context, client mqtt.Client) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = time.Minute

	for {
		wait := b.NextBackOff()
		select {
		case <-ctx.Done():
			return
		case <-c.opts.Clock.After(wait):
		}

		err := c.connect(client)
		if err == nil {
			return
		}
		log.Debug().Err(err).Dur("next", wait).Msgf("mqtt: reconnect to %s failed", c.opts.Broker)
	}
}

func (c *Client) subscribeAll(client mqtt.Client) {
	c.mu.RLock()
	routes := append([]route(nil), c.routes...)
	c.mu.RUnlock()

	for _, r := range routes {
		token := client.Subscribe(r.filter, r.qos, c.wrap(r))
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msgf("mqtt: failed to subscribe to %s", r.filter)
			continue
		}
		log.Info().Msgf("mqtt: subscribed to %s", r.filter)
	}
}

// wrap adapts a Handler to paho and keeps a panicking handler from taking
// the process down.
func (*Client) wrap(r route) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("topic", msg.Topic()).
					Bytes("stack", debug.Stack()).
					Msg("mqtt: handler panicked, message dropped")
			}
		}()
		r.handler(msg.Topic(), msg.Payload())
	}
}

// Publish sends payload at QoS 1. It fails fast when not connected.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()
	if client == nil || !client.IsConnected() {
		return errors.New("mqtt client not connected")
	}

	token := client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(c.opts.ConnectTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Stop publishes the will message, disconnects and waits for the retry
// goroutine, which exits once the Start context is done.
func (c *Client) Stop() {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client != nil && client.IsConnected() {
		if w := c.opts.Will; w != nil && w.Topic != "" {
			if err := c.Publish(w.Topic, w.Payload, true); err != nil {
				log.Warn().Err(err).Msg("mqtt: failed to publish offline status")
			}
		}
		log.Debug().Msgf("mqtt: disconnecting from %s", c.opts.Broker)
		client.Disconnect(250)
	}
	c.connected.Store(false)
	c.wg.Wait()
}
