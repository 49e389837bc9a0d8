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

package mocks

import (
	"errors"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
)

// PublishedMessage is one call to MockMQTTClient.Publish.
type PublishedMessage struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// MockMQTTClient implements mqtt.Client in memory. It calls the options'
// OnConnect handler on a successful Connect, like paho does.
//
// FailConnects makes the first N Connect calls fail.
type MockMQTTClient struct {
	ConnectError    error
	SubscribeError  error
	PublishError    error
	Options         *mqtt.ClientOptions
	handlers        map[string]mqtt.MessageHandler
	Published       []PublishedMessage
	FailConnects    int
	ConnectCalls    int
	DisconnectCalls int
	connected       bool
	mu              syncutil.Mutex
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{handlers: make(map[string]mqtt.MessageHandler)}
}

// Factory returns a client factory that records the options and hands out
// this mock.
func (m *MockMQTTClient) Factory() func(*mqtt.ClientOptions) mqtt.Client {
	return func(opts *mqtt.ClientOptions) mqtt.Client {
		m.mu.Lock()
		m.Options = opts
		m.mu.Unlock()
		return m
	}
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	return m.IsConnected()
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	m.mu.Lock()
	m.ConnectCalls++
	if m.ConnectCalls <= m.FailConnects {
		m.mu.Unlock()
		return &MockToken{Err: errors.New("connection refused"), Complete: true}
	}
	if m.ConnectError != nil {
		err := m.ConnectError
		m.mu.Unlock()
		return &MockToken{Err: err, Complete: true}
	}
	m.connected = true
	opts := m.Options
	m.mu.Unlock()

	if opts != nil && opts.OnConnect != nil {
		opts.OnConnect(m)
	}
	return &MockToken{Complete: true}
}

func (m *MockMQTTClient) Disconnect(_ uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.DisconnectCalls++
}

// DropConnection simulates the broker going away.
func (m *MockMQTTClient) DropConnection(err error) {
	m.mu.Lock()
	m.connected = false
	opts := m.Options
	m.mu.Unlock()
	if opts != nil && opts.OnConnectionLost != nil {
		opts.OnConnectionLost(m, err)
	}
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	if m.PublishError != nil {
		return &MockToken{Err: m.PublishError, Complete: true}
	}
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = append([]byte(nil), p...)
	case string:
		data = []byte(p)
	}
	m.mu.Lock()
	m.Published = append(m.Published, PublishedMessage{
		Topic:    topic,
		Payload:  data,
		QoS:      qos,
		Retained: retained,
	})
	m.mu.Unlock()
	return &MockToken{Complete: true}
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	if m.SubscribeError != nil {
		return &MockToken{Err: m.SubscribeError, Complete: true}
	}
	m.mu.Lock()
	m.handlers[topic] = callback
	m.mu.Unlock()
	return &MockToken{Complete: true}
}

func (*MockMQTTClient) SubscribeMultiple(_ map[string]byte, _ mqtt.MessageHandler) mqtt.Token {
	return &MockToken{Complete: true}
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range topics {
		delete(m.handlers, t)
	}
	return &MockToken{Complete: true}
}

func (*MockMQTTClient) AddRoute(_ string, _ mqtt.MessageHandler) {}

func (*MockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Subscriptions returns the subscribed topic filters.
func (m *MockMQTTClient) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.handlers))
	for t := range m.handlers {
		out = append(out, t)
	}
	return out
}

// PublishedTo returns the messages published on topic, oldest first.
func (m *MockMQTTClient) PublishedTo(topic string) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedMessage
	for _, p := range m.Published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// Deliver sends a message to every subscription whose filter matches
// topic. It reports whether any handler ran.
func (m *MockMQTTClient) Deliver(topic string, payload []byte) bool {
	m.mu.Lock()
	var matched []mqtt.MessageHandler
	for filter, h := range m.handlers {
		if TopicMatches(filter, topic) {
			matched = append(matched, h)
		}
	}
	m.mu.Unlock()

	msg := &MockMessage{topic: topic, payload: payload}
	for _, h := range matched {
		h(m, msg)
	}
	return len(matched) > 0
}

// TopicMatches applies MQTT + and # wildcards.
func TopicMatches(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, f := range fs {
		if f == "#" {
			return true
		}
		if i >= len(ts) {
			return false
		}
		if f != "+" && f != ts[i] {
			return false
		}
	}
	return len(fs) == len(ts)
}

// MockMessage implements mqtt.Message.
type MockMessage struct {
	topic   string
	payload []byte
}

func (*MockMessage) Duplicate() bool { return false }
func (*MockMessage) Qos() byte { return 1 }
func (*MockMessage) Retained() bool { return false }
func (m *MockMessage) Topic() string { return m.topic }
func (*MockMessage) MessageID() uint16 { return 0 }
func (m *MockMessage) Payload() []byte { return m.payload }
func (*MockMessage) Ack() {}

// MockToken implements mqtt.Token.
type MockToken struct {
	Err      error
	Complete bool
}

func (*MockToken) Wait() bool {
	return true
}

func (t *MockToken) WaitTimeout(_ time.Duration) bool {
	return t.Complete
}

func (*MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *MockToken) Error() error {
	return t.Err
}
