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

// Package broker fans in-process notifications out to any number of
// subscribers without letting a slow one hold up the rest.
package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

const (
	MethodModeChanged  = "mode.changed"
	MethodFrame        = "display.frame"
	MethodImage        = "art.image"
	MethodPacket       = "aprs.packet"
	MethodConnection   = "source.connection"
	MethodState        = "performance.state"
	MethodSetlist      = "performance.setlist"
	MethodConfigSaved  = "config.saved"
	MethodDisplayClear = "display.cleared"
)

// Notification is one event. Params is already JSON encoded.
type Notification struct {
	Time   time.Time       `json:"time"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Broker reads published notifications and copies each one into every
// subscriber channel. A full subscriber channel drops the notification for
// that subscriber only.
type Broker struct {
	source      chan Notification
	subscribers map[int]chan Notification
	mu          syncutil.RWMutex
	nextID      int
}

// New returns a broker whose publish queue holds up to queue notifications.
func New(queue int) *Broker {
	if queue < 1 {
		queue = 1
	}
	return &Broker{
		source:      make(chan Notification, queue),
		subscribers: make(map[int]chan Notification),
	}
}

// Publish queues a notification. params is marshalled to JSON; a value
// that cannot be marshalled is logged and dropped, as is anything published
// while the queue is full.
func (b *Broker) Publish(method string, params any) {
	n := Notification{Method: method, Time: time.Now()}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("broker: failed to marshal params")
			return
		}
		n.Params = data
	}

	select {
	case b.source <- n:
	default:
		log.Warn().Str("method", method).Msg("broker: queue full, dropping notification")
	}
}

// Run broadcasts until ctx ends, then closes every subscriber channel.
func (b *Broker) Run(ctx context.Context) error {
	defer b.closeAllSubscribers()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("broker: context cancelled, shutting down")
			return nil
		case n := <-b.source:
			b.broadcast(n)
		}
	}
}

func (b *Broker) broadcast(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- n:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("method", n.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe registers a subscriber with a channel buffer of bufferSize and
// returns the channel and an id for Unsubscribe.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++
	ch := make(chan Notification, bufferSize)
	b.subscribers[id] = ch

	log.Debug().Int("subscriber_id", id).Int("buffer_size", bufferSize).Msg("new subscriber registered")
	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids
// are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
