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

package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, b *Broker) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestSubscribeIDs(t *testing.T) {
	t.Parallel()

	b := New(10)
	_, id1 := b.Subscribe(1)
	_, id2 := b.Subscribe(1)
	assert.Equal(t, 0, id1)
	assert.Equal(t, 1, id2)
	assert.Len(t, b.subscribers, 2)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	b := New(10)
	ch, id := b.Subscribe(1)
	b.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)
	b.Unsubscribe(id)
	assert.Empty(t, b.subscribers)
}

func TestBroadcastToAllSubscribers(t *testing.T) {
	t.Parallel()

	b := New(10)
	sub1, _ := b.Subscribe(5)
	sub2, _ := b.Subscribe(5)
	run(t, b)

	b.Publish(MethodModeChanged, map[string]any{"mode": "stats", "index": 1})

	for _, sub := range []<-chan Notification{sub1, sub2} {
		select {
		case n := <-sub:
			assert.Equal(t, MethodModeChanged, n.Method)
			var params map[string]any
			require.NoError(t, json.Unmarshal(n.Params, &params))
			assert.Equal(t, "stats", params["mode"])
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	t.Parallel()

	b := New(100)
	fast, _ := b.Subscribe(50)
	_, _ = b.Subscribe(1)
	run(t, b)

	for range 20 {
		b.Publish(MethodPacket, nil)
	}

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 20 {
		select {
		case <-fast:
			received++
		case <-timeout:
			t.Fatalf("fast subscriber got %d of 20", received)
		}
	}
}

func TestPublishUnmarshalableDropped(t *testing.T) {
	t.Parallel()

	b := New(1)
	b.Publish("bad", make(chan int))
	assert.Empty(t, b.source)
}

func TestPublishFullQueueDrops(t *testing.T) {
	t.Parallel()

	b := New(1)
	b.Publish("one", nil)
	b.Publish("two", nil)
	assert.Len(t, b.source, 1)
}

func TestRunClosesSubscribersOnShutdown(t *testing.T) {
	t.Parallel()

	b := New(1)
	ch, _ := b.Subscribe(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))
	_, ok := <-ch
	assert.False(t, ok)
}
