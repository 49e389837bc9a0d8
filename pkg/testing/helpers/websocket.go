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

package helpers

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// WSClient is a websocket connection to an httptest server.
type WSClient struct {
	Conn *websocket.Conn
	t    *testing.T
}

// DialWebSocket connects to path on an http:// base URL. The connection is
// closed when the test ends.
func DialWebSocket(t *testing.T, baseURL, path string) *WSClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &WSClient{Conn: conn, t: t}
}

func (c *WSClient) Send(msg string) {
	c.t.Helper()
	require.NoError(c.t, c.Conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// Read returns the next message or fails the test after timeout.
func (c *WSClient) Read(timeout time.Duration) []byte {
	c.t.Helper()
	require.NoError(c.t, c.Conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := c.Conn.ReadMessage()
	require.NoError(c.t, err)
	return data
}

// ReadJSON decodes the next message into a generic map.
func (c *WSClient) ReadJSON(timeout time.Duration) map[string]any {
	c.t.Helper()
	var out map[string]any
	require.NoError(c.t, json.Unmarshal(c.Read(timeout), &out))
	return out
}

// ReadUntil reads messages until one has the given method.
func (c *WSClient) ReadUntil(method string, timeout time.Duration) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg := c.ReadJSON(time.Until(deadline))
		if msg["method"] == method {
			return msg
		}
	}
	c.t.Fatalf("no %s message within %s", method, timeout)
	return nil
}
