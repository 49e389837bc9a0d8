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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/display"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/inkterm/inkterm/pkg/testing/helpers"
	"github.com/inkterm/inkterm/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	server *Server
	cfg    *config.Instance
	modes  *modes.Manager
	loop   *display.Loop
	broker *broker.Broker
	fs     afero.Fs
}

func newFixture(t *testing.T, routes func(chi.Router)) *fixture {
	t.Helper()

	cfg, fs := helpers.NewTestConfig(t, config.APRSDefaults, nil)
	require.NoError(t, afero.WriteFile(fs, "/sys/class/thermal/thermal_zone0/temp", []byte("48312\n"), 0o644))

	mgr := modes.NewManager([]modes.Mode{"packets", "stats", "weather"}, 0)
	loop := display.NewLoop(mocks.NewMockSink(), func() *render.Bitmap {
		return render.Rasterize(&render.Layout{Title: "Test"}, 250, 122, 0)
	}, display.LoopOptions{})
	b := broker.New(16)

	srv := NewServer(Options{
		App:     "aprsdisplay",
		Version: "test",
		Config:  cfg,
		Modes:   mgr,
		Loop:    loop,
		Broker:  b,
		Fs:      fs,
		Routes:  routes,
	})
	return &fixture{server: srv, cfg: cfg, modes: mgr, loop: loop, broker: b, fs: fs}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.168.1.20:40000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func TestGetConfig(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)

	var vals config.Values
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vals))
	assert.Equal(t, "N0CALL", vals.Station.Callsign)
	assert.Equal(t, "no-cache, no-store, no-transform, must-revalidate, private, max-age=0",
		w.Header().Get("Cache-Control"))
}

func TestPostConfigSaves(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/config", `{"station": {"callsign": "KB1XYZ", "ssid": 7}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Restart")

	assert.Equal(t, "KB1XYZ-7", f.cfg.APRSLogin())
	data, err := afero.ReadFile(f.fs, helpers.TestConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "KB1XYZ")
	assert.Equal(t, 0, f.cfg.Values().Display.Rotation)
}

func TestPostConfigRejectsInvalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	for _, body := range []string{`{"display": {"rotation": 45}}`, `{not json`} {
		w := f.do(t, http.MethodPost, "/api/config", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
	assert.Equal(t, 0, f.cfg.Values().Display.Rotation)
}

func TestStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.loop.Tick(context.Background()))

	w := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "aprsdisplay", resp.App)
	assert.Equal(t, "packets", resp.Mode)
	assert.Equal(t, "mock", resp.Display)
	assert.Equal(t, 1, resp.DisplayPushes)
	assert.True(t, resp.LastFrameReady)
	require.NotNil(t, resp.Temperature)
	assert.InDelta(t, 48.3, *resp.Temperature, 0.001)
	assert.Equal(t, "0h 0m", resp.ServiceUptime)
}

func TestChangeMode(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	tests := []struct {
		body   string
		want   modes.Mode
		status int
	}{
		{body: `{"mode": 1}`, want: "stats", status: http.StatusOK},
		{body: `{"mode": "weather"}`, want: "weather", status: http.StatusOK},
		{body: `{"mode": "0"}`, want: "packets", status: http.StatusOK},
		{body: `{"mode": 9}`, want: "packets", status: http.StatusBadRequest},
		{body: `{"mode": "midi"}`, want: "packets", status: http.StatusBadRequest},
		{body: `{}`, want: "packets", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := f.do(t, http.MethodPost, "/api/change_mode", tt.body)
		assert.Equal(t, tt.status, w.Code, tt.body)
		assert.Equal(t, tt.want, f.modes.Current(), tt.body)
	}

	w := f.do(t, http.MethodGet, "/api/mode", "")
	var resp ModeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ModeResponse{Mode: "packets", Index: 0, Modes: []string{"packets", "stats", "weather"}}, resp)
}

func TestPreview(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/preview.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, f.loop.Tick(context.Background()))
	w = f.do(t, http.MethodGet, "/api/preview.png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 250, img.Bounds().Dx())
	assert.Equal(t, 122, img.Bounds().Dy())
}

func TestAppRoutesMounted(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(r chi.Router) {
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]int{"total_packets": 3})
		})
	})

	w := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_packets": 3}`, w.Body.String())
}

func TestRateLimited(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	codes := map[int]int{}
	for range 40 {
		codes[f.do(t, http.MethodGet, "/api/mode", "").Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestWebSocketNotifications(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	brokerDone := make(chan struct{})
	go func() {
		defer close(brokerDone)
		_ = f.broker.Run(ctx)
	}()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	serveDone := make(chan error, 1)
	go func() { serveDone <- f.server.Serve(ctx, ln) }()

	client := helpers.DialWebSocket(t, "http://"+ln.Addr().String(), "/api/ws")

	hello := client.ReadJSON(2 * time.Second)
	assert.Equal(t, broker.MethodModeChanged, hello["method"])

	client.Send("ping")
	assert.Equal(t, "pong", string(client.Read(2*time.Second)))

	f.broker.Publish(broker.MethodPacket, map[string]string{"from": "W1AW"})
	msg := client.ReadUntil(broker.MethodPacket, 2*time.Second)
	assert.Equal(t, map[string]any{"from": "W1AW"}, msg["params"])

	_ = client.Conn.Close()
	cancel()
	require.NoError(t, <-serveDone)
	<-brokerDone
}

func TestFormatUptime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0h 0m", FormatUptime(-time.Second))
	assert.Equal(t, "2h 5m", FormatUptime(2*time.Hour+5*time.Minute+59*time.Second))
	assert.Equal(t, "26h 0m", FormatUptime(26*time.Hour))
}

func TestDecodeJSONValidates(t *testing.T) {
	t.Parallel()

	type note struct {
		Text string `json:"text" validate:"required,max=5"`
	}

	for body, ok := range map[string]bool{
		`{"text": "hi"}`:      true,
		`{"text": ""}`:        false,
		`{"text": "toolong"}`: false,
		`nope`:                false,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var n note
		err := DecodeJSON(req, &n)
		if ok {
			assert.NoError(t, err, body)
		} else {
			assert.ErrorIs(t, err, ErrBadRequest, body)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	type row struct {
		From string `csv:"from"`
		Type string `csv:"type"`
	}

	w := httptest.NewRecorder()
	WriteCSV(w, "packets.csv", []row{{From: "W1AW", Type: "status"}})
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "packets.csv")
	assert.Equal(t, "from,type\nW1AW,status\n", w.Body.String())
}
