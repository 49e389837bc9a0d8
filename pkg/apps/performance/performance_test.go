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

package performance

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	gosc "github.com/hypebeast/go-osc/osc"
	"github.com/inkterm/inkterm/pkg/cli"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/osc"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/discovery"
	"github.com/inkterm/inkterm/pkg/testing/helpers"
	"github.com/inkterm/inkterm/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

var start = time.Date(2024, 6, 1, 21, 45, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	app   *App
	rt    *cli.Runtime
	sink  *mocks.MockSink
	mqtt  *mocks.MockMQTTClient
	fs    afero.Fs
	clock *clockwork.FakeClock
}

func newFixture(t *testing.T, overrides map[string]any) *fixture {
	t.Helper()
	cfg, fs := helpers.NewTestConfig(t, config.PerformanceDefaults, overrides)
	clock := clockwork.NewFakeClockAt(start)
	client := mocks.NewMockMQTTClient()
	app := New(cfg, Options{Clock: clock, Factory: client.Factory()})
	sink := mocks.NewMockSink()
	rt := cli.NewRuntime(cfg, app, cli.RuntimeOptions{Fs: fs, Clock: clock, Sink: sink})
	return &fixture{app: app, rt: rt, sink: sink, mqtt: client, fs: fs, clock: clock}
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.app.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestTempoOverUDPRendersOnce(t *testing.T) {
	t.Parallel()
	port := freeUDPPort(t)
	f := newFixture(t, map[string]any{
		"display": map[string]any{"refresh_interval": 5},
		"sources": map[string]any{
			"ableton":       map[string]any{"address": "127.0.0.1", "port": port},
			"touchdesigner": map[string]any{"enabled": false},
		},
	})
	f.run(t)

	client := gosc.NewClient("127.0.0.1", port)
	require.Eventually(t, func() bool {
		_ = client.Send(gosc.NewMessage(AddrTempo, float32(128.0)))
		return f.app.State().Snapshot().Ableton.BPM == 128.0
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, f.rt.Loop.Tick(context.Background()))
	assert.Equal(t, 1, f.sink.FrameCount())
	text := f.app.Layout(ModeAbleton).Text()
	assert.Equal(t, 1, strings.Count(text, "128.0"), text)
}

func TestAbletonHandlers(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	require.NoError(t, f.app.Dispatch(AddrTempo, []any{float32(126.5)}))
	require.NoError(t, f.app.Dispatch(AddrScene, []any{"An Extremely Long Scene Name For Testing"}))
	require.NoError(t, f.app.Dispatch(AddrPlaying, []any{int32(1)}))
	require.NoError(t, f.app.Dispatch(AddrTime, []any{float32(125.7)}))

	assert.Equal(t, []string{
		"BPM: 126.5",
		"Scene: An Extremely Long Sce...",
		"Status: PLAYING",
		"Time: 2:05",
	}, f.app.Layout(ModeAbleton).Lines)
	assert.Equal(t, "Ableton Mode", f.app.Layout(ModeAbleton).Title)

	require.NoError(t, f.app.Dispatch(AddrPlaying, []any{false}))
	assert.Contains(t, f.app.Layout(ModeAbleton).Lines, "Status: STOPPED")
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	assert.Equal(t, []string{"BPM: 120.0", "Scene: No Scene", "Status: STOPPED", "Time: 0:00"},
		f.app.Layout(ModeAbleton).Lines)
	assert.Equal(t, []string{"FPS: 0.0", "Comp: No Composition"}, f.app.Layout(ModeTouchDesigner).Lines)
	assert.Equal(t, []string{"No notes"}, f.app.Layout(ModeNotes).Lines)
	assert.Equal(t, []string{"No set list"}, f.app.Layout(ModeSetlist).Lines)
	assert.Equal(t, []string{"MIDI monitoring", "not yet implemented"}, f.app.Layout(ModeMIDI).Lines)
	assert.False(t, f.app.Layout(ModeAbleton).Disconnected)
}

func TestBadArgumentsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	before := f.app.State().Snapshot()

	cases := []struct {
		addr string
		args []any
	}{
		{AddrTempo, nil},
		{AddrTempo, []any{"fast"}},
		{AddrTime, []any{[]byte{1, 2}}},
		{AddrFPS, []any{"sixty"}},
		{AddrPlaying, []any{"maybe"}},
		{"/live/track/1/volume", []any{}},
		{AddrParam[:len(AddrParam)-1] + "speed", nil},
		{AddrMode, []any{"nonsense"}},
		{AddrMode, []any{int32(42)}},
		{AddrMode, nil},
	}
	for _, tc := range cases {
		err := f.app.Dispatch(tc.addr, tc.args)
		require.ErrorIs(t, err, osc.ErrArgument, "%s %v", tc.addr, tc.args)
	}
	assert.Equal(t, before, f.app.State().Snapshot())
	assert.Equal(t, ModeAbleton, f.rt.Modes.Current())
}

func TestUnknownAddressIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	before := f.app.State().Snapshot()

	require.NoError(t, f.app.Dispatch("/live/unknown", []any{float32(1)}))
	require.NoError(t, f.app.Dispatch("/td/param/a/b", []any{float32(1)}))
	assert.Equal(t, before, f.app.State().Snapshot())
}

func TestMalformedDatagramsLeaveStateUnchanged(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	l, err := osc.Listen("test", "127.0.0.1:0", f.app.router)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	before := f.app.State().Snapshot()

	rapid.Check(t, func(t *rapid.T) {
		data := rapid.OneOf(
			rapid.SliceOf(rapid.Byte()),
			rapid.Map(rapid.StringMatching(`/live/tempo[a-z]{0,3}`), func(s string) []byte {
				return append([]byte(s), 0, 0, 0, 0)
			}),
		).Draw(t, "datagram")
		l.HandleDatagram(data, nil)
	})
	assert.Equal(t, before, f.app.State().Snapshot())
}

func TestLevelsSortedByTrack(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	for track, vol := range map[string]float32{"10": 0.1, "2": 0.2, "1": 1.5, "3": 0.3, "4": 0.4, "5": 0.5, "6": 0.6} {
		require.NoError(t, f.app.Dispatch("/live/track/"+track+"/volume", []any{vol}))
	}

	l := f.app.Layout(ModeLevels)
	assert.Equal(t, "Audio Levels", l.Title)
	labels := make([]string, 0, len(l.Meters))
	for _, m := range l.Meters {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"T1:", "T2:", "T3:", "T4:", "T5:", "T6:"}, labels)
	assert.InDelta(t, 1.5, l.Meters[0].Value, 1e-6)
}

func TestTouchDesignerParams(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	require.NoError(t, f.app.Dispatch(AddrFPS, []any{float32(59.94)}))
	require.NoError(t, f.app.Dispatch(AddrComposition, []any{"main"}))
	require.NoError(t, f.app.Dispatch("/td/param/feedback_amount_long", []any{float32(0.5)}))
	require.NoError(t, f.app.Dispatch("/td/param/layers", []any{int32(3)}))
	require.NoError(t, f.app.Dispatch("/td/param/preset", []any{"aurora borealis"}))
	require.NoError(t, f.app.Dispatch("/td/param/layers", []any{int32(4)}))
	require.NoError(t, f.app.Dispatch("/td/param/gain", []any{float64(1.25)}))
	require.NoError(t, f.app.Dispatch("/td/param/hidden", []any{float32(9)}))

	assert.Equal(t, []string{
		"FPS: 59.9",
		"Comp: main",
		"feedback_amount: 0.50",
		"layers: 4",
		"preset: aurora bor",
		"gain: 1.25",
	}, f.app.Layout(ModeTouchDesigner).Lines)
}

func TestNotesBounded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	for i := range 12 {
		require.NoError(t, f.app.Dispatch(AddrNote, []any{"note " + string(rune('a'+i))}))
		f.clock.Advance(time.Minute)
	}

	snap := f.app.State().Snapshot()
	require.Len(t, snap.Notes, NoteCapacity)
	assert.Equal(t, "note c", snap.Notes[0].Text)

	assert.Equal(t, []string{
		"21:52: note h",
		"21:53: note i",
		"21:54: note j",
		"21:55: note k",
		"21:56: note l",
	}, f.app.Layout(ModeNotes).Lines)

	require.NoError(t, f.app.Dispatch(AddrClearNotes, nil))
	assert.Equal(t, []string{"No notes"}, f.app.Layout(ModeNotes).Lines)
}

func TestModeOverOSC(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	require.NoError(t, f.app.Dispatch(AddrMode, []any{int32(3)}))
	assert.Equal(t, ModeNotes, f.rt.Modes.Current())
	require.NoError(t, f.app.Dispatch(AddrMode, []any{"setlist"}))
	assert.Equal(t, ModeSetlist, f.rt.Modes.Current())
	require.NoError(t, f.app.Dispatch(AddrMode, []any{float32(4)}))
	assert.Equal(t, ModeMIDI, f.rt.Modes.Current())
}

func TestNoteKicksWhenNotesShown(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]any{"display": map[string]any{"default_mode": 3}})
	require.Equal(t, ModeNotes, f.rt.Modes.Current())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.rt.Loop.Run(ctx) }()
	require.Eventually(t, func() bool { return f.sink.FrameCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.app.Dispatch(AddrNote, []any{"drop the bass"}))
	require.Eventually(t, func() bool { return f.sink.FrameCount() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestEveryModeFillsPanel(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "messages")
		for range n {
			addr := rapid.SampledFrom([]string{
				AddrTempo, AddrScene, AddrTime, "/live/track/1/volume", AddrFPS, AddrComposition, "/td/param/x", AddrNote,
			}).Draw(t, "addr")
			var arg any = rapid.Float64Range(-1000, 1000).Draw(t, "num")
			if rapid.Bool().Draw(t, "text") {
				arg = rapid.String().Draw(t, "str")
			}
			_ = f.app.Dispatch(addr, []any{arg})
		}
		for _, mode := range Modes {
			bmp := f.rt.RenderMode(mode)
			assert.Equal(t, config.DefaultPanelWidth, bmp.Bounds().Dx())
			assert.Equal(t, config.DefaultPanelHeight, bmp.Bounds().Dy())
		}
	})
}

func TestOSCSources(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	assert.Equal(t, []OSCSource{
		{Name: "Ableton", Addr: "0.0.0.0", Port: 9000},
		{Name: "TouchDesigner", Addr: "0.0.0.0", Port: 9001},
	}, f.app.OSCSources())
	assert.Equal(t, []discovery.Entry{
		{Name: "Ableton", Type: discovery.OSCServiceType, Port: 9000},
		{Name: "TouchDesigner", Type: discovery.OSCServiceType, Port: 9001},
	}, f.app.Services())

	shared := newFixture(t, map[string]any{
		"sources": map[string]any{"touchdesigner": map[string]any{"port": 9000}},
	})
	assert.Len(t, shared.app.OSCSources(), 1)

	tdOnly := newFixture(t, map[string]any{
		"sources": map[string]any{
			"ableton":       map[string]any{"enabled": false},
			"touchdesigner": map[string]any{"port": 9000},
		},
	})
	require.Len(t, tdOnly.app.OSCSources(), 1)
	assert.Equal(t, "TouchDesigner", tdOnly.app.OSCSources()[0].Name)
}

func TestStartFailsOnBusyPort(t *testing.T) {
	t.Parallel()
	busy, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()
	port := busy.LocalAddr().(*net.UDPAddr).Port

	f := newFixture(t, map[string]any{
		"sources": map[string]any{
			"ableton":       map[string]any{"address": "127.0.0.1", "port": port},
			"touchdesigner": map[string]any{"enabled": false},
		},
	})
	require.Error(t, f.app.Start(context.Background()))
}

func TestMQTTBridge(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]any{
		"sources": map[string]any{
			"ableton":       map[string]any{"enabled": false},
			"touchdesigner": map[string]any{"enabled": false},
			"mqtt":          map[string]any{"enabled": true},
		},
	})
	f.run(t)
	require.Eventually(t, f.app.Client().Connected, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"performance/#"}, f.mqtt.Subscriptions())

	f.mqtt.Deliver("performance/live/tempo", []byte("128"))
	f.mqtt.Deliver("performance/live/scene", []byte(`["Verse"]`))
	f.mqtt.Deliver("performance/td/param/speed", []byte("0.25"))
	f.mqtt.Deliver("performance/live/tempo", []byte(`{"bpm": 90}`))
	f.mqtt.Deliver("performance/live/tempo", []byte("not json"))
	f.mqtt.Deliver("performance", []byte("1"))

	snap := f.app.State().Snapshot()
	assert.InDelta(t, 128.0, snap.Ableton.BPM, 1e-9)
	assert.Equal(t, "Verse", snap.Ableton.Scene)
	assert.Equal(t, []Param{{Name: "speed", Value: 0.25}}, snap.TouchDesigner.Params)
	assert.False(t, f.app.Layout(ModeAbleton).Disconnected)

	f.mqtt.DropConnection(assert.AnError)
	assert.True(t, f.app.Layout(ModeAbleton).Disconnected)
}

func TestTopicAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		topic string
		want  string
		ok    bool
	}{
		{"performance/live/tempo", "/live/tempo", true},
		{"stage/td/param/x", "/td/param/x", true},
		{"/performance/companion/note", "/companion/note", true},
		{"performance", "", false},
		{"performance/", "", false},
	}
	for _, tt := range tests {
		got, ok := TopicAddress(tt.topic)
		assert.Equal(t, tt.ok, ok, tt.topic)
		assert.Equal(t, tt.want, got, tt.topic)
	}
}

func TestPayloadArgs(t *testing.T) {
	t.Parallel()

	args, err := PayloadArgs([]byte(" 1.5 "))
	require.NoError(t, err)
	assert.Equal(t, []any{1.5}, args)

	args, err = PayloadArgs([]byte(`["a", 2, true]`))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", 2.0, true}, args)

	args, err = PayloadArgs(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = PayloadArgs([]byte(`{"x":1}`))
	require.ErrorIs(t, err, ErrBridgePayload)
	_, err = PayloadArgs([]byte(`[1,`))
	require.ErrorIs(t, err, ErrBridgePayload)
}

func TestParseSetlist(t *testing.T) {
	t.Parallel()

	sl, err := ParseSetlist([]byte(`{
		"show_name": "Friday",
		"set_list": ["Intro", {"title": "Midnight City", "bpm": 105, "notes": "capo 2"}]
	}`), false)
	require.NoError(t, err)
	assert.Equal(t, "Friday", sl.ShowName)
	assert.Equal(t, []Song{{Title: "Intro"}, {Title: "Midnight City", BPM: 105, Notes: "capo 2"}}, sl.Songs)

	sl, err = ParseSetlist([]byte("show_name: Friday\nset_list:\n  - Intro\n  - title: Outro\n    bpm: 90\n"), true)
	require.NoError(t, err)
	assert.Equal(t, []Song{{Title: "Intro"}, {Title: "Outro", BPM: 90}}, sl.Songs)

	_, err = ParseSetlist([]byte(`{"set_list": [42]}`), false)
	require.ErrorIs(t, err, ErrSetlist)
	_, err = ParseSetlist([]byte(`{`), false)
	require.ErrorIs(t, err, ErrSetlist)
}

func TestMatchSong(t *testing.T) {
	t.Parallel()
	songs := []Song{{Title: "Intro"}, {Title: "Midnight City"}, {Title: "Outro"}}

	idx, ok := MatchSong(songs, "midnight  CITY", 0.6)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = MatchSong(songs, "Midnight Cty", 0.6)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = MatchSong(songs, "Completely unrelated", 0.6)
	assert.False(t, ok)
	_, ok = MatchSong(songs, "", 0.6)
	assert.False(t, ok)
	_, ok = MatchSong(nil, "Intro", 0.6)
	assert.False(t, ok)
}

func TestMatchSongFoldsAccents(t *testing.T) {
	t.Parallel()
	songs := []Song{{Title: "Intro"}, {Title: "Café Noir"}}

	idx, ok := MatchSong(songs, "cafe noir", 0.9)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "cafe noir", normalizeTitle("  CAFÉ   Noir "))
	assert.Equal(t, "abc", normalizeTitle("ＡＢＣ"))
}

func writeSetlist(t *testing.T, f *fixture, data string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, f.app.SetlistPath(), []byte(data), 0o600))
}

func TestSetlistFollowsScene(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	assert.Equal(t, "/etc/inkterm/setlist.json", f.app.SetlistPath())

	writeSetlist(t, f, `{"show_name": "Friday Night", "set_list": ["Intro", {"title": "Midnight City", "bpm": 105}, "Outro"]}`)
	f.app.ReloadSetlist()

	l := f.app.Layout(ModeSetlist)
	assert.Equal(t, "Friday Night", l.Title)
	assert.Equal(t, []string{"1/3 Intro", "Next: Midnight City"}, l.Lines)

	require.NoError(t, f.app.Dispatch(AddrScene, []any{"Midnight City"}))
	assert.Equal(t, []string{"2/3 Midnight City", "  105 BPM", "Next: Outro"}, f.app.Layout(ModeSetlist).Lines)

	require.NoError(t, f.app.Dispatch(AddrNextSong, nil))
	require.NoError(t, f.app.Dispatch(AddrNextSong, nil))
	assert.Equal(t, []string{"3/3 Outro", "Last song"}, f.app.Layout(ModeSetlist).Lines)

	for range 5 {
		require.NoError(t, f.app.Dispatch(AddrPrevSong, nil))
	}
	assert.Equal(t, 0, f.app.State().Snapshot().CurrentSong)

	writeSetlist(t, f, `{"set_list": [`)
	f.app.ReloadSetlist()
	assert.Len(t, f.app.State().Setlist().Songs, 3)
}

func TestSetlistYAML(t *testing.T) {
	t.Parallel()
	f := newFixture(t, map[string]any{"performance": map[string]any{"setlist_path": "/srv/show/setlist.yaml"}})

	writeSetlist(t, f, "show_name: Late Set\nset_list:\n  - Warmup\n  - title: Finale\n    notes: strobe on\n")
	f.app.ReloadSetlist()
	assert.Equal(t, Setlist{ShowName: "Late Set", Songs: []Song{{Title: "Warmup"}, {Title: "Finale", Notes: "strobe on"}}},
		f.app.State().Setlist())
}

func routes(f *fixture) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", f.app.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestSetlistRoutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := routes(f)

	w := do(t, h, http.MethodPost, "/api/setlist", `{"show_name": "Tour", "set_list": ["One", {"title": "Two", "bpm": 140}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	saved, err := LoadSetlist(f.fs, f.app.SetlistPath())
	require.NoError(t, err)
	assert.Equal(t, "Tour", saved.ShowName)
	assert.Len(t, saved.Songs, 2)

	w = do(t, h, http.MethodGet, "/api/setlist", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp SetlistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Tour", resp.ShowName)
	assert.Equal(t, []Song{{Title: "One"}, {Title: "Two", BPM: 140}}, resp.Songs)
	assert.Equal(t, 0, resp.CurrentSong)

	w = do(t, h, http.MethodPost, "/api/setlist", `{"set_list": [{"bpm": 100}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, f.app.State().Setlist().Songs, 2)
}

func TestNoteRoutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := routes(f)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/send_note", `{"note": "Encore!"}`).Code)
	assert.Equal(t, []string{"21:45: Encore!"}, f.app.Layout(ModeNotes).Lines)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/send_note", `{"note": ""}`).Code)

	w := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"Encore!"`)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/clear_notes", "").Code)
	assert.Empty(t, f.app.State().Snapshot().Notes)
}

func TestWatchFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "setlist.json")

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchFile(ctx, path, func() { calls.Add(1) }) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"set_list": []}`), 0o600)
		_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o600)
		return calls.Load() > 0
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchFileMissingDir(t *testing.T) {
	t.Parallel()
	err := WatchFile(context.Background(), filepath.Join(t.TempDir(), "nope", "setlist.json"), func() {})
	require.Error(t, err)
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.app.Dispatch(AddrTempo, []any{float32(99)}))
	assert.True(t, render.Equal(f.rt.RenderMode(ModeAbleton), f.rt.RenderMode(ModeAbleton)))
}
