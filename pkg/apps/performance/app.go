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

// Package performance is the live performance companion: it listens for
// OSC from Ableton and TouchDesigner, optionally bridges MQTT topics onto
// the same addresses, and shows tempo, levels, notes and the set list.
package performance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/inkterm/inkterm/pkg/cli"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/mqtt"
	"github.com/inkterm/inkterm/pkg/osc"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/discovery"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const AppName = "performance"

type Options struct {
	Clock clockwork.Clock
	// Factory replaces the paho client, for tests.
	Factory mqtt.ClientFactory
}

// OSCSource is one UDP port the companion listens on.
type OSCSource struct {
	Name string
	Addr string
	Port int
}

type App struct {
	cfg         *config.Instance
	clock       clockwork.Clock
	state       *State
	router      *osc.Router
	client      *mqtt.Client
	rt          *cli.Runtime
	setlistPath string
}

var _ cli.App = (*App)(nil)

func New(cfg *config.Instance, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	vals := cfg.Values()

	a := &App{
		cfg:         cfg,
		clock:       opts.Clock,
		state:       NewState(),
		setlistPath: resolvePath(cfg.Path(), vals.Performance.SetlistPath),
	}
	a.router = a.newRouter()

	if src := vals.Sources.MQTT; src.Enabled {
		a.client = mqtt.NewClient(mqtt.Options{
			Factory:        opts.Factory,
			Clock:          opts.Clock,
			Broker:         cfg.SourceMQTTBroker(),
			ClientIDPrefix: "performance-",
		})
		for _, topic := range src.Topics {
			a.client.Handle(topic, a.handleMQTT)
		}
	}
	return a
}

// resolvePath makes a relative set-list path relative to the config file.
func resolvePath(cfgPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(cfgPath), path)
}

func (*App) Name() string { return AppName }

func (*App) Modes() []modes.Mode { return Modes }

func (a *App) Bind(rt *cli.Runtime) { a.rt = rt }

func (a *App) State() *State { return a.state }

// Client is the MQTT bridge client, nil when the bridge is off.
func (a *App) Client() *mqtt.Client { return a.client }

func (a *App) SetlistPath() string { return a.setlistPath }

func (a *App) fs() afero.Fs {
	if a.rt != nil && a.rt.Fs != nil {
		return a.rt.Fs
	}
	return afero.NewOsFs()
}

// OSCSources lists the ports to listen on. TouchDesigner shares the
// Ableton socket when both use the same port.
func (a *App) OSCSources() []OSCSource {
	src := a.cfg.Values().Sources
	var out []OSCSource
	if src.Ableton.Enabled {
		out = append(out, OSCSource{Name: "Ableton", Addr: src.Ableton.Address, Port: src.Ableton.Port})
	}
	if src.TouchDesigner.Enabled && (!src.Ableton.Enabled || src.TouchDesigner.Port != src.Ableton.Port) {
		out = append(out, OSCSource{Name: "TouchDesigner", Addr: src.TouchDesigner.Address, Port: src.TouchDesigner.Port})
	}
	return out
}

func (a *App) Services() []discovery.Entry {
	sources := a.OSCSources()
	entries := make([]discovery.Entry, 0, len(sources))
	for _, s := range sources {
		entries = append(entries, discovery.Entry{
			Name: s.Name,
			Type: discovery.OSCServiceType,
			Port: s.Port,
		})
	}
	return entries
}

func (a *App) Layout(mode modes.Mode) *render.Layout {
	snap := a.state.Snapshot()
	l := BuildLayout(&snap, mode)
	l.Disconnected = a.cfg.Display().ShowStatus && a.client != nil && !a.client.Connected()
	return l
}

// Start loads the set list, binds the OSC ports and runs until ctx ends.
// A port that cannot be bound is fatal.
func (a *App) Start(ctx context.Context) error {
	a.ReloadSetlist()

	var listeners []*osc.Listener
	for _, s := range a.OSCSources() {
		addr := net.JoinHostPort(s.Addr, strconv.Itoa(s.Port))
		l, err := osc.Listen(s.Name, addr, a.router)
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		listeners = append(listeners, l)
	}
	if len(listeners) == 0 && a.client == nil {
		log.Warn().Msg("no OSC or MQTT source enabled, display will stay idle")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		g.Go(func() error {
			return l.Run(gctx)
		})
	}
	g.Go(func() error {
		a.watchSetlist(gctx)
		return nil
	})

	if a.client != nil {
		if err := a.client.Start(gctx); err != nil {
			log.Error().Err(err).Msg("mqtt bridge disabled")
		}
		defer a.client.Stop()
	}

	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // listener errors carry the address
	}
	return nil
}

// watchSetlist reloads the set list on change until ctx ends. Without a
// file on the OS filesystem it just waits.
func (a *App) watchSetlist(ctx context.Context) {
	if _, ok := a.fs().(*afero.OsFs); ok && a.setlistPath != "" {
		if err := WatchFile(ctx, a.setlistPath, a.ReloadSetlist); err != nil {
			log.Warn().Err(err).Msg("set list changes will not be picked up")
		}
	}
	<-ctx.Done()
}

// ReloadSetlist reads the set list file. A missing file means an empty
// list; a broken one is logged and the current list is kept.
func (a *App) ReloadSetlist() {
	if a.setlistPath == "" {
		return
	}
	sl, err := LoadSetlist(a.fs(), a.setlistPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Debug().Str("path", a.setlistPath).Msg("no set list file found")
		return
	case err != nil:
		log.Error().Err(err).Str("path", a.setlistPath).Msg("failed to load set list")
		return
	}
	a.applySetlist(sl)
	log.Info().Msgf("loaded set list with %d songs", len(sl.Songs))
}

func (a *App) applySetlist(sl *Setlist) {
	a.state.SetSetlist(*sl)
	a.state.MatchScene(a.cfg.Values().Performance.MatchThreshold)
	a.publishSetlist()
	a.changed(ModeSetlist)
}

func (a *App) Routes(r chi.Router) {
	r.Get("/state", a.handleState)
	r.Get("/setlist", a.handleGetSetlist)
	r.Post("/setlist", a.handlePostSetlist)
	r.Post("/send_note", a.handleSendNote)
	r.Post("/clear_notes", a.handleClearNotes)
}
