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

package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/display"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/inkterm/inkterm/pkg/service/discovery"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const finalClearTimeout = 10 * time.Second

// App is one daemon's source side: its modes, how each mode is drawn, and
// the clients that feed its state.
type App interface {
	Name() string
	Modes() []modes.Mode
	// Layout draws mode from a snapshot of the current state.
	Layout(mode modes.Mode) *render.Layout
	// Bind hands the app the runtime before anything starts.
	Bind(rt *Runtime)
	// Start runs the source clients until ctx ends.
	Start(ctx context.Context) error
	// Routes mounts the app's dashboard endpoints under /api.
	Routes(r chi.Router)
	// Services lists extra mDNS entries besides the dashboard.
	Services() []discovery.Entry
}

type RuntimeOptions struct {
	Fs    afero.Fs
	Clock clockwork.Clock
	// Sink overrides the display configured in the config file.
	Sink display.Sink
}

// Runtime is the shared half of a daemon: mode manager, render loop,
// notification broker and web dashboard.
type Runtime struct {
	App    App
	Config *config.Instance
	Fs     afero.Fs
	Clock  clockwork.Clock
	Modes  *modes.Manager
	Loop   *display.Loop
	Broker *broker.Broker
}

func NewRuntime(cfg *config.Instance, app App, opts RuntimeOptions) *Runtime {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	d := cfg.Display()
	if opts.Sink == nil {
		opts.Sink = display.Open(opts.Fs, app.Name(), d)
	}

	rt := &Runtime{
		App:    app,
		Config: cfg,
		Fs:     opts.Fs,
		Clock:  opts.Clock,
		Modes:  modes.NewManager(app.Modes(), d.DefaultMode),
		Broker: broker.New(64),
	}
	rt.Loop = display.NewLoop(opts.Sink, rt.Render, display.LoopOptions{
		Clock:            opts.Clock,
		Interval:         cfg.RefreshInterval(),
		FullRefreshEvery: d.FullRefreshEvery,
	})
	rt.Modes.OnChange(func(mode modes.Mode) {
		log.Info().Msgf("display mode: %s", mode)
		rt.Broker.Publish(broker.MethodModeChanged, map[string]any{
			"mode":  mode,
			"index": rt.Modes.Index(),
		})
		rt.Loop.Kick()
	})

	app.Bind(rt)
	return rt
}

// Render draws the active mode at panel size.
func (rt *Runtime) Render() *render.Bitmap {
	return rt.RenderMode(rt.Modes.Current())
}

func (rt *Runtime) RenderMode(mode modes.Mode) *render.Bitmap {
	d := rt.Config.Display()
	return render.Rasterize(rt.App.Layout(mode), d.Width, d.Height, d.Rotation)
}

// Kick asks the render loop for an immediate frame.
func (rt *Runtime) Kick() {
	rt.Loop.Kick()
}

func (rt *Runtime) Publish(method string, params any) {
	rt.Broker.Publish(method, params)
}

// Run starts everything and blocks until ctx ends, then clears the panel.
func (rt *Runtime) Run(ctx context.Context) error {
	vals := rt.Config.Values()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.Broker.Run(gctx)
	})
	g.Go(func() error {
		return rt.Loop.Run(gctx)
	})
	g.Go(func() error {
		rt.Modes.Rotate(gctx, rt.Clock, rt.Config.ModeDuration())
		return nil
	})
	g.Go(func() error {
		if err := rt.App.Start(gctx); err != nil {
			return fmt.Errorf("%s: %w", rt.App.Name(), err)
		}
		return nil
	})

	var mdns *discovery.Service
	if vals.Web.Enabled {
		server := api.NewServer(api.Options{
			App:     rt.App.Name(),
			Version: config.AppVersion,
			Config:  rt.Config,
			Modes:   rt.Modes,
			Loop:    rt.Loop,
			Broker:  rt.Broker,
			Fs:      rt.Fs,
			Clock:   rt.Clock,
			Routes:  rt.App.Routes,
		})
		g.Go(func() error {
			if err := server.Run(gctx); err != nil {
				// The panel keeps working without the dashboard.
				log.Error().Err(err).Msg("web dashboard stopped")
			}
			return nil
		})

		if vals.Web.Discovery {
			mdns = discovery.New(rt.App.Name(), vals.Web.InstanceName, rt.discoveryEntries(vals.Web.Listen)...)
			if err := mdns.Start(); err != nil {
				log.Warn().Err(err).Msg("mDNS discovery unavailable")
			}
		}
	}

	err := g.Wait()
	if mdns != nil {
		mdns.Stop()
	}
	rt.shutdownDisplay()
	return err
}

func (rt *Runtime) discoveryEntries(listen string) []discovery.Entry {
	entries := []discovery.Entry{{
		Type: discovery.HTTPServiceType,
		Port: listenPort(listen),
		Text: []string{"path=/api", "version=" + config.AppVersion},
	}}
	return append(entries, rt.App.Services()...)
}

func (rt *Runtime) shutdownDisplay() {
	ctx, cancel := context.WithTimeout(context.Background(), finalClearTimeout)
	defer cancel()

	sink := rt.Loop.Sink()
	if err := rt.Loop.Clear(ctx); err != nil {
		log.Error().Err(err).Str("sink", sink.Name()).Msg("failed to clear display on shutdown")
	}
	if err := sink.Close(); err != nil {
		log.Error().Err(err).Str("sink", sink.Name()).Msg("failed to close display")
	}
}

// Once renders the active mode a single time and pushes it to the sink.
func (rt *Runtime) Once(ctx context.Context) error {
	defer func() {
		if err := rt.Loop.Sink().Close(); err != nil {
			log.Debug().Err(err).Msg("closing display")
		}
	}()
	if err := rt.Loop.Tick(ctx); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	return nil
}

// Main runs rt until SIGINT or SIGTERM.
func Main(rt *Runtime) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rt.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msgf("%s stopped", rt.App.Name())
	return nil
}
