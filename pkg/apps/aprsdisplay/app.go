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

// Package aprsdisplay shows live APRS-IS traffic on the panel: the latest
// packets, running statistics and the newest weather report.
package aprsdisplay

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/inkterm/inkterm/pkg/aprs"
	"github.com/inkterm/inkterm/pkg/cli"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/database"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/inkterm/inkterm/pkg/service/discovery"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const AppName = "aprsdisplay"

type Options struct {
	Clock clockwork.Clock
	// Dial replaces the TCP dialer, for tests.
	Dial aprs.DialFunc
}

type App struct {
	cfg     *config.Instance
	clock   clockwork.Clock
	state   *State
	client  *aprs.Client
	history atomic.Pointer[database.History]
	rt      *cli.Runtime
}

var _ cli.App = (*App)(nil)

func New(cfg *config.Instance, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	vals := cfg.Values()
	servers := cfg.APRSServers()
	login := cfg.APRSLogin()
	passcode := resolvePasscode(vals.Station, servers[0])

	switch {
	case aprs.ReadOnly(passcode):
		log.Warn().Str("login", login).Msg("no APRS-IS passcode set, connecting read-only")
	case !aprs.CheckPasscode(login, passcode):
		log.Warn().Str("login", login).Msg("APRS-IS passcode does not match callsign, server will treat login as unverified")
	}

	return &App{
		cfg:   cfg,
		clock: opts.Clock,
		state: NewState(opts.Clock.Now()),
		client: aprs.NewClient(aprs.ClientOptions{
			Dial:        opts.Dial,
			Clock:       opts.Clock,
			Login:       login,
			Passcode:    passcode,
			Filter:      vals.APRSIS.Filter,
			Version:     config.AppVersion,
			Servers:     servers,
			ReadTimeout: cfg.APRSReadTimeout(),
		}),
	}
}

// resolvePasscode prefers an aprs:// entry in auth.toml over the config
// file, so the passcode can live outside the shared config.
func resolvePasscode(station config.Station, server string) string {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	if creds := config.LookupAuth(config.GetAuthCfg(), "aprs://"+host); creds != nil && creds.Password != "" {
		return creds.Password
	}
	return strings.TrimSpace(station.Passcode)
}

func (*App) Name() string { return AppName }

func (*App) Modes() []modes.Mode { return Modes }

func (a *App) Bind(rt *cli.Runtime) { a.rt = rt }

func (*App) Services() []discovery.Entry { return nil }

func (a *App) State() *State { return a.state }

func (a *App) Client() *aprs.Client { return a.client }

func (a *App) Layout(mode modes.Mode) *render.Layout {
	snap := a.state.Snapshot()
	l := BuildLayout(&snap, mode, a.clock.Now())
	l.Disconnected = a.cfg.Display().ShowStatus && !a.client.Connected()
	return l
}

// Start streams packets until ctx ends. The optional packet history is
// open for the same span.
func (a *App) Start(ctx context.Context) error {
	if path := a.cfg.Values().APRSIS.ArchivePath; path != "" {
		history, err := database.OpenHistory(path, 0)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("packet history disabled")
		} else {
			a.history.Store(history)
			defer func() {
				a.history.Store(nil)
				if err := history.Close(); err != nil {
					log.Warn().Err(err).Msg("closing packet history")
				}
			}()
		}
	}

	log.Info().
		Strs("servers", a.cfg.APRSServers()).
		Str("filter", a.cfg.Values().APRSIS.Filter).
		Msg("connecting to APRS-IS")
	if err := a.client.Run(ctx, a.HandleLine); err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	return nil
}

// HandleLine decodes one line from the server. Lines that do not parse
// are logged and leave the state alone.
func (a *App) HandleLine(line string) {
	p, err := aprs.Parse(line)
	if errors.Is(err, aprs.ErrServerLine) {
		return
	}
	if err != nil {
		log.Debug().Err(err).Str("line", line).Msg("dropping unparseable packet")
		return
	}
	p.Received = a.clock.Now()
	a.state.Record(p)
	log.Info().Msgf("packet from %s: %s", p.From, p.Format)

	if history := a.history.Load(); history != nil {
		if err := history.Add(p); err != nil {
			log.Warn().Err(err).Msg("failed to archive packet")
		}
	}
	if a.rt != nil {
		a.rt.Publish(broker.MethodPacket, p)
		if a.rt.Modes.Current() == ModePackets {
			a.rt.Kick()
		}
	}
}

func (a *App) Routes(r chi.Router) {
	r.Get("/packets", a.handlePackets)
	r.Get("/stats", a.handleStats)
	r.Get("/history", a.handleHistory)
}
