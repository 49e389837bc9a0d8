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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/osc"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/rs/zerolog/log"
)

// OSC addresses the companion understands.
const (
	AddrTempo       = "/live/tempo"
	AddrScene       = "/live/scene"
	AddrPlaying     = "/live/playing"
	AddrTime        = "/live/time"
	AddrTrackVolume = "/live/track/*/volume"
	AddrFPS         = "/td/fps"
	AddrComposition = "/td/composition"
	AddrParam       = "/td/param/*"
	AddrMode        = "/companion/mode"
	AddrNote        = "/companion/note"
	AddrClearNotes  = "/companion/clear_notes"
	AddrNextSong    = "/companion/next_song"
	AddrPrevSong    = "/companion/prev_song"
)

// newRouter maps the OSC address space onto the app state. Every handler
// reads its arguments before touching state, so a bad argument changes
// nothing.
func (a *App) newRouter() *osc.Router {
	r := osc.NewRouter()

	r.Handle(AddrTempo, func(_ string, args []any) error {
		bpm, err := osc.Float(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetBPM(bpm)
		log.Debug().Msgf("BPM: %.1f", bpm)
		return nil
	})
	r.Handle(AddrScene, func(_ string, args []any) error {
		scene, err := osc.String(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		log.Info().Msgf("scene: %s", scene)
		if a.state.SetScene(scene) {
			a.followScene()
		}
		return nil
	})
	r.Handle(AddrPlaying, func(_ string, args []any) error {
		playing, err := osc.Bool(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetPlaying(playing)
		log.Info().Msgf("playing: %t", playing)
		return nil
	})
	r.Handle(AddrTime, func(_ string, args []any) error {
		secs, err := osc.Float(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetTime(secs)
		return nil
	})
	r.Handle(AddrTrackVolume, func(addr string, args []any) error {
		vol, err := osc.Float(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetTrackVolume(strings.Split(addr, "/")[3], vol)
		return nil
	})
	r.Handle(AddrFPS, func(_ string, args []any) error {
		fps, err := osc.Float(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetFPS(fps)
		return nil
	})
	r.Handle(AddrComposition, func(_ string, args []any) error {
		comp, err := osc.String(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.state.SetComposition(comp)
		log.Info().Msgf("TD composition: %s", comp)
		return nil
	})
	r.Handle(AddrParam, func(addr string, args []any) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: parameter without a value", osc.ErrArgument)
		}
		a.state.SetParam(addr[strings.LastIndex(addr, "/")+1:], args[0])
		return nil
	})

	r.Handle(AddrMode, a.handleMode)
	r.Handle(AddrNote, func(_ string, args []any) error {
		text, err := osc.String(args, 0)
		if err != nil {
			return err //nolint:wrapcheck // router logs with the address
		}
		a.AddNote(text)
		return nil
	})
	r.Handle(AddrClearNotes, func(string, []any) error {
		a.state.ClearNotes()
		log.Info().Msg("notes cleared")
		a.changed(ModeNotes)
		return nil
	})
	r.Handle(AddrNextSong, func(string, []any) error {
		a.moveSong(1)
		return nil
	})
	r.Handle(AddrPrevSong, func(string, []any) error {
		a.moveSong(-1)
		return nil
	})

	r.Default(func(addr string, args []any) error {
		log.Debug().Interface("args", args).Msgf("unhandled OSC: %s", addr)
		return nil
	})
	return r
}

func (a *App) handleMode(_ string, args []any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: mode needs an index or name", osc.ErrArgument)
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", osc.ErrArgument, err)
	}
	if a.rt == nil || !api.ApplyMode(a.rt.Modes, raw) {
		return fmt.Errorf("%w: unknown mode %s", osc.ErrArgument, raw)
	}
	return nil
}

// AddNote appends a note stamped with the current time.
func (a *App) AddNote(text string) {
	a.state.AddNote(Note{Time: a.clock.Now(), Text: text})
	log.Info().Msgf("note: %s", text)
	a.changed(ModeNotes)
}

func (a *App) moveSong(delta int) {
	idx := a.state.MoveSong(delta)
	log.Info().Int("song", idx).Msg("set list cursor moved")
	a.changed(ModeSetlist)
}

// followScene moves the set-list cursor to the song named like the new
// scene.
func (a *App) followScene() {
	idx, ok := a.state.MatchScene(a.cfg.Values().Performance.MatchThreshold)
	if !ok {
		return
	}
	log.Info().Int("song", idx).Msg("scene matched set list")
	a.changed(ModeSetlist)
}

// changed redraws right away when the affected mode is on screen. Fast
// changing values wait for the next refresh instead.
func (a *App) changed(mode modes.Mode) {
	if a.rt != nil && a.rt.Modes.Current() == mode {
		a.rt.Kick()
	}
}

// Dispatch routes one message as if it arrived over OSC.
func (a *App) Dispatch(addr string, args []any) error {
	return a.router.Dispatch(addr, args) //nolint:wrapcheck // callers add context
}

func (a *App) publishSetlist() {
	if a.rt != nil {
		a.rt.Publish(broker.MethodSetlist, a.state.Setlist())
	}
}
