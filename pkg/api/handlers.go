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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/helpers"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/service/broker"
)

// StatusResponse is GET /api/status.
type StatusResponse struct {
	helpers.SystemStatus
	App            string `json:"app"`
	Version        string `json:"version"`
	Mode           string `json:"mode"`
	Display        string `json:"display"`
	ServiceUptime  string `json:"service_uptime"`
	DisplayPushes  int    `json:"display_pushes"`
	LastFrameReady bool   `json:"last_frame_ready"`
}

type ModeResponse struct {
	Mode  string   `json:"mode"`
	Modes []string `json:"modes"`
	Index int      `json:"index"`
}

type changeModeRequest struct {
	Mode json.RawMessage `json:"mode"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.opts.Config.Values())
}

// handlePostConfig merges the posted document over the current settings,
// validates and saves it. The running daemon keeps its old settings.
func (s *Server) handlePostConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		WriteError(w, fmt.Errorf("%w: read body: %w", ErrBadRequest, err))
		return
	}

	vals, err := config.Decode(body, s.opts.Config.Values)
	if err != nil {
		WriteError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := s.opts.Config.Update(vals); err != nil {
		WriteError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := s.opts.Config.Save(); err != nil {
		WriteError(w, err)
		return
	}

	s.publish(broker.MethodConfigSaved, map[string]string{"path": s.opts.Config.Path()})
	WriteOK(w, "Configuration saved. Restart the service to apply changes.")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		SystemStatus:  helpers.ReadSystemStatus(r.Context(), s.opts.Fs, statusSample),
		App:           s.opts.App,
		Version:       s.opts.Version,
		ServiceUptime: FormatUptime(s.opts.Clock.Since(s.started)),
	}
	if s.opts.Modes != nil {
		resp.Mode = string(s.opts.Modes.Current())
	}
	if s.opts.Loop != nil {
		resp.Display = s.opts.Loop.Sink().Name()
		resp.DisplayPushes = s.opts.Loop.Pushes()
		resp.LastFrameReady = s.opts.Loop.Last() != nil
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) modeResponse() ModeResponse {
	if s.opts.Modes == nil {
		return ModeResponse{Modes: []string{}}
	}
	list := s.opts.Modes.Modes()
	names := make([]string, len(list))
	for i, m := range list {
		names[i] = string(m)
	}
	return ModeResponse{
		Mode:  string(s.opts.Modes.Current()),
		Index: s.opts.Modes.Index(),
		Modes: names,
	}
}

func (s *Server) modeJSON() json.RawMessage {
	data, err := json.Marshal(s.modeResponse())
	if err != nil {
		return nil
	}
	return data
}

func (s *Server) handleGetMode(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.modeResponse())
}

// handleChangeMode accepts {"mode": 2} or {"mode": "stats"}.
func (s *Server) handleChangeMode(w http.ResponseWriter, r *http.Request) {
	var req changeModeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if s.opts.Modes == nil || len(req.Mode) == 0 {
		WriteError(w, fmt.Errorf("%w: mode is required", ErrBadRequest))
		return
	}

	if !ApplyMode(s.opts.Modes, req.Mode) {
		WriteError(w, fmt.Errorf("%w: unknown mode %s", ErrBadRequest, string(req.Mode)))
		return
	}
	WriteJSON(w, http.StatusOK, s.modeResponse())
}

// ApplyMode switches m to a mode given as a JSON number (index) or string
// (name or index).
func ApplyMode(m *modes.Manager, raw json.RawMessage) bool {
	var idx int
	if err := json.Unmarshal(raw, &idx); err == nil {
		return m.SetIndex(idx)
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return false
	}
	if n, err := strconv.Atoi(name); err == nil {
		return m.SetIndex(n)
	}
	return m.Set(modes.Mode(name))
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Loop == nil {
		WritePNG(w, nil)
		return
	}
	WritePNG(w, s.opts.Loop.Last())
}

func (s *Server) publish(method string, params any) {
	if s.opts.Broker != nil {
		s.opts.Broker.Publish(method, params)
	}
}

// FormatUptime renders a duration as "3h 12m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", h, m)
}
