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
	"net/http"

	"github.com/inkterm/inkterm/pkg/api"
)

// SetlistResponse is GET /api/setlist.
type SetlistResponse struct {
	Setlist
	CurrentSong int `json:"current_song"`
}

// NoteRequest is POST /api/send_note.
type NoteRequest struct {
	Note string `json:"note" validate:"required"`
}

func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, a.state.Snapshot())
}

func (a *App) handleGetSetlist(w http.ResponseWriter, _ *http.Request) {
	snap := a.state.Snapshot()
	api.WriteJSON(w, http.StatusOK, SetlistResponse{
		Setlist:     snap.Setlist,
		CurrentSong: snap.CurrentSong,
	})
}

func (a *App) handlePostSetlist(w http.ResponseWriter, r *http.Request) {
	var sl Setlist
	if err := api.DecodeJSON(r, &sl); err != nil {
		api.WriteError(w, err)
		return
	}
	if a.setlistPath != "" {
		if err := SaveSetlist(a.fs(), a.setlistPath, &sl); err != nil {
			api.WriteError(w, err)
			return
		}
	}
	a.applySetlist(&sl)
	api.WriteOK(w, "Set list saved")
}

func (a *App) handleSendNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, err)
		return
	}
	a.AddNote(req.Note)
	api.WriteOK(w, "Note sent to display")
}

func (a *App) handleClearNotes(w http.ResponseWriter, _ *http.Request) {
	if err := a.Dispatch(AddrClearNotes, nil); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteOK(w, "Notes cleared")
}
