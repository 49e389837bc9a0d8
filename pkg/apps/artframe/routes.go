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

package artframe

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/imageproc"
)

const maxUploadBytes = 10 << 20

// PlotterResponse is GET /api/plotter.
type PlotterResponse struct {
	Frames   []*Frame `json:"frames"`
	Capacity int      `json:"capacity"`
}

// UploadResponse is POST /api/upload_image.
type UploadResponse struct {
	api.Result
	ID   string `json:"id,omitempty"`
	Size int    `json:"size,omitempty"`
}

func (a *App) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := a.Clear(r.Context()); err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteOK(w, "Display cleared")
}

func (a *App) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	a.Refresh()
	api.WriteOK(w, "Refresh requested")
}

func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("image")
	if err != nil {
		api.WriteError(w, fmt.Errorf("%w: no image provided: %w", api.ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	raw, err := io.ReadAll(file)
	if err != nil {
		api.WriteError(w, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}
	img, err := imageproc.Decode(raw)
	if err != nil {
		api.WriteError(w, fmt.Errorf("%w: %w", api.ErrBadRequest, err))
		return
	}

	frame, err := a.ShowImage(img, len(raw))
	if err != nil {
		if errors.Is(err, imageproc.ErrUnknownDither) {
			err = fmt.Errorf("%w: %w", api.ErrBadRequest, err)
		}
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, UploadResponse{
		Result: api.Result{Success: true, Message: "Image uploaded"},
		ID:     frame.ID,
		Size:   frame.Size,
	})
}

func (a *App) handlePlotter(w http.ResponseWriter, _ *http.Request) {
	q := a.state.Plotter()
	api.WriteJSON(w, http.StatusOK, PlotterResponse{
		Frames:   q.Items(),
		Capacity: q.Cap(),
	})
}

// handlePlotterNext pops the oldest queued frame.
func (a *App) handlePlotterNext(w http.ResponseWriter, _ *http.Request) {
	f, ok := a.state.Plotter().Pop()
	if !ok {
		api.WritePNG(w, nil)
		return
	}
	w.Header().Set("X-Frame-Id", f.ID)
	api.WritePNG(w, f.Bitmap)
}
