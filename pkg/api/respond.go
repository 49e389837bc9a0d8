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
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/gocarina/gocsv"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var (
	ErrBadRequest = errors.New("bad request")

	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Result is the envelope the dashboard expects from action endpoints.
type Result struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func WriteOK(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Result{Success: true, Message: message})
}

// WriteError maps ErrBadRequest to 400 and everything else to 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, ErrBadRequest) {
		status = http.StatusBadRequest
	} else {
		log.Error().Err(err).Msg("request failed")
	}
	WriteJSON(w, status, Result{Success: false, Error: err.Error()})
}

// DecodeJSON reads a JSON body into dst and runs struct validation on it.
func DecodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	if err := validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// WriteCSV writes rows, a slice of csv-tagged structs, as a CSV download.
func WriteCSV(w http.ResponseWriter, filename string, rows any) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := gocsv.Marshal(rows, w); err != nil {
		log.Error().Err(err).Msg("failed to write CSV response")
	}
}

// WritePNG writes bmp as a PNG, 404 when there is nothing to show yet.
func WritePNG(w http.ResponseWriter, bmp *render.Bitmap) {
	if bmp == nil {
		http.Error(w, "no frame rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, bmp, imaging.PNG); err != nil {
		log.Error().Err(err).Msg("failed to encode preview")
	}
}
