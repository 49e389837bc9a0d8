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

// Package display pushes rendered bitmaps to the e-ink panel, or to a PNG
// file when no panel is attached, on a fixed refresh cadence.
package display

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ModelFile selects the PNG sink explicitly.
const ModelFile = "file"

// Sink is something a bitmap can be shown on.
type Sink interface {
	// Show pushes bmp. full asks for a complete refresh cycle instead of a
	// partial update.
	Show(ctx context.Context, bmp *render.Bitmap, full bool) error
	Clear(ctx context.Context) error
	Close() error
	Name() string
}

// DefaultOutputFile is where the PNG sink writes when no path is set.
func DefaultOutputFile(app string) string {
	return fmt.Sprintf("/tmp/%s_display.png", app)
}

// Open returns the sink configured by d. When the panel cannot be
// initialised the PNG sink is used instead.
func Open(fs afero.Fs, app string, d config.Display) Sink {
	path := d.OutputFile
	if path == "" {
		path = DefaultOutputFile(app)
	}
	file := NewFile(fs, path, d.Width, d.Height)

	if strings.EqualFold(d.Model, ModelFile) {
		log.Info().Str("path", path).Msg("display: writing frames to file")
		return file
	}
	if !strings.EqualFold(d.Model, config.DefaultPanelModel) {
		log.Warn().Str("model", d.Model).Msg("display: unsupported panel model, writing frames to file")
		return file
	}

	epd, err := OpenEPD()
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("display: panel not available, writing frames to file")
		return file
	}
	log.Info().Str("panel", epd.Name()).Msg("display: panel initialized")
	return epd
}
