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

package display

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/render"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
	"periph.io/x/host/v3"
)

// EPD drives a Waveshare 2.13" V2 HAT over SPI.
type EPD struct {
	port    spi.PortCloser
	dev     *waveshare2in13v2.Dev
	partial bool
}

// OpenEPD initialises the host drivers, opens the default SPI port and
// wakes the panel.
func OpenEPD() (*EPD, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init host drivers: %w", err)
	}

	port, err := spireg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port: %w", err)
	}

	opts := waveshare2in13v2.EPD2in13v2
	dev, err := waveshare2in13v2.NewHat(port, &opts)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}
	if err := dev.Init(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to init panel: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to clear panel: %w", err)
	}

	return &EPD{port: port, dev: dev}, nil
}

func (*EPD) Name() string {
	return config.DefaultPanelModel
}

func (e *EPD) Show(_ context.Context, bmp *render.Bitmap, full bool) error {
	if full == e.partial {
		mode := waveshare2in13v2.Partial
		if full {
			mode = waveshare2in13v2.Full
		}
		if err := e.dev.SetUpdateMode(mode); err != nil {
			return fmt.Errorf("failed to set update mode: %w", err)
		}
		e.partial = !full
	}

	frame := image1bit.NewVerticalLSB(e.dev.Bounds())
	src := orient(bmp, e.dev.Bounds())
	draw.Draw(frame, frame.Bounds(), src, src.Bounds().Min, draw.Src)

	if err := e.dev.Draw(e.dev.Bounds(), frame, image.Point{}); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	return nil
}

func (e *EPD) Clear(_ context.Context) error {
	if err := e.dev.Clear(color.White); err != nil {
		return fmt.Errorf("failed to clear panel: %w", err)
	}
	return nil
}

// Close puts the panel into deep sleep and releases the SPI port.
func (e *EPD) Close() error {
	sleepErr := e.dev.Sleep()
	if err := e.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port: %w", err)
	}
	if sleepErr != nil {
		return fmt.Errorf("failed to sleep panel: %w", sleepErr)
	}
	return nil
}

// orient turns a landscape frame clockwise onto a portrait panel. Frames
// that already match the panel orientation pass through.
func orient(bmp image.Image, panel image.Rectangle) image.Image {
	b := bmp.Bounds()
	landscape := b.Dx() > b.Dy()
	portraitPanel := panel.Dy() > panel.Dx()
	if landscape && portraitPanel {
		return imaging.Rotate270(bmp)
	}
	return bmp
}
