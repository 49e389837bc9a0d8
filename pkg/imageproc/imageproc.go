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

// Package imageproc converts incoming artwork into 1-bit panel frames.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	// registered decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/makeworld-the-better-one/dither/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrDecodeImage   = errors.New("cannot decode image")
	ErrUnknownDither = errors.New("unknown dither method")
)

// Limits on the size an image header may declare. The decoder allocates the
// whole pixel buffer up front, so these bound memory per message.
const (
	MaxDimension = 8192
	MaxPixels    = 4096 * 4096
)

const (
	DitherFloydSteinberg = "floyd-steinberg"
	DitherAtkinson       = "atkinson"
	DitherJJN            = "jarvis-judice-ninke"
	DitherStucki         = "stucki"
	DitherBurkes         = "burkes"
	DitherSierra         = "sierra"
	DitherSierraLite     = "sierra-lite"
	DitherBayer          = "bayer"
	DitherBayer4         = "bayer-4x4"
	DitherBayer8         = "bayer-8x8"
	DitherThreshold      = "threshold"

	ResizeContain = "contain"
	ResizeCover   = "cover"
	ResizeStretch = "stretch"
)

var diffusion = map[string]dither.ErrorDiffusionMatrix{
	DitherFloydSteinberg: dither.FloydSteinberg,
	DitherAtkinson:       dither.Atkinson,
	DitherJJN:            dither.JarvisJudiceNinke,
	DitherStucki:         dither.Stucki,
	DitherBurkes:         dither.Burkes,
	DitherSierra:         dither.Sierra,
	DitherSierraLite:     dither.SierraLite,
}

var ordered = map[string]uint{
	DitherBayer:  4,
	DitherBayer4: 4,
	DitherBayer8: 8,
}

// DitherMethods lists every accepted dither method name.
func DitherMethods() []string {
	return []string{
		DitherFloydSteinberg, DitherAtkinson, DitherJJN, DitherStucki,
		DitherBurkes, DitherSierra, DitherSierraLite,
		DitherBayer, DitherBayer4, DitherBayer8, DitherThreshold,
	}
}

// KnownDither reports whether name is an accepted dither method.
func KnownDither(name string) bool {
	name = strings.ToLower(name)
	_, ok := diffusion[name]
	if ok {
		return true
	}
	_, ok = ordered[name]
	return ok || name == DitherThreshold
}

// KnownResize reports whether name is an accepted resize mode. Empty means
// the default, contain.
func KnownResize(name string) bool {
	switch strings.ToLower(name) {
	case "", ResizeContain, ResizeCover, ResizeStretch:
		return true
	default:
		return false
	}
}

// Options controls Process.
type Options struct {
	Dither     string
	Resize     string
	Width      int
	Height     int
	Rotation   int
	Contrast   float64
	Brightness float64
}

// DecodeBase64 decodes a base64 payload holding a PNG, JPEG, GIF, BMP or
// WebP image. Whitespace and a data: URL prefix are tolerated.
func DecodeBase64(payload []byte) (image.Image, error) {
	s := strings.TrimSpace(string(payload))
	if i := strings.Index(s, ";base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len(";base64,"):]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeImage)
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeImage, err)
		}
	}
	return Decode(raw)
}

// Decode decodes raw image bytes. Images whose header declares more than
// MaxDimension on a side or MaxPixels in total are rejected before any
// pixel data is read.
func Decode(raw []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxDimension || cfg.Height > MaxDimension ||
		cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d is too large", ErrDecodeImage, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeImage, err)
	}
	return img, nil
}

// Process adjusts, scales, dithers and rotates img into an opts.Width ×
// opts.Height bitmap. The same input and options always give the same
// output.
func Process(img image.Image, opts Options) (*render.Bitmap, error) {
	method := strings.ToLower(opts.Dither)
	if method == "" {
		method = DitherFloydSteinberg
	}
	if !KnownDither(method) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDither, opts.Dither)
	}

	w, h := opts.Width, opts.Height
	if opts.Rotation == 90 || opts.Rotation == 270 {
		w, h = h, w
	}

	adjusted := adjust(img, opts.Brightness, opts.Contrast)
	canvas := fitCanvas(adjusted, w, h, opts.Resize)

	var bmp image.Image = ditherImage(canvas, method)
	switch opts.Rotation {
	case 90:
		bmp = imaging.Rotate90(bmp)
	case 180:
		bmp = imaging.Rotate180(bmp)
	case 270:
		bmp = imaging.Rotate270(bmp)
	}

	out := render.Blank(opts.Width, opts.Height)
	draw.Draw(out, out.Bounds(), bmp, bmp.Bounds().Min, draw.Src)
	return out, nil
}

// adjust applies PIL-style enhancement factors, 1.0 leaves the image as is.
func adjust(img image.Image, brightness, contrast float64) *image.NRGBA {
	out := imaging.Clone(img)
	if brightness > 0 && brightness != 1 {
		out = imaging.AdjustBrightness(out, (brightness-1)*100)
	}
	if contrast > 0 && contrast != 1 {
		out = imaging.AdjustContrast(out, (contrast-1)*100)
	}
	return out
}

// fitCanvas scales img for a w×h panel and centres it on white.
func fitCanvas(img *image.NRGBA, w, h int, mode string) *image.NRGBA {
	var scaled *image.NRGBA
	switch strings.ToLower(mode) {
	case ResizeCover:
		scaled = imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	case ResizeStretch:
		scaled = imaging.Resize(img, w, h, imaging.Lanczos)
	default:
		scaled = imaging.Fit(img, w, h, imaging.Lanczos)
	}
	bg := imaging.New(w, h, color.White)
	return imaging.PasteCenter(bg, scaled)
}

func ditherImage(img image.Image, method string) *image.Paletted {
	if method == DitherThreshold {
		out := render.Blank(img.Bounds().Dx(), img.Bounds().Dy())
		draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
		return out
	}

	d := dither.NewDitherer([]color.Color(render.Palette))
	if m, ok := diffusion[method]; ok {
		d.Matrix = m
	} else {
		size := ordered[method]
		d.Mapper = dither.Bayer(size, size, 1.0)
	}
	return d.DitherPaletted(img)
}
