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

package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Rasterize draws l onto a width×height bitmap. For a rotation of 90 or 270
// degrees the layout is drawn on a canvas with swapped sides and then turned,
// so the result always matches the panel. Rotations are counter-clockwise.
func Rasterize(l *Layout, width, height, rotation int) *Bitmap {
	if l.Image != nil {
		bmp := fit(l.Image, width, height)
		if !l.Disconnected {
			return bmp
		}
		// The image is already in panel orientation. Turn it back so the
		// glyph lands where text modes draw it.
		dc := gg.NewContextForImage(rotate(bmp, (360-rotation)%360))
		drawDisconnected(dc, dc.Width())
		return fit(rotate(dc.Image(), rotation), width, height)
	}

	cw, ch := width, height
	if rotation == 90 || rotation == 270 {
		cw, ch = height, width
	}

	dc := gg.NewContext(cw, ch)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)

	face := basicfont.Face7x13
	dc.SetFontFace(face)
	ascent := float64(face.Metrics().Ascent.Ceil())

	text := func(s string, x, y int) {
		dc.DrawString(s, float64(x), float64(y)+ascent)
	}

	y := 0
	if l.Title != "" {
		text(l.Title, 0, y)
		y += LineHeight + TitleGap
		dc.DrawLine(0, float64(y)+0.5, float64(cw), float64(y)+0.5)
		dc.Stroke()
		y += RuleGap
	}

	for _, line := range l.Lines {
		if y+LineHeight >= ch {
			break
		}
		text(line, 0, y)
		y += LineHeight
	}

	barWidth := cw - 60
	for _, m := range l.Meters {
		if y+MeterHeight+2 >= ch || barWidth <= 0 {
			break
		}
		text(m.Label, 0, y-2)
		dc.DrawRectangle(MeterLabelW+0.5, float64(y)+0.5, float64(barWidth), MeterHeight)
		dc.Stroke()
		if filled := int(float64(barWidth) * Clamp01(m.Value)); filled > 0 {
			dc.DrawRectangle(MeterLabelW, float64(y), float64(filled), MeterHeight+1)
			dc.Fill()
		}
		y += MeterHeight + MeterSpacing
	}

	if l.Disconnected {
		drawDisconnected(dc, cw)
	}

	return fit(rotate(dc.Image(), rotation), width, height)
}

func rotate(img image.Image, rotation int) image.Image {
	switch rotation {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// drawDisconnected marks the top-right corner with a crossed box.
func drawDisconnected(dc *gg.Context, width int) {
	const size = 9
	x := float64(width - size - 1)
	dc.SetColor(color.White)
	dc.DrawRectangle(x-1, 0, size+2, size+2)
	dc.Fill()
	dc.SetColor(color.Black)
	dc.DrawRectangle(x+0.5, 0.5, size, size)
	dc.DrawLine(x, 0, x+size, size)
	dc.DrawLine(x+size, 0, x, size)
	dc.Stroke()
}

// fit copies src into a fresh width×height bitmap, mapping every pixel to
// the nearest palette entry. Anything outside src stays white.
func fit(src image.Image, width, height int) *Bitmap {
	dst := image.NewPaletted(image.Rect(0, 0, width, height), Palette)
	b := src.Bounds()
	draw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), src, b.Min, draw.Src)
	return dst
}

// Blank returns an all-white bitmap.
func Blank(width, height int) *Bitmap {
	return image.NewPaletted(image.Rect(0, 0, width, height), Palette)
}

// InkCount returns the number of black pixels in r, used by tests and the
// change detector.
func InkCount(b *Bitmap, r image.Rectangle) int {
	r = r.Intersect(b.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if b.ColorIndexAt(x, y) == 1 {
				n++
			}
		}
	}
	return n
}

// Equal reports whether two bitmaps have the same size and pixels.
func Equal(a, b *Bitmap) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Bounds() != b.Bounds() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			if a.ColorIndexAt(ab.Min.X+x, ab.Min.Y+y) != b.ColorIndexAt(bb.Min.X+x, bb.Min.Y+y) {
				return false
			}
		}
	}
	return true
}
