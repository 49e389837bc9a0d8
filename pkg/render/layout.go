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

// Package render turns per-mode layouts into monochrome panel bitmaps. Mode
// functions build a Layout from a state snapshot; Rasterize draws it.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

const (
	LineHeight   = 12
	TitleGap     = 2
	RuleGap      = 4
	MeterHeight  = 8
	MeterSpacing = 3
	MeterLabelW  = 30
)

// Palette is the two-colour palette every bitmap uses: index 0 is paper
// white, index 1 is ink black.
var Palette = color.Palette{color.White, color.Black}

// Bitmap is a 1-bit panel frame.
type Bitmap = image.Paletted

// Meter is a labelled horizontal bar filled in proportion to Value.
type Meter struct {
	Label string
	Value float64
}

// Layout is the text-and-bars description of one screen. Image, when set,
// is drawn full-bleed and the rest of the layout is ignored.
type Layout struct {
	Image        *Bitmap
	Title        string
	Lines        []string
	Meters       []Meter
	Disconnected bool
}

// Text returns every string the layout would draw, one per line, for
// assertions and logging.
func (l *Layout) Text() string {
	parts := make([]string, 0, len(l.Lines)+len(l.Meters)+1)
	if l.Title != "" {
		parts = append(parts, l.Title)
	}
	parts = append(parts, l.Lines...)
	for _, m := range l.Meters {
		parts = append(parts, m.Label)
	}
	return strings.Join(parts, "\n")
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// Clip shortens s to max runes without an ellipsis.
func Clip(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}

// FormatValue renders an arbitrary parameter value for display: floats with
// two decimals, everything else clipped to ten characters.
func FormatValue(v any) string {
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", n)
	case float32:
		return fmt.Sprintf("%.2f", n)
	case nil:
		return ""
	default:
		return Clip(fmt.Sprint(n), 10)
	}
}
