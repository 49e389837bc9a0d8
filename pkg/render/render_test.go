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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	panelW = 250
	panelH = 122
)

func sampleLayout() *Layout {
	return &Layout{
		Title: "Ableton Mode",
		Lines: []string{"BPM: 128.0", "Scene: Intro", "PLAYING", "Time: 1:05"},
		Meters: []Meter{
			{Label: "T1:", Value: 0.5},
			{Label: "T2:", Value: 1},
		},
	}
}

func TestRasterizeDimensions(t *testing.T) {
	t.Parallel()

	for _, rot := range []int{0, 90, 180, 270} {
		bmp := Rasterize(sampleLayout(), panelW, panelH, rot)
		require.NotNil(t, bmp)
		assert.Equal(t, image.Rect(0, 0, panelW, panelH), bmp.Bounds(), "rotation %d", rot)
	}
}

func TestRasterizeDrawsInk(t *testing.T) {
	t.Parallel()

	blank := Rasterize(&Layout{}, panelW, panelH, 0)
	assert.Zero(t, InkCount(blank, blank.Bounds()))

	bmp := Rasterize(&Layout{Title: "Status"}, panelW, panelH, 0)
	assert.Positive(t, InkCount(bmp, image.Rect(0, 0, 60, LineHeight)))
	// horizontal rule spans the whole width
	ruleY := LineHeight + TitleGap
	assert.Equal(t, panelW, InkCount(bmp, image.Rect(0, ruleY, panelW, ruleY+1)))
}

func TestRasterizeMeterFill(t *testing.T) {
	t.Parallel()

	inkFor := func(v float64) int {
		bmp := Rasterize(&Layout{Meters: []Meter{{Label: "T1:", Value: v}}}, panelW, panelH, 0)
		// interior of the bar, away from the outline
		return InkCount(bmp, image.Rect(MeterLabelW+2, 2, MeterLabelW+panelW-60-2, MeterHeight-1))
	}

	empty, half, full := inkFor(0), inkFor(0.5), inkFor(1)
	assert.Zero(t, empty)
	assert.Greater(t, half, empty)
	assert.Greater(t, full, half)
	assert.Equal(t, full, inkFor(7), "values above one are clamped")
}

func TestRasterizeDropsOverflowLines(t *testing.T) {
	t.Parallel()

	lines := make([]string, 40)
	for i := range lines {
		lines[i] = strings.Repeat("W", 50)
	}
	bmp := Rasterize(&Layout{Title: "x", Lines: lines}, panelW, panelH, 0)
	assert.Equal(t, image.Rect(0, 0, panelW, panelH), bmp.Bounds())
	assert.Zero(t, InkCount(bmp, image.Rect(0, panelH-1, panelW, panelH)))
}

func TestRasterizeDisconnectedGlyph(t *testing.T) {
	t.Parallel()

	corner := image.Rect(panelW-12, 0, panelW, 12)
	plain := Rasterize(&Layout{}, panelW, panelH, 0)
	marked := Rasterize(&Layout{Disconnected: true}, panelW, panelH, 0)
	assert.Zero(t, InkCount(plain, corner))
	assert.Positive(t, InkCount(marked, corner))
}

func TestRasterizeDisconnectedGlyphOverImage(t *testing.T) {
	t.Parallel()

	for _, rot := range []int{0, 90, 180, 270} {
		text := Rasterize(&Layout{Disconnected: true}, panelW, panelH, rot)
		art := Rasterize(&Layout{Image: Blank(panelW, panelH), Disconnected: true}, panelW, panelH, rot)
		assert.Positive(t, InkCount(art, art.Bounds()), "rotation %d", rot)
		assert.True(t, Equal(text, art), "rotation %d", rot)
	}

	corner := image.Rect(panelW-12, 0, panelW, 12)
	plain := Rasterize(&Layout{Image: Blank(panelW, panelH)}, panelW, panelH, 0)
	assert.Zero(t, InkCount(plain, corner))
}

func TestRasterizeImageFullBleed(t *testing.T) {
	t.Parallel()

	src := image.NewPaletted(image.Rect(0, 0, 300, 200), Palette)
	for i := range src.Pix {
		src.Pix[i] = 1
	}
	bmp := Rasterize(&Layout{Image: src, Title: "ignored"}, panelW, panelH, 90)
	assert.Equal(t, image.Rect(0, 0, panelW, panelH), bmp.Bounds())
	assert.Equal(t, panelW*panelH, InkCount(bmp, bmp.Bounds()))
}

func TestRasterizeRotation180(t *testing.T) {
	t.Parallel()

	upright := Rasterize(&Layout{Title: "Top"}, panelW, panelH, 0)
	flipped := Rasterize(&Layout{Title: "Top"}, panelW, panelH, 180)
	top := image.Rect(0, 0, panelW, LineHeight)
	bottom := image.Rect(0, panelH-LineHeight, panelW, panelH)
	assert.Positive(t, InkCount(upright, top))
	assert.Positive(t, InkCount(flipped, bottom))
	assert.False(t, Equal(upright, flipped))
}

func TestRasterizeAnyLayoutMatchesPanel(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(16, 400).Draw(t, "w")
		h := rapid.IntRange(16, 300).Draw(t, "h")
		rot := rapid.SampledFrom([]int{0, 90, 180, 270}).Draw(t, "rot")
		l := &Layout{
			Title:        rapid.String().Draw(t, "title"),
			Lines:        rapid.SliceOfN(rapid.String(), 0, 20).Draw(t, "lines"),
			Disconnected: rapid.Bool().Draw(t, "disc"),
		}
		for i, v := range rapid.SliceOfN(rapid.Float64(), 0, 8).Draw(t, "meters") {
			l.Meters = append(l.Meters, Meter{Label: string(rune('A' + i)), Value: v})
		}
		bmp := Rasterize(l, w, h, rot)
		if bmp.Bounds() != image.Rect(0, 0, w, h) {
			t.Fatalf("bitmap %v, want %dx%d", bmp.Bounds(), w, h)
		}
	})
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "Intro", max: 25, want: "Intro"},
		{name: "exact", in: strings.Repeat("a", 25), max: 25, want: strings.Repeat("a", 25)},
		{name: "long", in: strings.Repeat("b", 30), max: 25, want: strings.Repeat("b", 22) + "..."},
		{name: "tiny max", in: "abcdef", max: 2, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Clamp01(-3), 0)
	assert.InDelta(t, 0.25, Clamp01(0.25), 0)
	assert.InDelta(t, 1.0, Clamp01(9), 0)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.50", FormatValue(0.5))
	assert.Equal(t, "0.25", FormatValue(float32(0.25)))
	assert.Equal(t, "7", FormatValue(int32(7)))
	assert.Equal(t, "abcdefghij", FormatValue("abcdefghijkl"))
	assert.Empty(t, FormatValue(nil))
}

func TestLayoutText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ableton Mode\nBPM: 128.0\nScene: Intro\nPLAYING\nTime: 1:05\nT1:\nT2:",
		sampleLayout().Text())
}
