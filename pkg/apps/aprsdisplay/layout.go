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

package aprsdisplay

import (
	"fmt"
	"strconv"
	"time"

	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/aprs"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
)

const (
	ModePackets modes.Mode = "packets"
	ModeStats   modes.Mode = "stats"
	ModeWeather modes.Mode = "weather"
)

const (
	packetLines   = 5
	messageClip   = 20
	formatsShown  = 3
	timeOfDayForm = "15:04"
)

var Modes = []modes.Mode{ModePackets, ModeStats, ModeWeather}

// BuildLayout draws mode from snap. Unknown modes fall back to the packet
// list.
func BuildLayout(snap *Snapshot, mode modes.Mode, now time.Time) *render.Layout {
	switch mode {
	case ModeStats:
		return statsLayout(snap, now)
	case ModeWeather:
		return weatherLayout(snap)
	default:
		return packetsLayout(snap)
	}
}

func packetsLayout(snap *Snapshot) *render.Layout {
	l := &render.Layout{Title: fmt.Sprintf("APRS Packets (%d)", len(snap.Recent))}
	recent := snap.Recent
	if len(recent) > packetLines {
		recent = recent[len(recent)-packetLines:]
	}
	for _, p := range recent {
		l.Lines = append(l.Lines, PacketLine(p))
	}
	return l
}

// PacketLine is the one-line summary used on the panel.
func PacketLine(p *aprs.Packet) string {
	ts := p.Received.Format(timeOfDayForm)
	switch {
	case p.HasPosition:
		return fmt.Sprintf("%s %s %.2f,%.2f", ts, p.From, p.Latitude, p.Longitude)
	case p.MessageText != "":
		return fmt.Sprintf("%s %s: %s", ts, p.From, render.Clip(p.MessageText, messageClip))
	default:
		return ts + " " + p.From
	}
}

func statsLayout(snap *Snapshot, now time.Time) *render.Layout {
	stations := fmt.Sprintf("Stations: %d", snap.Stations)
	if len(snap.Senders) > 0 {
		stations += fmt.Sprintf(" (top %s)", snap.Senders[0].Name)
	}

	l := &render.Layout{
		Title: "APRS Statistics",
		Lines: []string{
			"Uptime: " + api.FormatUptime(snap.Uptime(now)),
			fmt.Sprintf("Packets: %d", snap.Total),
			stations,
			fmt.Sprintf("Rate: %.1f/hr", snap.Rate(now)),
		},
	}
	if len(snap.Formats) > 0 {
		l.Lines = append(l.Lines, "By Type:")
		for _, c := range snap.Formats[:min(formatsShown, len(snap.Formats))] {
			l.Lines = append(l.Lines, fmt.Sprintf("  %s: %d", c.Name, c.Count))
		}
	}
	return l
}

func weatherLayout(snap *Snapshot) *render.Layout {
	l := &render.Layout{Title: "APRS Weather"}
	p := snap.Weather
	if p == nil || p.Weather.Empty() {
		l.Lines = []string{"No weather data"}
		return l
	}

	w := p.Weather
	l.Lines = append(l.Lines, "Station: "+p.From)
	if w.Temperature != nil {
		l.Lines = append(l.Lines, "Temp: "+num(*w.Temperature)+" F")
	}
	if w.Pressure != nil {
		l.Lines = append(l.Lines, "Press: "+num(*w.Pressure)+" mb")
	}
	if w.WindSpeed != nil {
		wind := "Wind: " + num(*w.WindSpeed) + " mph"
		if w.WindDirection != nil {
			wind += fmt.Sprintf(" @ %d deg", *w.WindDirection)
		}
		l.Lines = append(l.Lines, wind)
	}
	if w.Humidity != nil {
		l.Lines = append(l.Lines, fmt.Sprintf("Humid: %d%%", *w.Humidity))
	}
	if w.RainHour != nil {
		l.Lines = append(l.Lines, "Rain 1h: "+num(*w.RainHour)+" in")
	}
	return l
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
