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
	"fmt"

	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/render"
)

const (
	ModeArt    modes.Mode = "art"
	ModeStatus modes.Mode = "status"
)

var Modes = []modes.Mode{ModeArt, ModeStatus}

// StatusInfo is what the status screen shows.
type StatusInfo struct {
	Current     *Frame
	Broker      string
	Images      int
	Queued      int
	QueueCap    int
	MQTTOnline  bool
	DitherLabel string
}

// BuildLayout draws mode. The art mode shows the current frame full-bleed
// or a waiting screen before the first image.
func BuildLayout(info *StatusInfo, mode modes.Mode) *render.Layout {
	if mode == ModeStatus {
		return statusLayout(info)
	}
	if info.Current != nil {
		return &render.Layout{Image: info.Current.Bitmap}
	}
	return &render.Layout{
		Title: "Art Frame",
		Lines: []string{"Waiting for art...", "Broker: " + info.Broker},
	}
}

func statusLayout(info *StatusInfo) *render.Layout {
	conn := "disconnected"
	if info.MQTTOnline {
		conn = "connected"
	}
	last := "never"
	if info.Current != nil {
		last = info.Current.Received.Format("15:04:05")
	}
	return &render.Layout{
		Title: "Art Frame Status",
		Lines: []string{
			"Broker: " + info.Broker,
			"MQTT: " + conn,
			fmt.Sprintf("Images: %d", info.Images),
			"Last: " + last,
			fmt.Sprintf("Queue: %d/%d", info.Queued, info.QueueCap),
			"Dither: " + info.DitherLabel,
		},
	}
}
