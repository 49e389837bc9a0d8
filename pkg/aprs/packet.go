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

// Package aprs parses APRS packets in TNC2 text form and streams them from
// an APRS-IS server.
package aprs

import (
	"errors"
	"time"
)

var (
	ErrMalformedPacket = errors.New("malformed APRS packet")
	ErrServerLine      = errors.New("APRS-IS server line")
)

// Format is the kind of report a packet carries.
type Format string

const (
	FormatUncompressed Format = "uncompressed"
	FormatCompressed   Format = "compressed"
	FormatMicE         Format = "mic-e"
	FormatMessage      Format = "message"
	FormatStatus       Format = "status"
	FormatObject       Format = "object"
	FormatItem         Format = "item"
	FormatWeather      Format = "wx"
	FormatTelemetry    Format = "telemetry"
	FormatUnknown      Format = "unknown"
)

// Packet is one decoded APRS frame. Position fields are only meaningful
// when HasPosition is set.
type Packet struct {
	Received    time.Time `json:"received"`
	Weather     *Weather  `json:"weather,omitempty"`
	Raw         string    `json:"raw"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Format      Format    `json:"format"`
	Comment     string    `json:"comment,omitempty"`
	Addressee   string    `json:"addressee,omitempty"`
	MessageText string    `json:"message_text,omitempty"`
	MessageID   string    `json:"message_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	ObjectName  string    `json:"object_name,omitempty"`
	Path        []string  `json:"path,omitempty"`
	Telemetry   []float64 `json:"telemetry,omitempty"`
	Latitude    float64   `json:"latitude,omitempty"`
	Longitude   float64   `json:"longitude,omitempty"`
	Sequence    int       `json:"sequence,omitempty"`
	SymbolTable byte      `json:"-"`
	Symbol      byte      `json:"-"`
	HasPosition bool      `json:"has_position"`
	Alive       bool      `json:"-"`
}

// Weather holds the fields a weather report can carry, in the units APRS
// sends them. Nil means the station did not report that field.
type Weather struct {
	WindDirection *int     `json:"wind_direction,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindGust      *float64 `json:"wind_gust,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	RainHour      *float64 `json:"rain_1h,omitempty"`
	Rain24h       *float64 `json:"rain_24h,omitempty"`
	RainMidnight  *float64 `json:"rain_since_midnight,omitempty"`
	Humidity      *int     `json:"humidity,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	Luminosity    *int     `json:"luminosity,omitempty"`
}

// Empty reports whether no field was decoded.
func (w *Weather) Empty() bool {
	return w == nil || (w.WindDirection == nil && w.WindSpeed == nil && w.WindGust == nil &&
		w.Temperature == nil && w.RainHour == nil && w.Rain24h == nil && w.RainMidnight == nil &&
		w.Humidity == nil && w.Pressure == nil && w.Luminosity == nil)
}
