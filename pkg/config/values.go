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

package config

// AppVersion is set at build time with -ldflags.
var AppVersion = "DEVELOPMENT"

const (
	DefaultPanelModel  = "epd2in13_V2"
	DefaultPanelWidth  = 250
	DefaultPanelHeight = 122
	DefaultWebListen   = ":5000"
	DefaultMQTTPort    = 1883
	DefaultAPRSServer  = "rotate.aprs2.net:14580"
	ReadOnlyPasscode   = "-1"
)

// Values mirrors the JSON config file. Each daemon only reads the sections
// it needs, the rest keep their defaults.
type Values struct {
	MQTT            MQTT            `json:"mqtt"`
	Sources         Sources         `json:"sources"`
	Station         Station         `json:"station"`
	APRSIS          APRSIS          `json:"aprs_is"`
	Display         Display         `json:"display"`
	ImageProcessing ImageProcessing `json:"image_processing"`
	Performance     Performance     `json:"performance"`
	Web             Web             `json:"web"`
	Logging         Logging         `json:"logging"`
	Telemetry       Telemetry       `json:"telemetry"`
}

type MQTT struct {
	Broker   string     `json:"broker" validate:"required"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"password,omitempty"`
	Topics   MQTTTopics `json:"topics"`
	Port     int        `json:"port" validate:"min=1,max=65535"`
}

type MQTTTopics struct {
	Image   string `json:"image" validate:"required"`
	Command string `json:"command" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

type Sources struct {
	Ableton       OSCSource  `json:"ableton"`
	TouchDesigner OSCSource  `json:"touchdesigner"`
	MQTT          MQTTSource `json:"mqtt"`
}

type OSCSource struct {
	Method  string `json:"method"`
	Address string `json:"address"`
	Port    int    `json:"port" validate:"min=1,max=65535"`
	Enabled bool   `json:"enabled"`
}

type MQTTSource struct {
	Broker  string   `json:"broker"`
	Topics  []string `json:"topics"`
	Port    int      `json:"port" validate:"min=1,max=65535"`
	Enabled bool     `json:"enabled"`
}

type Station struct {
	Callsign  string  `json:"callsign" validate:"required"`
	SSID      string  `json:"ssid"`
	Passcode  string  `json:"passcode"`
	Comment   string  `json:"comment,omitempty"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type APRSIS struct {
	Server      string   `json:"server,omitempty"`
	Filter      string   `json:"filter"`
	ArchivePath string   `json:"archive_path,omitempty"`
	Servers     []string `json:"servers"`
	Port        int      `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	ReadTimeout float64  `json:"read_timeout" validate:"gte=0"`
}

type Display struct {
	Model            string  `json:"model" validate:"required"`
	OutputFile       string  `json:"output_file,omitempty"`
	Rotation         int     `json:"rotation" validate:"oneof=0 90 180 270"`
	Width            int     `json:"width" validate:"min=16,max=2048"`
	Height           int     `json:"height" validate:"min=16,max=2048"`
	RefreshInterval  float64 `json:"refresh_interval" validate:"gt=0"`
	RefreshRate      float64 `json:"refresh_rate,omitempty" validate:"gte=0"`
	FullRefreshEvery int     `json:"full_refresh_every" validate:"gte=0"`
	ModeDuration     float64 `json:"mode_duration" validate:"gte=0,required_if=AutoRotateModes true"`
	DefaultMode      int     `json:"default_mode" validate:"gte=0"`
	AutoRotateModes  bool    `json:"auto_rotate_modes"`
	AutoRotate       bool    `json:"auto_rotate,omitempty"`
	ShowStatus       bool    `json:"show_status"`
}

type ImageProcessing struct {
	DitherMethod string  `json:"dither_method" validate:"required,dither"`
	ResizeMode   string  `json:"resize_mode,omitempty" validate:"resize"`
	Contrast     float64 `json:"contrast" validate:"gte=0"`
	Brightness   float64 `json:"brightness" validate:"gte=0"`
	PlotterQueue int     `json:"plotter_queue" validate:"min=1"`
}

type Performance struct {
	SetlistPath    string  `json:"setlist_path"`
	MatchThreshold float64 `json:"match_threshold" validate:"gte=0,lte=1"`
}

type Web struct {
	Listen         string   `json:"listen"`
	InstanceName   string   `json:"instance_name,omitempty"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	AllowedIPs     []string `json:"allowed_ips,omitempty"`
	Enabled        bool     `json:"enabled"`
	Discovery      bool     `json:"discovery"`
}

type Logging struct {
	File  string `json:"file,omitempty"`
	Debug bool   `json:"debug"`
}

type Telemetry struct {
	SentryDSN string `json:"sentry_dsn,omitempty"`
}

func baseDefaults() Values {
	return Values{
		MQTT: MQTT{
			Broker: "localhost",
			Port:   DefaultMQTTPort,
			Topics: MQTTTopics{
				Image:   "art/frame/image",
				Command: "art/frame/command",
				Status:  "art/frame/status",
			},
		},
		Sources: Sources{
			Ableton: OSCSource{
				Enabled: true,
				Method:  "osc",
				Address: "0.0.0.0",
				Port:    9000,
			},
			TouchDesigner: OSCSource{
				Enabled: true,
				Method:  "osc",
				Address: "0.0.0.0",
				Port:    9001,
			},
			MQTT: MQTTSource{
				Enabled: false,
				Broker:  "localhost",
				Port:    DefaultMQTTPort,
				Topics:  []string{"performance/#"},
			},
		},
		Station: Station{
			Callsign:  "N0CALL",
			SSID:      "10",
			Passcode:  ReadOnlyPasscode,
			Latitude:  40.7128,
			Longitude: -74.0060,
			Comment:   "Pwnagotchi APRS iGate",
		},
		APRSIS: APRSIS{
			Servers:     []string{DefaultAPRSServer},
			Filter:      "r/40.7128/-74.0060/50",
			ReadTimeout: 120,
		},
		Display: Display{
			Model:            DefaultPanelModel,
			Width:            DefaultPanelWidth,
			Height:           DefaultPanelHeight,
			RefreshInterval:  30,
			FullRefreshEvery: 10,
			ModeDuration:     60,
			ShowStatus:       true,
		},
		ImageProcessing: ImageProcessing{
			DitherMethod: "floyd-steinberg",
			ResizeMode:   "contain",
			Contrast:     1.0,
			Brightness:   1.0,
			PlotterQueue: 10,
		},
		Performance: Performance{
			SetlistPath:    "setlist.json",
			MatchThreshold: 0.6,
		},
		Web: Web{
			Enabled:   true,
			Listen:    DefaultWebListen,
			Discovery: true,
		},
	}
}

// ArtFrameDefaults are the defaults for the generative art frame.
func ArtFrameDefaults() Values {
	v := baseDefaults()
	v.ImageProcessing.Contrast = 1.2
	return v
}

// APRSDefaults are the defaults for the APRS iGate display.
func APRSDefaults() Values {
	v := baseDefaults()
	v.Display.AutoRotateModes = true
	return v
}

// PerformanceDefaults are the defaults for the live performance companion.
func PerformanceDefaults() Values {
	v := baseDefaults()
	v.Display.RefreshInterval = 2
	return v
}
