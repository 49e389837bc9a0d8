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

// Package artframe shows generative art pushed over MQTT. Images arrive as
// base64 on one topic, commands on another, and the frame reports its state
// on a retained status topic.
package artframe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkterm/inkterm/pkg/api"
	"github.com/inkterm/inkterm/pkg/cli"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/inkterm/inkterm/pkg/imageproc"
	"github.com/inkterm/inkterm/pkg/modes"
	"github.com/inkterm/inkterm/pkg/mqtt"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/inkterm/inkterm/pkg/service/broker"
	"github.com/inkterm/inkterm/pkg/service/discovery"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const AppName = "artframe"

const (
	CommandClear   = "clear"
	CommandRefresh = "refresh"
	CommandStatus  = "status"
	CommandNext    = "next"
	CommandMode    = "mode"
)

var ErrUnknownCommand = errors.New("unknown command")

type Options struct {
	Clock clockwork.Clock
	// Factory replaces the paho client, for tests.
	Factory mqtt.ClientFactory
}

// StatusMessage is published on the status topic.
type StatusMessage struct {
	LastImage *time.Time `json:"last_image,omitempty"`
	Images    *int       `json:"images,omitempty"`
	Status    string     `json:"status"`
	Timestamp float64    `json:"timestamp"`
}

type App struct {
	cfg    *config.Instance
	clock  clockwork.Clock
	state  *State
	client *mqtt.Client
	topics config.MQTTTopics
	rt     *cli.Runtime
}

var _ cli.App = (*App)(nil)

func New(cfg *config.Instance, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	vals := cfg.Values()

	a := &App{
		cfg:    cfg,
		clock:  opts.Clock,
		state:  NewState(vals.ImageProcessing.PlotterQueue),
		topics: vals.MQTT.Topics,
	}
	a.client = mqtt.NewClient(mqtt.Options{
		Factory:        opts.Factory,
		Clock:          opts.Clock,
		Broker:         cfg.MQTTBroker(),
		ClientIDPrefix: "artframe-",
		Username:       vals.MQTT.Username,
		Password:       vals.MQTT.Password,
		Will: &mqtt.Will{
			Topic:   vals.MQTT.Topics.Status,
			Payload: []byte(`{"status":"offline"}`),
		},
		OnConnect: func() { a.publishStatus("online", false) },
	})
	a.client.Handle(a.topics.Image, func(_ string, payload []byte) {
		if err := a.HandleImage(payload); err != nil {
			log.Error().Err(err).Int("bytes", len(payload)).Msg("failed to handle image")
		}
	})
	a.client.Handle(a.topics.Command, func(_ string, payload []byte) {
		if err := a.HandleCommand(context.Background(), payload); err != nil {
			log.Warn().Err(err).Msg("command ignored")
		}
	})
	return a
}

func (*App) Name() string { return AppName }

func (*App) Modes() []modes.Mode { return Modes }

func (a *App) Bind(rt *cli.Runtime) { a.rt = rt }

func (*App) Services() []discovery.Entry { return nil }

func (a *App) State() *State { return a.state }

func (a *App) Client() *mqtt.Client { return a.client }

func (a *App) Layout(mode modes.Mode) *render.Layout {
	l := BuildLayout(&StatusInfo{
		Current:     a.state.Current(),
		Broker:      a.client.Broker(),
		Images:      a.state.Images(),
		Queued:      a.state.Plotter().Len(),
		QueueCap:    a.state.Plotter().Cap(),
		MQTTOnline:  a.client.Connected(),
		DitherLabel: a.cfg.Values().ImageProcessing.DitherMethod,
	}, mode)
	l.Disconnected = a.cfg.Display().ShowStatus && !a.client.Connected()
	return l
}

// Start connects to the broker and blocks until ctx ends, then publishes
// the offline status.
func (a *App) Start(ctx context.Context) error {
	log.Info().
		Str("broker", a.client.Broker()).
		Str("image_topic", a.topics.Image).
		Str("command_topic", a.topics.Command).
		Msg("starting art frame")
	if err := a.client.Start(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	<-ctx.Done()
	a.client.Stop()
	return nil
}

// HandleImage decodes a base64 image payload and shows it.
func (a *App) HandleImage(payload []byte) error {
	img, err := imageproc.DecodeBase64(payload)
	if err != nil {
		return err //nolint:wrapcheck // ErrDecodeImage already says what failed
	}
	_, err = a.ShowImage(img, len(payload))
	return err
}

// ShowImage runs img through the dither pipeline, makes it the current art
// and queues it for the plotter. size is the received payload size.
func (a *App) ShowImage(img image.Image, size int) (*Frame, error) {
	vals := a.cfg.Values()
	d := vals.Display
	ip := vals.ImageProcessing

	bmp, err := imageproc.Process(img, imageproc.Options{
		Dither:     ip.DitherMethod,
		Resize:     ip.ResizeMode,
		Width:      d.Width,
		Height:     d.Height,
		Rotation:   d.Rotation,
		Contrast:   ip.Contrast,
		Brightness: ip.Brightness,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	b := img.Bounds()
	frame := a.state.SetImage(bmp, size, a.clock.Now())
	log.Info().
		Str("id", frame.ID).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("bytes", size).
		Msg("received image")

	if a.rt != nil {
		a.rt.Publish(broker.MethodImage, frame)
		a.rt.Kick()
	}
	return frame, nil
}

// HandleCommand runs a command payload, either plain text ("clear",
// "mode status") or JSON {"command": "...", "mode": ...}.
func (a *App) HandleCommand(ctx context.Context, payload []byte) error {
	name, arg := parseCommand(payload)
	log.Info().Str("command", name).Str("arg", string(arg)).Msg("received command")

	switch name {
	case CommandClear:
		return a.Clear(ctx)
	case CommandRefresh:
		a.Refresh()
		return nil
	case CommandStatus:
		a.publishStatus("running", true)
		return nil
	case CommandNext:
		if a.rt != nil {
			a.rt.Modes.Advance()
		}
		return nil
	case CommandMode:
		if a.rt == nil || !api.ApplyMode(a.rt.Modes, arg) {
			return fmt.Errorf("%w: bad mode %s", ErrUnknownCommand, arg)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func parseCommand(payload []byte) (string, json.RawMessage) {
	var msg struct {
		Command string          `json:"command"`
		Mode    json.RawMessage `json:"mode"`
	}
	if err := json.Unmarshal(payload, &msg); err == nil && msg.Command != "" {
		return strings.ToLower(msg.Command), msg.Mode
	}

	name, arg, _ := strings.Cut(strings.TrimSpace(string(payload)), " ")
	var raw json.RawMessage
	if arg = strings.TrimSpace(arg); arg != "" {
		raw, _ = json.Marshal(arg)
	}
	return strings.ToLower(name), raw
}

// Clear drops the current art and blanks the panel.
func (a *App) Clear(ctx context.Context) error {
	a.state.Clear()
	if a.rt == nil {
		return nil
	}
	a.rt.Publish(broker.MethodDisplayClear, nil)
	if err := a.rt.Loop.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear display: %w", err)
	}
	return nil
}

// Refresh forces a full redraw of the current frame.
func (a *App) Refresh() {
	if a.rt != nil {
		a.rt.Loop.ForceFull()
	}
}

func (a *App) publishStatus(status string, detail bool) {
	now := a.clock.Now()
	msg := StatusMessage{
		Status:    status,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}
	if detail {
		images := a.state.Images()
		msg.Images = &images
		if f := a.state.Current(); f != nil {
			msg.LastImage = &f.Received
		}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal status")
		return
	}
	if err := a.client.Publish(a.topics.Status, data, status != "running"); err != nil {
		log.Warn().Err(err).Str("status", status).Msg("failed to publish status")
	}
}

func (a *App) Routes(r chi.Router) {
	r.Post("/clear_display", a.handleClear)
	r.Post("/refresh", a.handleRefresh)
	r.Post("/upload_image", a.handleUpload)
	r.Get("/plotter", a.handlePlotter)
	r.Get("/plotter/next.png", a.handlePlotterNext)
}
