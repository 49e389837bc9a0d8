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

package performance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/inkterm/inkterm/pkg/osc"
	"github.com/rs/zerolog/log"
)

var ErrBridgePayload = errors.New("bad MQTT payload")

// TopicAddress turns an MQTT topic into the OSC address it stands for by
// dropping the first segment: performance/live/tempo is /live/tempo.
func TopicAddress(topic string) (string, bool) {
	_, rest, ok := strings.Cut(strings.Trim(topic, "/"), "/")
	if !ok || rest == "" {
		return "", false
	}
	return "/" + rest, true
}

// PayloadArgs decodes a JSON scalar or array into OSC-style arguments.
// An empty payload means no arguments.
func PayloadArgs(payload []byte) ([]any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBridgePayload, err)
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		return nil, fmt.Errorf("%w: objects are not supported", ErrBridgePayload)
	case nil:
		return nil, nil
	default:
		return []any{t}, nil
	}
}

// handleMQTT feeds one MQTT message through the OSC router.
func (a *App) handleMQTT(topic string, payload []byte) {
	addr, ok := TopicAddress(topic)
	if !ok {
		log.Debug().Str("topic", topic).Msg("mqtt: topic has no address part")
		return
	}
	args, err := PayloadArgs(payload)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("mqtt: dropped message")
		return
	}
	log.Debug().Interface("args", args).Msgf("mqtt: %s -> %s", topic, addr)

	switch err := a.router.Dispatch(addr, args); {
	case err == nil:
	case errors.Is(err, osc.ErrUnhandled):
		log.Debug().Msgf("mqtt: ignored %s", addr)
	default:
		log.Warn().Err(err).Msgf("mqtt: rejected %s", addr)
	}
}
