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

package mqtt

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/inkterm/inkterm/pkg/config"
	"github.com/rs/zerolog/log"
)

// ProtocolInfo is a broker address split into scheme and host:port.
type ProtocolInfo struct {
	Protocol  string
	Scheme    string
	Remainder string
	UseTLS    bool
}

// ParseProtocol extracts protocol information from a broker address.
//
// Examples:
//   - "mqtts://broker:8883" -> {Protocol: "ssl", UseTLS: true, Scheme: "mqtts", Remainder: "broker:8883"}
//   - "tcp://broker:1883" -> {Protocol: "tcp", Scheme: "tcp", Remainder: "broker:1883"}
//   - "broker:1883" -> {Protocol: "tcp", Remainder: "broker:1883"}
func ParseProtocol(addr string) ProtocolInfo {
	info := ProtocolInfo{
		Protocol:  "tcp",
		Remainder: addr,
	}

	if scheme, rest, ok := strings.Cut(addr, "://"); ok {
		info.Scheme = strings.ToLower(scheme)
		info.Remainder = rest
		if info.Scheme == "mqtts" || info.Scheme == "ssl" || info.Scheme == "tls" {
			info.Protocol = "ssl"
			info.UseTLS = true
		}
	}

	return info
}

// NewClientOptions builds paho options for broker with a unique client id
// starting with clientIDPrefix. Credentials come from auth.toml when an
// entry matches, otherwise from username/password.
func NewClientOptions(broker, clientIDPrefix, username, password string) *mqtt.ClientOptions {
	info := ParseProtocol(broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s://%s", info.Protocol, info.Remainder))
	opts.SetClientID(clientIDPrefix + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOrderMatters(false)

	if creds := config.LookupAuth(config.GetAuthCfg(), broker); creds != nil && creds.Username != "" {
		opts.SetUsername(creds.Username)
		opts.SetPassword(creds.Password)
		log.Debug().Msgf("mqtt: using auth.toml credentials for %s", info.Remainder)
	} else if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	if info.UseTLS {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})
		log.Debug().Msgf("mqtt: using TLS for %s", info.Remainder)
	}

	return opts
}
