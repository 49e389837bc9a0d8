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

package aprs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultReadTimeout = 2 * time.Minute
	maxLineLength      = 1024
)

// DialFunc opens the TCP connection to a server.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

type ClientOptions struct {
	Dial        DialFunc
	Clock       clockwork.Clock
	Login       string
	Passcode    string
	Filter      string
	Software    string
	Version     string
	Servers     []string
	ReadTimeout time.Duration
}

// Client keeps a session to APRS-IS alive, moving to the next server and
// backing off after every failure.
type Client struct {
	server    atomic.Value
	opts      ClientOptions
	connected atomic.Bool
	verified  atomic.Bool
}

func NewClient(opts ClientOptions) *Client {
	if opts.Dial == nil {
		d := &net.Dialer{Timeout: 15 * time.Second, KeepAlive: 30 * time.Second}
		opts.Dial = d.DialContext
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Software == "" {
		opts.Software = "inkterm"
	}
	if opts.Passcode == "" {
		opts.Passcode = "-1"
	}
	c := &Client{opts: opts}
	c.server.Store("")
	return c
}

// LoginLine is the line sent after connecting.
func (c *Client) LoginLine() string {
	line := fmt.Sprintf("user %s pass %s vers %s %s", c.opts.Login, c.opts.Passcode, c.opts.Software, c.opts.Version)
	line = strings.TrimRight(line, " ")
	if c.opts.Filter != "" {
		line += " filter " + c.opts.Filter
	}
	return line
}

func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Verified reports whether the server accepted the passcode.
func (c *Client) Verified() bool {
	return c.verified.Load()
}

// Server is the address of the current or last server.
func (c *Client) Server() string {
	s, _ := c.server.Load().(string)
	return s
}

// Run streams packet lines to fn until ctx ends. Server comments are
// filtered out. Connection failures are logged and retried.
func (c *Client) Run(ctx context.Context, fn func(line string)) error {
	if len(c.opts.Servers) == 0 {
		return errors.New("no APRS-IS servers configured")
	}
	if c.opts.Login == "" {
		return errors.New("APRS-IS login is empty")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 5 * time.Minute

	for i := 0; ; i++ {
		addr := c.opts.Servers[i%len(c.opts.Servers)]
		c.server.Store(addr)

		loggedIn, err := c.session(ctx, addr, fn)
		if ctx.Err() != nil {
			return nil
		}
		if loggedIn {
			b.Reset()
		}

		wait := b.NextBackOff()
		log.Warn().Err(err).Str("server", addr).Dur("retry_in", wait).Msg("aprs: connection ended")

		select {
		case <-ctx.Done():
			return nil
		case <-c.opts.Clock.After(wait):
		}
	}
}

// session runs one connection. It reports whether the login got through.
func (c *Client) session(ctx context.Context, addr string, fn func(line string)) (bool, error) {
	conn, err := c.opts.Dial(ctx, "tcp", addr)
	if err != nil {
		return false, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	defer func() {
		c.connected.Store(false)
		c.verified.Store(false)
	}()

	reader := bufio.NewReaderSize(conn, maxLineLength)
	readLine := func() (string, error) {
		if err := conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return "", fmt.Errorf("failed to set read deadline: %w", err)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line != "" {
				return strings.TrimRight(line, "\r\n"), nil
			}
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	banner, err := readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read server banner: %w", err)
	}
	log.Debug().Str("server", addr).Msgf("aprs: %s", banner)

	if _, err := fmt.Fprintf(conn, "%s\r\n", c.LoginLine()); err != nil {
		return false, fmt.Errorf("failed to send login: %w", err)
	}
	c.connected.Store(true)
	log.Info().Str("server", addr).Str("login", c.opts.Login).Msg("aprs: connected")

	loggedIn := false
	for {
		line, err := readLine()
		if err != nil {
			return loggedIn, fmt.Errorf("read from %s failed: %w", addr, err)
		}
		if line == "" {
			continue
		}
		if line[0] == '#' {
			if resp, ok := strings.CutPrefix(line, "# logresp "); ok {
				loggedIn = true
				c.handleLogresp(resp)
			}
			continue
		}
		loggedIn = true
		fn(line)
	}
}

func (c *Client) handleLogresp(resp string) {
	fields := strings.Fields(resp)
	if len(fields) < 2 {
		log.Warn().Msgf("aprs: odd logresp %q", resp)
		return
	}
	status := strings.TrimRight(fields[1], ",")
	switch status {
	case "verified":
		c.verified.Store(true)
		log.Info().Msgf("aprs: login %s verified", fields[0])
	case "unverified":
		log.Info().Msgf("aprs: login %s unverified, receive only", fields[0])
	default:
		log.Warn().Msgf("aprs: login rejected: %s", resp)
	}
}
