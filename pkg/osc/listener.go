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

package osc

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/hypebeast/go-osc/osc"
	"github.com/rs/zerolog/log"
)

const maxDatagram = 65535

// Listener reads OSC datagrams from one UDP socket and dispatches every
// message they carry, bundles included.
type Listener struct {
	conn   net.PacketConn
	router *Router
	name   string
}

// Listen binds addr right away so a busy port fails at startup.
func Listen(name, addr string, router *Router) (*Listener, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OSC on %s: %w", addr, err)
	}
	log.Info().Msgf("osc: %s listening on %s", name, conn.LocalAddr())
	return &Listener{conn: conn, router: router, name: name}, nil
}

func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Close releases the socket of a listener that will not be run.
func (l *Listener) Close() error {
	if err := l.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close OSC socket: %w", err)
	}
	return nil
}

// Run reads until ctx ends, then closes the socket.
func (l *Listener) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = l.conn.Close()
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("osc read failed: %w", err)
		}
		l.HandleDatagram(buf[:n], from)
	}
}

// HandleDatagram parses one datagram and dispatches its messages.
// Unparseable input is logged and dropped.
func (l *Listener) HandleDatagram(data []byte, from net.Addr) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Interface("panic", rec).Str("from", addrString(from)).
				Msgf("osc: %s dropped packet that broke the decoder", l.name)
		}
	}()

	pkt, err := osc.ParsePacket(string(data))
	if err != nil {
		log.Warn().Err(err).Str("from", addrString(from)).Msgf("osc: %s dropped malformed packet", l.name)
		return
	}
	l.dispatchPacket(pkt)
}

func (l *Listener) dispatchPacket(pkt osc.Packet) {
	switch p := pkt.(type) {
	case *osc.Message:
		l.dispatch(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			l.dispatch(m)
		}
		for _, b := range p.Bundles {
			l.dispatchPacket(b)
		}
	}
}

func (l *Listener) dispatch(msg *osc.Message) {
	err := l.router.Dispatch(msg.Address, msg.Arguments)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnhandled):
		log.Debug().Msgf("osc: %s ignored %s", l.name, msg.Address)
	default:
		log.Warn().Err(err).Msgf("osc: %s rejected %s", l.name, msg.Address)
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
