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

// Package osc receives Open Sound Control messages over UDP and routes them
// to handlers by address pattern.
package osc

import (
	"errors"
	"fmt"
	"path"
	"runtime/debug"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

var ErrUnhandled = errors.New("no handler for address")

// Handler processes one message. Returning an error leaves state untouched
// and gets the message logged.
type Handler func(addr string, args []any) error

type route struct {
	handler Handler
	pattern string
}

// Router maps address patterns to handlers. Patterns are matched against
// the whole address with path.Match, so * and ? stay within one segment.
// The first matching route wins.
type Router struct {
	fallback Handler
	routes   []route
	mu       syncutil.RWMutex
}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Handle(pattern string, h Handler) {
	if _, err := path.Match(pattern, "/"); err != nil {
		panic(fmt.Sprintf("osc: bad pattern %q: %v", pattern, err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, handler: h})
}

// Default sets the handler for addresses no route matches.
func (r *Router) Default(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Dispatch runs the handler for addr. Unmatched addresses go to the default
// handler, or return ErrUnhandled without one. Handler panics are turned
// into errors.
func (r *Router) Dispatch(addr string, args []any) (err error) {
	h := r.lookup(addr)
	if h == nil {
		return fmt.Errorf("%w: %s", ErrUnhandled, addr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Bytes("stack", debug.Stack()).Msgf("osc: handler for %s panicked", addr)
			err = fmt.Errorf("handler for %s panicked: %v", addr, rec)
		}
	}()
	return h(addr, args)
}

func (r *Router) lookup(addr string) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		if ok, _ := path.Match(rt.pattern, addr); ok {
			return rt.handler
		}
	}
	return r.fallback
}
