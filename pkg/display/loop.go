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

package display

import (
	"context"
	"errors"
	"time"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/inkterm/inkterm/pkg/render"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultFullRefreshEvery is how many pushes may pass between full
// refreshes when the config leaves it unset.
const DefaultFullRefreshEvery = 10

// RenderFunc produces the frame for the current state and mode.
type RenderFunc func() *render.Bitmap

type LoopOptions struct {
	Clock            clockwork.Clock
	Interval         time.Duration
	FullRefreshEvery int
}

// Loop renders and pushes one frame per tick. Frames identical to the last
// one pushed are skipped unless a full refresh is due.
type Loop struct {
	sink      Sink
	render    RenderFunc
	clock     clockwork.Clock
	kick      chan struct{}
	last      *render.Bitmap
	interval  time.Duration
	fullEvery int
	pushes    int
	forceFull bool
	tickMu    syncutil.Mutex
	mu        syncutil.RWMutex
}

func NewLoop(sink Sink, fn RenderFunc, opts LoopOptions) *Loop {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.FullRefreshEvery <= 0 {
		opts.FullRefreshEvery = DefaultFullRefreshEvery
	}
	return &Loop{
		sink:      sink,
		render:    fn,
		clock:     opts.Clock,
		interval:  opts.Interval,
		fullEvery: opts.FullRefreshEvery,
		kick:      make(chan struct{}, 1),
	}
}

func (l *Loop) Sink() Sink {
	return l.sink
}

// Run draws immediately and then on every interval until ctx ends. Kick
// requests an extra draw in between.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			l.tick(ctx)
		case <-l.kick:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	if err := l.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("sink", l.sink.Name()).Msg("display: failed to push frame")
	}
}

// Kick asks Run for a draw as soon as possible. Kicks made while one is
// already pending collapse into it.
func (l *Loop) Kick() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// ForceFull makes the next push a full refresh, even if the frame did not
// change, and kicks the loop.
func (l *Loop) ForceFull() {
	l.mu.Lock()
	l.forceFull = true
	l.mu.Unlock()
	l.Kick()
}

// Tick renders one frame and pushes it if needed. Only one tick runs at a
// time.
func (l *Loop) Tick(ctx context.Context) error {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	bmp := l.render()
	if bmp == nil {
		return nil
	}

	l.mu.RLock()
	full := l.forceFull || l.last == nil || l.pushes%l.fullEvery == 0
	unchanged := render.Equal(bmp, l.last)
	l.mu.RUnlock()

	if unchanged && !full {
		return nil
	}

	if err := l.sink.Show(ctx, bmp, full); err != nil {
		return err
	}

	l.mu.Lock()
	l.last = bmp
	l.pushes++
	if full {
		l.forceFull = false
	}
	l.mu.Unlock()
	return nil
}

// Clear blanks the panel and forgets the last frame, so the next tick
// pushes again.
func (l *Loop) Clear(ctx context.Context) error {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if err := l.sink.Clear(ctx); err != nil {
		return err
	}
	l.mu.Lock()
	l.last = nil
	l.mu.Unlock()
	return nil
}

// Last returns the most recently pushed frame, nil before the first push.
func (l *Loop) Last() *render.Bitmap {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Pushes counts frames sent to the sink.
func (l *Loop) Pushes() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pushes
}
