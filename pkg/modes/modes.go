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

// Package modes cycles a display through an ordered list of screens, either
// on a timer or on explicit commands.
package modes

import (
	"context"
	"strings"
	"time"

	"github.com/inkterm/inkterm/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Mode identifies one renderer function.
type Mode string

// Manager holds the mode list and the active index. Unknown modes passed to
// Set or SetIndex are ignored.
type Manager struct {
	onChange func(Mode)
	modes    []Mode
	index    int
	mu       syncutil.RWMutex
}

// NewManager panics on an empty mode list, it is a programming error. An
// out-of-range initial index falls back to the first mode.
func NewManager(list []Mode, initial int) *Manager {
	if len(list) == 0 {
		panic("modes: empty mode list")
	}
	if initial < 0 || initial >= len(list) {
		initial = 0
	}
	return &Manager{
		modes: append([]Mode(nil), list...),
		index: initial,
	}
}

// OnChange registers a callback run after every mode switch, outside the
// lock.
func (m *Manager) OnChange(fn func(Mode)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Manager) Current() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modes[m.index]
}

func (m *Manager) Index() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.index
}

func (m *Manager) Modes() []Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Mode(nil), m.modes...)
}

// Advance moves to the next mode, wrapping after the last one.
func (m *Manager) Advance() Mode {
	m.mu.Lock()
	m.index = (m.index + 1) % len(m.modes)
	mode, cb := m.modes[m.index], m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(mode)
	}
	return mode
}

// Set jumps to the named mode, matched case-insensitively. It reports
// whether the mode exists; nothing changes when it doesn't.
func (m *Manager) Set(mode Mode) bool {
	m.mu.RLock()
	idx := -1
	for i, candidate := range m.modes {
		if strings.EqualFold(string(candidate), string(mode)) {
			idx = i
			break
		}
	}
	m.mu.RUnlock()

	if idx < 0 {
		log.Debug().Str("mode", string(mode)).Msg("ignoring unknown display mode")
		return false
	}
	return m.SetIndex(idx)
}

// SetIndex jumps to the mode at idx if it is in range.
func (m *Manager) SetIndex(idx int) bool {
	m.mu.Lock()
	if idx < 0 || idx >= len(m.modes) {
		m.mu.Unlock()
		log.Debug().Int("index", idx).Msg("ignoring out of range display mode")
		return false
	}
	changed := m.index != idx
	m.index = idx
	mode, cb := m.modes[idx], m.onChange
	m.mu.Unlock()

	if changed && cb != nil {
		cb(mode)
	}
	return true
}

// Rotate advances the mode every interval until ctx is done. It blocks, run
// it on its own goroutine. A non-positive interval returns immediately.
func (m *Manager) Rotate(ctx context.Context, clock clockwork.Clock, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			mode := m.Advance()
			log.Info().Msgf("switching to display mode: %s", mode)
		}
	}
}
