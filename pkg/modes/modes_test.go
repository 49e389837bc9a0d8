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

package modes

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testModes = []Mode{"packets", "stats", "weather"}

func TestAdvanceWraps(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 0)
	assert.Equal(t, Mode("stats"), m.Advance())
	assert.Equal(t, Mode("weather"), m.Advance())
	assert.Equal(t, Mode("packets"), m.Advance())
	assert.Equal(t, 0, m.Index())
}

func TestSetKnownMode(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 0)
	assert.True(t, m.Set("Weather"))
	assert.Equal(t, Mode("weather"), m.Current())
}

func TestSetUnknownModeIgnored(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 1)
	assert.False(t, m.Set("midi"))
	assert.Equal(t, Mode("stats"), m.Current())

	assert.False(t, m.SetIndex(7))
	assert.False(t, m.SetIndex(-1))
	assert.Equal(t, 1, m.Index())
}

func TestInitialOutOfRange(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 9)
	assert.Equal(t, Mode("packets"), m.Current())
}

func TestNewManagerEmptyPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewManager(nil, 0) })
}

func TestOnChange(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 0)
	var got []Mode
	m.OnChange(func(mode Mode) { got = append(got, mode) })

	m.Advance()
	m.SetIndex(1) // unchanged, no callback
	m.Set("packets")

	assert.Equal(t, []Mode{"stats", "packets"}, got)
}

func TestRotate(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	m := NewManager(testModes, 0)

	var changes atomic.Int32
	m.OnChange(func(Mode) { changes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Rotate(ctx, clock, time.Minute)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return changes.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Mode("stats"), m.Current())

	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return changes.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Mode("weather"), m.Current())

	cancel()
	<-done
}

func TestRotateDisabled(t *testing.T) {
	t.Parallel()

	m := NewManager(testModes, 0)
	m.Rotate(context.Background(), clockwork.NewFakeClock(), 0)
	assert.Equal(t, Mode("packets"), m.Current())
}

// TestPropertyAdvanceCycle checks advancing once per mode returns to the
// starting mode.
func TestPropertyAdvanceCycle(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		list := make([]Mode, n)
		for i := range list {
			list[i] = Mode(rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "mode"))
		}
		start := rapid.IntRange(0, n-1).Draw(t, "start")

		m := NewManager(list, start)
		for range n {
			m.Advance()
		}
		if m.Index() != start {
			t.Fatalf("index after %d advances = %d, want %d", n, m.Index(), start)
		}
	})
}
