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

package database

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkterm/inkterm/pkg/aprs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T, maxEntries int) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "packets.db"), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestAddAndRecent(t *testing.T) {
	t.Parallel()
	h := openTestHistory(t, 0)

	received := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, h.Add(&aprs.Packet{
			From:     fmt.Sprintf("N%dCALL", i),
			To:       "APRS",
			Format:   aprs.FormatStatus,
			Status:   "hello",
			Received: received.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := h.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "N2CALL", entries[0].From)
	assert.Equal(t, uint64(3), entries[0].ID)
	assert.Equal(t, "N1CALL", entries[1].From)
	assert.True(t, entries[0].Received.Equal(received.Add(2*time.Minute)))

	n, err := h.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRecentNonPositiveLimit(t *testing.T) {
	t.Parallel()
	h := openTestHistory(t, 0)
	require.NoError(t, h.Add(&aprs.Packet{From: "W1AW"}))

	entries, err := h.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTrimOldest(t *testing.T) {
	t.Parallel()
	h := openTestHistory(t, 5)

	for i := range 12 {
		require.NoError(t, h.Add(&aprs.Packet{From: fmt.Sprintf("S%d", i)}))
	}

	n, err := h.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	entries, err := h.Recent(100)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "S11", entries[0].From)
	assert.Equal(t, "S7", entries[4].From)
}

func TestReopenKeepsEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "packets.db")
	h, err := OpenHistory(path, 0)
	require.NoError(t, err)
	require.NoError(t, h.Add(&aprs.Packet{From: "KB1XYZ", Format: aprs.FormatWeather}))
	require.NoError(t, h.Close())

	h, err = OpenHistory(path, 0)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	entries, err := h.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, aprs.FormatWeather, entries[0].Format)
}

func TestNilHistory(t *testing.T) {
	t.Parallel()

	var h *History
	assert.ErrorIs(t, h.Add(&aprs.Packet{}), ErrClosed)
	_, err := h.Recent(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Count()
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, h.Close())
}
