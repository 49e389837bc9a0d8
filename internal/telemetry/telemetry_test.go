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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "system path", input: "/usr/local/bin/artframe", expected: "/usr/local/bin/artframe"},
		{
			name:     "pi home",
			input:    "/home/pi/inkterm/config.json",
			expected: "/home/<user>/inkterm/config.json",
		},
		{
			name:     "uppercase home",
			input:    "/Home/Pi/inkterm/config.json",
			expected: "/home/<user>/inkterm/config.json",
		},
		{
			name:     "root home",
			input:    "/root/inkterm/setlist.json",
			expected: "/<root>/inkterm/setlist.json",
		},
		{
			name:     "message with two paths",
			input:    "copying /home/alice/a.png to /home/bob/b.png",
			expected: "copying /home/<user>/a.png to /home/<user>/b.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitizePath(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "pwnagotchi",
		Message:    "open /home/pi/config.json: permission denied",
		Extra:      map[string]any{"path": "/home/pi/setlist.yaml", "count": 3},
		Exception: []sentry.Exception{{
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{{
				AbsPath:  "/home/pi/src/inkterm/pkg/display/epd.go",
				Filename: "pkg/display/epd.go",
			}}},
		}, {}},
	}

	got := sanitizeEvent(event)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "open /home/<user>/config.json: permission denied", got.Message)
	assert.Equal(t, "/home/<user>/setlist.yaml", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["count"])
	assert.Equal(t, "/home/<user>/src/inkterm/pkg/display/epd.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
}

func TestInitWithoutDSN(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Init("", "artframe", "test"))
	assert.False(t, Enabled())
	Close()
	Flush()
}
