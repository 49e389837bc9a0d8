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

//go:build deadlock

// Package syncutil wraps the sync mutexes so the deadlock detector can be
// swapped in with -tags=deadlock. State holders written to from network
// callbacks and read by the render loop use these types.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether the binary was built with the detector.
const DeadlockEnabled = true

func init() {
	// a render tick on the Pi Zero can take a couple of seconds with a slow
	// SPI panel, keep the detector well clear of that
	deadlock.Opts.DeadlockTimeout = 20 * time.Second
}

// Mutex reports lock-order inversions and long waits in deadlock builds.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex reports lock-order inversions and long waits in deadlock builds.
type RWMutex struct {
	deadlock.RWMutex
}
